package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	sheetsyncapp "github.com/ordersuite/backend/internal/application/sheetsync"
	"github.com/ordersuite/backend/internal/domain/shared"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

func storedOrder(tenantID uuid.UUID, externalID string) *sheetsync.Order {
	sourceID := uuid.New()
	return &sheetsync.Order{
		TenantEntity: shared.NewTenantEntity(tenantID),
		SourceID:     sourceID,
		ExternalID:   externalID,
		RowKey:       sheetsync.RowKeyFor(sourceID, 1),
		ClientName:   "Ahmed Benali",
		Quantity:     2,
		Price:        decimal.NewFromFloat(499.99),
		Status:       sheetsync.StatusPending,
	}
}

func TestOrderHandler_List(t *testing.T) {
	repo := new(mockOrderRepository)
	tenantID := uuid.New()

	order := storedOrder(tenantID, "CMD-1")
	repo.On("FindAllForTenant", mock.Anything, tenantID, mock.MatchedBy(func(f sheetsync.OrderListFilter) bool {
		return f.Status != nil && *f.Status == sheetsync.StatusPending && f.Page == 1 && f.PageSize == 50
	})).Return([]sheetsync.Order{*order}, int64(1), nil)

	handler := NewOrderHandler(sheetsyncapp.NewOrderService(repo, nil))
	engine := newTestRouter(handler)

	req := httptest.NewRequest("GET", "/api/v1/orders?status=pending", nil)
	w := doRequest(engine, req, tenantID)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    []struct {
			ExternalID string `json:"external_id"`
			Status     string `json:"status"`
		} `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "CMD-1", resp.Data[0].ExternalID)
	assert.Equal(t, "pending", resp.Data[0].Status)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestOrderHandler_ListRejectsBadSourceID(t *testing.T) {
	handler := NewOrderHandler(sheetsyncapp.NewOrderService(new(mockOrderRepository), nil))
	engine := newTestRouter(handler)

	req := httptest.NewRequest("GET", "/api/v1/orders?source_id=nope", nil)
	w := doRequest(engine, req, uuid.New())

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_SetStatus(t *testing.T) {
	repo := new(mockOrderRepository)
	tenantID := uuid.New()

	order := storedOrder(tenantID, "CMD-1")
	repo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(o *sheetsync.Order) bool {
		return o.StatusManual && o.Status == sheetsync.OrderStatus("negotiating")
	})).Return(nil)

	handler := NewOrderHandler(sheetsyncapp.NewOrderService(repo, nil))
	engine := newTestRouter(handler)

	body, _ := json.Marshal(SetOrderStatusRequest{Status: "negotiating"})
	req := httptest.NewRequest("PATCH", "/api/v1/orders/"+order.ID.String()+"/status", bytes.NewReader(body))
	w := doRequest(engine, req, tenantID)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status_manual":true`)
	repo.AssertExpectations(t)
}

func TestOrderHandler_SetStatusMissingBody(t *testing.T) {
	handler := NewOrderHandler(sheetsyncapp.NewOrderService(new(mockOrderRepository), nil))
	engine := newTestRouter(handler)

	req := httptest.NewRequest("PATCH", "/api/v1/orders/"+uuid.NewString()+"/status", bytes.NewReader([]byte(`{}`)))
	w := doRequest(engine, req, uuid.New())

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_SetStatusUnknownOrder(t *testing.T) {
	repo := new(mockOrderRepository)
	tenantID := uuid.New()
	orderID := uuid.New()
	repo.On("FindByIDForTenant", mock.Anything, tenantID, orderID).Return(nil, shared.ErrNotFound)

	handler := NewOrderHandler(sheetsyncapp.NewOrderService(repo, nil))
	engine := newTestRouter(handler)

	body, _ := json.Marshal(SetOrderStatusRequest{Status: "delivered"})
	req := httptest.NewRequest("PATCH", "/api/v1/orders/"+orderID.String()+"/status", bytes.NewReader(body))
	w := doRequest(engine, req, tenantID)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_ClearStatusOverride(t *testing.T) {
	repo := new(mockOrderRepository)
	tenantID := uuid.New()

	order := storedOrder(tenantID, "CMD-1")
	require.NoError(t, order.SetStatusManually("negotiating"))
	repo.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(o *sheetsync.Order) bool {
		return !o.StatusManual
	})).Return(nil)

	handler := NewOrderHandler(sheetsyncapp.NewOrderService(repo, nil))
	engine := newTestRouter(handler)

	req := httptest.NewRequest("DELETE", "/api/v1/orders/"+order.ID.String()+"/status-override", nil)
	w := doRequest(engine, req, tenantID)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status_manual":false`)
}
