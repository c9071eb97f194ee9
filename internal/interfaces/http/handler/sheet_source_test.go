package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	sheetsyncapp "github.com/ordersuite/backend/internal/application/sheetsync"
	"github.com/ordersuite/backend/internal/domain/shared"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

func TestSheetSourceHandler_Create(t *testing.T) {
	repo := new(mockSourceRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*sheetsync.SheetSource")).Return(nil)

	handler := NewSheetSourceHandler(sheetsyncapp.NewSourceService(repo, nil))
	engine := newTestRouter(handler)

	body, _ := json.Marshal(CreateSheetSourceRequest{
		Name:          "Boutique Rabat",
		SpreadsheetID: "sheet-1",
		SheetName:     "Commandes",
	})
	req := httptest.NewRequest("POST", "/api/v1/sheet-sources", bytes.NewReader(body))
	w := doRequest(engine, req, uuid.New())

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Name   string `json:"name"`
			Active bool   `json:"active"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Boutique Rabat", resp.Data.Name)
	assert.True(t, resp.Data.Active)
	repo.AssertExpectations(t)
}

func TestSheetSourceHandler_CreateMissingFields(t *testing.T) {
	handler := NewSheetSourceHandler(sheetsyncapp.NewSourceService(new(mockSourceRepository), nil))
	engine := newTestRouter(handler)

	req := httptest.NewRequest("POST", "/api/v1/sheet-sources", bytes.NewReader([]byte(`{"name":"Shop"}`)))
	w := doRequest(engine, req, uuid.New())

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSheetSourceHandler_MissingTenantHeader(t *testing.T) {
	handler := NewSheetSourceHandler(sheetsyncapp.NewSourceService(new(mockSourceRepository), nil))
	engine := newTestRouter(handler)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sheet-sources", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSheetSourceHandler_GetByIDNotFound(t *testing.T) {
	repo := new(mockSourceRepository)
	tenantID := uuid.New()
	sourceID := uuid.New()
	repo.On("FindByIDForTenant", mock.Anything, tenantID, sourceID).Return(nil, shared.ErrNotFound)

	handler := NewSheetSourceHandler(sheetsyncapp.NewSourceService(repo, nil))
	engine := newTestRouter(handler)

	req := httptest.NewRequest("GET", "/api/v1/sheet-sources/"+sourceID.String(), nil)
	w := doRequest(engine, req, tenantID)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestSheetSourceHandler_List(t *testing.T) {
	repo := new(mockSourceRepository)
	tenantID := uuid.New()

	source, err := sheetsync.NewSheetSource(tenantID, "Boutique Casa", sheetsync.SheetLocation{SpreadsheetID: "sheet-1"})
	require.NoError(t, err)
	repo.On("FindAllForTenant", mock.Anything, tenantID).Return([]sheetsync.SheetSource{*source}, nil)

	handler := NewSheetSourceHandler(sheetsyncapp.NewSourceService(repo, nil))
	engine := newTestRouter(handler)

	req := httptest.NewRequest("GET", "/api/v1/sheet-sources", nil)
	w := doRequest(engine, req, tenantID)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Boutique Casa")
}

func TestSheetSourceHandler_Update(t *testing.T) {
	repo := new(mockSourceRepository)
	tenantID := uuid.New()

	source, err := sheetsync.NewSheetSource(tenantID, "Boutique Fes", sheetsync.SheetLocation{SpreadsheetID: "sheet-1"})
	require.NoError(t, err)
	repo.On("FindByIDForTenant", mock.Anything, tenantID, source.ID).Return(source, nil)
	repo.On("Save", mock.Anything, source).Return(nil)

	handler := NewSheetSourceHandler(sheetsyncapp.NewSourceService(repo, nil))
	engine := newTestRouter(handler)

	body, _ := json.Marshal(UpdateSheetSourceRequest{
		Name:          "Boutique Fès Centre",
		SpreadsheetID: "sheet-2",
		Active:        false,
	})
	req := httptest.NewRequest("PUT", "/api/v1/sheet-sources/"+source.ID.String(), bytes.NewReader(body))
	w := doRequest(engine, req, tenantID)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Boutique Fès Centre")
}
