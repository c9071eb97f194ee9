package sheetsyncapp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// OrderListRequest defines list criteria for reconciled orders
type OrderListRequest struct {
	SourceID *uuid.UUID
	Status   *string
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

// OrderResponse is the API representation of a reconciled order
type OrderResponse struct {
	ID             uuid.UUID         `json:"id"`
	SourceID       uuid.UUID         `json:"source_id"`
	ExternalID     string            `json:"external_id"`
	RowKey         string            `json:"row_key"`
	ClientName     string            `json:"client_name"`
	ClientPhone    string            `json:"client_phone"`
	City           string            `json:"city"`
	Address        string            `json:"address"`
	Product        string            `json:"product"`
	Quantity       int               `json:"quantity"`
	Price          decimal.Decimal   `json:"price"`
	OrderDate      time.Time         `json:"order_date"`
	Status         string            `json:"status"`
	StatusManual   bool              `json:"status_manual"`
	StatusManualAt *time.Time        `json:"status_manual_at,omitempty"`
	RawFields      map[string]string `json:"raw_fields,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// OrderService exposes read and status-edit operations on reconciled orders
type OrderService struct {
	orders sheetsync.OrderRepository
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders sheetsync.OrderRepository, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{orders: orders, logger: logger}
}

// List returns a page of orders matching the filter
func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, req OrderListRequest) ([]OrderResponse, int64, error) {
	filter := sheetsync.OrderListFilter{
		SourceID: req.SourceID,
		Page:     req.Page,
		PageSize: req.PageSize,
		SortBy:   req.SortBy,
		SortDir:  req.SortDir,
	}
	if req.Status != nil && *req.Status != "" {
		status := sheetsync.OrderStatus(*req.Status)
		filter.Status = &status
	}

	orders, total, err := s.orders.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, *toOrderResponse(&orders[i]))
	}
	return responses, total, nil
}

// GetByID retrieves a single order
func (s *OrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// SetStatus applies a manual status edit. The order is protected from
// automated status updates until the override is cleared.
func (s *OrderService) SetStatus(ctx context.Context, tenantID, orderID uuid.UUID, status string) (*OrderResponse, error) {
	order, err := s.orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.SetStatusManually(status); err != nil {
		return nil, err
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order status set manually",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("status", status),
	)

	return toOrderResponse(order), nil
}

// ClearStatusOverride releases a manual status edit so the next sync run
// may classify the status again
func (s *OrderService) ClearStatusOverride(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	order.ClearManualStatus()

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	return toOrderResponse(order), nil
}

func toOrderResponse(order *sheetsync.Order) *OrderResponse {
	return &OrderResponse{
		ID:             order.ID,
		SourceID:       order.SourceID,
		ExternalID:     order.ExternalID,
		RowKey:         order.RowKey,
		ClientName:     order.ClientName,
		ClientPhone:    order.ClientPhone,
		City:           order.City,
		Address:        order.Address,
		Product:        order.Product,
		Quantity:       order.Quantity,
		Price:          order.Price,
		OrderDate:      order.OrderDate,
		Status:         string(order.Status),
		StatusManual:   order.StatusManual,
		StatusManualAt: order.StatusManualAt,
		RawFields:      order.RawFields,
		Notes:          order.Notes,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}
