package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sheetsyncapp "github.com/ordersuite/backend/internal/application/sheetsync"
)

// OrderHandler handles reconciled order endpoints
type OrderHandler struct {
	BaseHandler
	orderService *sheetsyncapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *sheetsyncapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.List)
		orders.GET("/:id", h.GetByID)
		orders.PATCH("/:id/status", h.SetStatus)
		orders.DELETE("/:id/status-override", h.ClearStatusOverride)
	}
}

// OrderListQuery represents order list query parameters
type OrderListQuery struct {
	SourceID string `form:"source_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,max=50"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	SortBy   string `form:"sort_by" binding:"omitempty,max=50"`
	SortDir  string `form:"sort_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// SetOrderStatusRequest represents a manual status edit
type SetOrderStatusRequest struct {
	Status string `json:"status" binding:"required,min=1,max=50"`
}

// List returns a page of reconciled orders
func (h *OrderHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query OrderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}
	if query.Page == 0 {
		query.Page = 1
	}
	if query.PageSize == 0 {
		query.PageSize = 50
	}

	req := sheetsyncapp.OrderListRequest{
		Page:     query.Page,
		PageSize: query.PageSize,
		SortBy:   query.SortBy,
		SortDir:  query.SortDir,
	}
	if query.SourceID != "" {
		sourceID, err := uuid.Parse(query.SourceID)
		if err != nil {
			h.BadRequest(c, "Invalid source ID format")
			return
		}
		req.SourceID = &sourceID
	}
	if query.Status != "" {
		req.Status = &query.Status
	}

	orders, total, err := h.orderService.List(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, query.Page, query.PageSize)
}

// GetByID returns a single order
func (h *OrderHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// SetStatus applies a manual status edit. The order keeps this status until
// the override is cleared; sync runs will not touch it.
func (h *OrderHandler) SetStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req SetOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	order, err := h.orderService.SetStatus(c.Request.Context(), tenantID, orderID, req.Status)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// ClearStatusOverride releases a manual status edit
func (h *OrderHandler) ClearStatusOverride(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.ClearStatusOverride(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}
