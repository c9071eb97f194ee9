package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sheetsyncapp "github.com/ordersuite/backend/internal/application/sheetsync"
)

// SheetSourceHandler handles sheet source registry endpoints
type SheetSourceHandler struct {
	BaseHandler
	sourceService *sheetsyncapp.SourceService
}

// NewSheetSourceHandler creates a new SheetSourceHandler
func NewSheetSourceHandler(sourceService *sheetsyncapp.SourceService) *SheetSourceHandler {
	return &SheetSourceHandler{sourceService: sourceService}
}

// RegisterRoutes registers sheet source routes
func (h *SheetSourceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sources := rg.Group("/sheet-sources")
	{
		sources.POST("", h.Create)
		sources.GET("", h.List)
		sources.GET("/:id", h.GetByID)
		sources.PUT("/:id", h.Update)
	}
}

// CreateSheetSourceRequest represents a request to register a sheet source
type CreateSheetSourceRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=100"`
	SpreadsheetID string `json:"spreadsheet_id" binding:"required,min=1,max=200"`
	SheetName     string `json:"sheet_name" binding:"max=100"`
}

// UpdateSheetSourceRequest represents a request to edit a sheet source
type UpdateSheetSourceRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=100"`
	SpreadsheetID string `json:"spreadsheet_id" binding:"required,min=1,max=200"`
	SheetName     string `json:"sheet_name" binding:"max=100"`
	Active        bool   `json:"active"`
}

// Create registers a new sheet source for the tenant
func (h *SheetSourceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateSheetSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	source, err := h.sourceService.Create(c.Request.Context(), tenantID, sheetsyncapp.CreateSourceRequest{
		Name:          req.Name,
		SpreadsheetID: req.SpreadsheetID,
		SheetName:     req.SheetName,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, source)
}

// List returns all sheet sources of the tenant
func (h *SheetSourceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	sources, err := h.sourceService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sources)
}

// GetByID returns a single sheet source
func (h *SheetSourceHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid source ID format")
		return
	}

	source, err := h.sourceService.GetByID(c.Request.Context(), tenantID, sourceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, source)
}

// Update edits a sheet source
func (h *SheetSourceHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid source ID format")
		return
	}

	var req UpdateSheetSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	source, err := h.sourceService.Update(c.Request.Context(), tenantID, sourceID, sheetsyncapp.UpdateSourceRequest{
		Name:          req.Name,
		SpreadsheetID: req.SpreadsheetID,
		SheetName:     req.SheetName,
		Active:        req.Active,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, source)
}
