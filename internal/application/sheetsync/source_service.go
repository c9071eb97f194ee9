package sheetsyncapp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// CreateSourceRequest is the payload for registering a new sheet source
type CreateSourceRequest struct {
	Name          string `json:"name"`
	SpreadsheetID string `json:"spreadsheet_id"`
	SheetName     string `json:"sheet_name"`
}

// UpdateSourceRequest is the payload for editing a sheet source
type UpdateSourceRequest struct {
	Name          string `json:"name"`
	SpreadsheetID string `json:"spreadsheet_id"`
	SheetName     string `json:"sheet_name"`
	Active        bool   `json:"active"`
}

// SourceResponse is the API representation of a sheet source
type SourceResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	SpreadsheetID string     `json:"spreadsheet_id"`
	SheetName     string     `json:"sheet_name"`
	Active        bool       `json:"active"`
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
	// DetectedHeaders and DetectedMapping reflect the last completed run's
	// schema inference
	DetectedHeaders []string          `json:"detected_headers,omitempty"`
	DetectedMapping map[string]int    `json:"detected_mapping,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// SourceService manages the sheet source registry
type SourceService struct {
	sources sheetsync.SourceRepository
	logger  *zap.Logger
}

// NewSourceService creates a new source service
func NewSourceService(sources sheetsync.SourceRepository, logger *zap.Logger) *SourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SourceService{sources: sources, logger: logger}
}

// Create registers a new sheet source for a tenant
func (s *SourceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSourceRequest) (*SourceResponse, error) {
	source, err := sheetsync.NewSheetSource(tenantID, req.Name, sheetsync.SheetLocation{
		SpreadsheetID: req.SpreadsheetID,
		SheetName:     req.SheetName,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sources.Save(ctx, source); err != nil {
		return nil, err
	}

	s.logger.Info("Sheet source registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("source_id", source.ID.String()),
		zap.String("name", source.Name),
	)

	return toSourceResponse(source), nil
}

// Update edits an existing source
func (s *SourceService) Update(ctx context.Context, tenantID, sourceID uuid.UUID, req UpdateSourceRequest) (*SourceResponse, error) {
	source, err := s.sources.FindByIDForTenant(ctx, tenantID, sourceID)
	if err != nil {
		return nil, err
	}

	if err := source.Update(req.Name, sheetsync.SheetLocation{
		SpreadsheetID: req.SpreadsheetID,
		SheetName:     req.SheetName,
	}, req.Active); err != nil {
		return nil, err
	}

	if err := s.sources.Save(ctx, source); err != nil {
		return nil, err
	}

	return toSourceResponse(source), nil
}

// GetByID retrieves a single source
func (s *SourceService) GetByID(ctx context.Context, tenantID, sourceID uuid.UUID) (*SourceResponse, error) {
	source, err := s.sources.FindByIDForTenant(ctx, tenantID, sourceID)
	if err != nil {
		return nil, err
	}
	return toSourceResponse(source), nil
}

// List returns all sources of a tenant
func (s *SourceService) List(ctx context.Context, tenantID uuid.UUID) ([]SourceResponse, error) {
	sources, err := s.sources.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]SourceResponse, 0, len(sources))
	for i := range sources {
		responses = append(responses, *toSourceResponse(&sources[i]))
	}
	return responses, nil
}

func toSourceResponse(source *sheetsync.SheetSource) *SourceResponse {
	resp := &SourceResponse{
		ID:              source.ID,
		Name:            source.Name,
		SpreadsheetID:   source.Location.SpreadsheetID,
		SheetName:       source.Location.SheetName,
		Active:          source.Active,
		LastSyncedAt:    source.LastSyncedAt,
		DetectedHeaders: source.DetectedHeaders,
		CreatedAt:       source.CreatedAt,
		UpdatedAt:       source.UpdatedAt,
	}
	if len(source.DetectedMapping) > 0 {
		resp.DetectedMapping = make(map[string]int, len(source.DetectedMapping))
		for field, col := range source.DetectedMapping {
			resp.DetectedMapping[string(field)] = col
		}
	}
	return resp
}
