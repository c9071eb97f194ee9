package sheetsync

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ordersuite/backend/internal/domain/shared"
)

// SheetLocation identifies a worksheet inside an external spreadsheet.
// The transport used to reach it is the fetcher's concern.
type SheetLocation struct {
	SpreadsheetID string
	SheetName     string
}

// IsZero returns true if the location is empty
func (l SheetLocation) IsZero() bool {
	return l.SpreadsheetID == "" && l.SheetName == ""
}

// SheetSource is a registered external spreadsheet feed for a tenant.
// Operators create and edit sources; the sync run writes back the detected
// schema and last-sync timestamp after each pass. Sources are never deleted
// automatically.
type SheetSource struct {
	shared.TenantEntity
	Name     string
	Location SheetLocation
	Active   bool
	// LastSyncedAt is the completion time of the most recent successful run
	LastSyncedAt *time.Time
	// DetectedHeaders and DetectedMapping are an informational cache of the
	// last run's schema inference. They are re-derived every run and never
	// trusted as ground truth.
	DetectedHeaders []string
	DetectedMapping ColumnMapping
}

// NewSheetSource creates a new sheet source for a tenant
func NewSheetSource(tenantID uuid.UUID, name string, location SheetLocation) (*SheetSource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "source name is required")
	}
	if location.SpreadsheetID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "spreadsheet ID is required")
	}
	return &SheetSource{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		Location:     location,
		Active:       true,
	}, nil
}

// Update changes the operator-editable fields
func (s *SheetSource) Update(name string, location SheetLocation, active bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "source name is required")
	}
	if location.SpreadsheetID == "" {
		return shared.NewDomainError("INVALID_INPUT", "spreadsheet ID is required")
	}
	s.Name = name
	s.Location = location
	s.Active = active
	s.Touch()
	return nil
}

// RecordSyncOutcome persists the schema detected by a completed run and
// stamps the sync time.
func (s *SheetSource) RecordSyncOutcome(headers []string, mapping ColumnMapping, at time.Time) {
	s.DetectedHeaders = headers
	s.DetectedMapping = mapping
	s.LastSyncedAt = &at
	s.Touch()
}

// SourceRepository defines persistence for sheet sources
type SourceRepository interface {
	// Save creates or updates a source
	Save(ctx context.Context, source *SheetSource) error

	// FindByIDForTenant finds a source by ID scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SheetSource, error)

	// FindAllForTenant lists all sources for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]SheetSource, error)

	// FindActive lists active sources across all tenants (scheduler sweep)
	FindActive(ctx context.Context) ([]SheetSource, error)
}
