package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ordersuite/backend/internal/domain/shared"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
	"github.com/ordersuite/backend/internal/infrastructure/persistence/models"
)

// GormSheetSourceRepository implements SourceRepository using GORM
type GormSheetSourceRepository struct {
	db *gorm.DB
}

// NewGormSheetSourceRepository creates a new GormSheetSourceRepository
func NewGormSheetSourceRepository(db *gorm.DB) *GormSheetSourceRepository {
	return &GormSheetSourceRepository{db: db}
}

// Save creates or updates a sheet source
func (r *GormSheetSourceRepository) Save(ctx context.Context, source *sheetsync.SheetSource) error {
	model := models.SheetSourceModelFromDomain(source)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByIDForTenant finds a source by ID scoped to a tenant
func (r *GormSheetSourceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sheetsync.SheetSource, error) {
	var model models.SheetSourceModel
	if err := r.db.WithContext(ctx).
		First(&model, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists all sources for a tenant
func (r *GormSheetSourceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]sheetsync.SheetSource, error) {
	var sourceModels []models.SheetSourceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&sourceModels).Error; err != nil {
		return nil, err
	}
	sources := make([]sheetsync.SheetSource, len(sourceModels))
	for i, model := range sourceModels {
		sources[i] = *model.ToDomain()
	}
	return sources, nil
}

// FindActive lists active sources across all tenants
func (r *GormSheetSourceRepository) FindActive(ctx context.Context) ([]sheetsync.SheetSource, error) {
	var sourceModels []models.SheetSourceModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&sourceModels).Error; err != nil {
		return nil, err
	}
	sources := make([]sheetsync.SheetSource, len(sourceModels))
	for i, model := range sourceModels {
		sources[i] = *model.ToDomain()
	}
	return sources, nil
}

// Ensure GormSheetSourceRepository implements SourceRepository
var _ sheetsync.SourceRepository = (*GormSheetSourceRepository)(nil)
