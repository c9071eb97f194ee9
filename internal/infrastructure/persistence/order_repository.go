package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ordersuite/backend/internal/domain/shared"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
	"github.com/ordersuite/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save creates or updates a single order
func (r *GormOrderRepository) Save(ctx context.Context, order *sheetsync.Order) error {
	model := models.OrderModelFromDomain(order)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByIDForTenant finds an order by ID scoped to a tenant
func (r *GormOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sheetsync.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		First(&model, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists orders with filtering and pagination
func (r *GormOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter sheetsync.OrderListFilter) ([]sheetsync.Order, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	sortField := ValidateSortField(filter.SortBy, OrderSortFields, "order_date")
	sortDir := ValidateSortOrder(filter.SortDir)

	var orderModels []models.OrderModel
	if err := query.
		Order(sortField + " " + sortDir).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]sheetsync.Order, len(orderModels))
	for i, model := range orderModels {
		orders[i] = *model.ToDomain()
	}
	return orders, total, nil
}

// FindByRowKeyPrefix loads all orders whose row key belongs to a source
func (r *GormOrderRepository) FindByRowKeyPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) ([]sheetsync.Order, error) {
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND row_key LIKE ?", tenantID, prefix+"%").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]sheetsync.Order, len(orderModels))
	for i, model := range orderModels {
		orders[i] = *model.ToDomain()
	}
	return orders, nil
}

// FindByExternalIDs loads orders matching any of the given external IDs,
// tenant-wide
func (r *GormOrderRepository) FindByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []string) ([]sheetsync.Order, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id IN ?", tenantID, externalIDs).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]sheetsync.Order, len(orderModels))
	for i, model := range orderModels {
		orders[i] = *model.ToDomain()
	}
	return orders, nil
}

// UpsertBatch executes a run's accumulated writes in one transaction:
// update the record matching each upsert's filter, insert when absent.
// Updates never touch status_manual or status_manual_at, and skip status
// entirely when the upsert says so.
func (r *GormOrderRepository) UpsertBatch(ctx context.Context, batch []sheetsync.OrderUpsert) (int, int, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}

	inserted, updated := 0, 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, up := range batch {
			filtered := tx.Model(&models.OrderModel{}).
				Where("tenant_id = ?", up.Order.TenantID)
			switch {
			case up.MatchID != nil:
				filtered = filtered.Where("id = ?", *up.MatchID)
			case up.Key == sheetsync.FilterByExternalID:
				filtered = filtered.Where("external_id = ?", up.Order.ExternalID)
			default:
				filtered = filtered.Where("row_key = ?", up.Order.RowKey)
			}

			values := orderUpdateValues(up)
			result := filtered.Updates(values)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				updated++
				continue
			}

			if err := tx.Create(models.OrderModelFromDomain(up.Order)).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

// orderUpdateValues builds the update payload for one upsert. Both identity
// columns are written so a record matched by row key picks up a newly
// appeared external ID and vice versa.
func orderUpdateValues(up sheetsync.OrderUpsert) map[string]any {
	o := up.Order
	values := map[string]any{
		"source_id":    o.SourceID,
		"external_id":  o.ExternalID,
		"row_key":      o.RowKey,
		"client_name":  o.ClientName,
		"client_phone": o.ClientPhone,
		"city":         o.City,
		"address":      o.Address,
		"product":      o.Product,
		"quantity":     o.Quantity,
		"price":        o.Price,
		"order_date":   o.OrderDate,
		"notes":        o.Notes,
		"raw_fields":   models.OrderModelFromDomain(o).RawFieldsJSON,
		"updated_at":   time.Now(),
	}
	if !up.SkipStatus {
		values["status"] = string(o.Status)
	}
	return values
}

// Ensure GormOrderRepository implements OrderRepository
var _ sheetsync.OrderRepository = (*GormOrderRepository)(nil)
