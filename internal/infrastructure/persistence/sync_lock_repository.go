package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ordersuite/backend/internal/domain/shared"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
	"github.com/ordersuite/backend/internal/infrastructure/persistence/models"
)

// GormSyncLockRepository implements SyncLockRepository using GORM
type GormSyncLockRepository struct {
	db *gorm.DB
}

// NewGormSyncLockRepository creates a new GormSyncLockRepository
func NewGormSyncLockRepository(db *gorm.DB) *GormSyncLockRepository {
	return &GormSyncLockRepository{db: db}
}

// Acquire takes the lock for (tenant, source). An expired holder is cleared
// first; a conflicting insert means a live holder exists, reported as
// SyncBusyError with its remaining TTL. The unique index on
// (tenant_id, source_id) makes the insert the only arbiter, never a
// read-modify-write.
func (r *GormSyncLockRepository) Acquire(ctx context.Context, lock *sheetsync.SyncLock) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("tenant_id = ? AND source_id = ? AND expires_at <= ?", lock.TenantID, lock.SourceID, now).
			Delete(&models.SyncLockModel{}).Error; err != nil {
			return err
		}

		model := models.SyncLockModelFromDomain(lock)
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "source_id"}},
			DoNothing: true,
		}).Create(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var holder models.SyncLockModel
			if err := tx.First(&holder, "tenant_id = ? AND source_id = ?", lock.TenantID, lock.SourceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Holder vanished between insert and read
					return shared.ErrConcurrencyConflict
				}
				return err
			}
			return &sheetsync.SyncBusyError{RetryAfter: time.Until(holder.ExpiresAt)}
		}
		return nil
	})
}

// Release deletes the lock for the key, regardless of holder. Releasing an
// absent lock is not an error.
func (r *GormSyncLockRepository) Release(ctx context.Context, tenantID, sourceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_id = ?", tenantID, sourceID).
		Delete(&models.SyncLockModel{}).Error
}

// Find returns the current lock for the key
func (r *GormSyncLockRepository) Find(ctx context.Context, tenantID, sourceID uuid.UUID) (*sheetsync.SyncLock, error) {
	var model models.SyncLockModel
	if err := r.db.WithContext(ctx).
		First(&model, "tenant_id = ? AND source_id = ?", tenantID, sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormSyncLockRepository implements SyncLockRepository
var _ sheetsync.SyncLockRepository = (*GormSyncLockRepository)(nil)
