package sheetsync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ordersuite/backend/internal/domain/shared"
)

// DefaultLockTTL bounds how long a crashed run can block its (tenant,
// source) key before the next acquire treats the lock as free.
const DefaultLockTTL = 2 * time.Minute

// SyncLock is the mutual-exclusion record for one (tenant, source) pair.
// It is created at run start and deleted on every exit path; an expired lock
// is reclaimed lazily by the next acquire attempt.
type SyncLock struct {
	shared.TenantEntity
	SourceID  uuid.UUID
	RunID     uuid.UUID
	ExpiresAt time.Time
}

// NewSyncLock creates a lock held by the given run with a fixed TTL
func NewSyncLock(tenantID, sourceID, runID uuid.UUID, ttl time.Duration) *SyncLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &SyncLock{
		TenantEntity: shared.NewTenantEntity(tenantID),
		SourceID:     sourceID,
		RunID:        runID,
		ExpiresAt:    time.Now().Add(ttl),
	}
}

// IsExpired returns true once the TTL has elapsed
func (l *SyncLock) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}

// Remaining returns the time until expiry, negative once expired
func (l *SyncLock) Remaining() time.Duration {
	return time.Until(l.ExpiresAt)
}

// SyncBusyError signals that a non-expired lock is already held for the
// key. RetryAfter is the held lock's remaining TTL, for client backoff.
type SyncBusyError struct {
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *SyncBusyError) Error() string {
	return fmt.Sprintf("sync already running, retry after %ds", int(e.RetryAfter.Seconds()+0.5))
}

// SyncLockRepository defines persistence for sync locks. Acquire must be
// atomic: a conditional insert that first clears an expired holder, never a
// read-modify-write.
type SyncLockRepository interface {
	// Acquire creates the lock, reclaiming an expired one if present.
	// Returns *SyncBusyError when a live lock is held for the key.
	Acquire(ctx context.Context, lock *SyncLock) error

	// Release deletes the lock for the key, regardless of holder
	Release(ctx context.Context, tenantID, sourceID uuid.UUID) error

	// Find returns the current lock for the key, or shared.ErrNotFound
	Find(ctx context.Context, tenantID, sourceID uuid.UUID) (*SyncLock, error)
}
