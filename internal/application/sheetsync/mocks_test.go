package sheetsyncapp

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// MockSourceRepository is a mock implementation of SourceRepository
type MockSourceRepository struct {
	mock.Mock
}

func (m *MockSourceRepository) Save(ctx context.Context, source *sheetsync.SheetSource) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

func (m *MockSourceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sheetsync.SheetSource, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sheetsync.SheetSource), args.Error(1)
}

func (m *MockSourceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]sheetsync.SheetSource, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]sheetsync.SheetSource), args.Error(1)
}

func (m *MockSourceRepository) FindActive(ctx context.Context) ([]sheetsync.SheetSource, error) {
	args := m.Called(ctx)
	return args.Get(0).([]sheetsync.SheetSource), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order *sheetsync.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sheetsync.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sheetsync.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter sheetsync.OrderListFilter) ([]sheetsync.Order, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]sheetsync.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindByRowKeyPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) ([]sheetsync.Order, error) {
	args := m.Called(ctx, tenantID, prefix)
	return args.Get(0).([]sheetsync.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []string) ([]sheetsync.Order, error) {
	args := m.Called(ctx, tenantID, externalIDs)
	return args.Get(0).([]sheetsync.Order), args.Error(1)
}

func (m *MockOrderRepository) UpsertBatch(ctx context.Context, batch []sheetsync.OrderUpsert) (int, int, error) {
	args := m.Called(ctx, batch)
	return args.Int(0), args.Int(1), args.Error(2)
}

// MockSyncLockRepository is a mock implementation of SyncLockRepository
type MockSyncLockRepository struct {
	mock.Mock
}

func (m *MockSyncLockRepository) Acquire(ctx context.Context, lock *sheetsync.SyncLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *MockSyncLockRepository) Release(ctx context.Context, tenantID, sourceID uuid.UUID) error {
	args := m.Called(ctx, tenantID, sourceID)
	return args.Error(0)
}

func (m *MockSyncLockRepository) Find(ctx context.Context, tenantID, sourceID uuid.UUID) (*sheetsync.SyncLock, error) {
	args := m.Called(ctx, tenantID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sheetsync.SyncLock), args.Error(1)
}

// stubFetcher delegates to a function so tests can block or fail at will
type stubFetcher struct {
	fetch func(ctx context.Context, location sheetsync.SheetLocation) (sheetsync.Grid, error)
}

func (f *stubFetcher) Fetch(ctx context.Context, location sheetsync.SheetLocation) (sheetsync.Grid, error) {
	return f.fetch(ctx, location)
}
