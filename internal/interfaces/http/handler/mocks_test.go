package handler

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ordersuite/backend/internal/domain/sheetsync"
	"github.com/ordersuite/backend/internal/interfaces/http/middleware"
	"github.com/ordersuite/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter mounts a handler under /api/v1 behind the tenant middleware,
// the way the server wires it
func newTestRouter(registrar router.RouteRegistrar) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TenantMiddleware())
	router.NewRouter(engine).Register(registrar).Setup()
	return engine
}

func doRequest(engine *gin.Engine, req *http.Request, tenantID uuid.UUID) *httptest.ResponseRecorder {
	req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	if req.Body != nil && req.Method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// mockSourceRepository is a mock implementation of sheetsync.SourceRepository
type mockSourceRepository struct {
	mock.Mock
}

func (m *mockSourceRepository) Save(ctx context.Context, source *sheetsync.SheetSource) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

func (m *mockSourceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sheetsync.SheetSource, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sheetsync.SheetSource), args.Error(1)
}

func (m *mockSourceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]sheetsync.SheetSource, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sheetsync.SheetSource), args.Error(1)
}

func (m *mockSourceRepository) FindActive(ctx context.Context) ([]sheetsync.SheetSource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sheetsync.SheetSource), args.Error(1)
}

// mockOrderRepository is a mock implementation of sheetsync.OrderRepository
type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Save(ctx context.Context, order *sheetsync.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sheetsync.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sheetsync.Order), args.Error(1)
}

func (m *mockOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter sheetsync.OrderListFilter) ([]sheetsync.Order, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]sheetsync.Order), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderRepository) FindByRowKeyPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) ([]sheetsync.Order, error) {
	args := m.Called(ctx, tenantID, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sheetsync.Order), args.Error(1)
}

func (m *mockOrderRepository) FindByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []string) ([]sheetsync.Order, error) {
	args := m.Called(ctx, tenantID, externalIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sheetsync.Order), args.Error(1)
}

func (m *mockOrderRepository) UpsertBatch(ctx context.Context, batch []sheetsync.OrderUpsert) (int, int, error) {
	args := m.Called(ctx, batch)
	return args.Int(0), args.Int(1), args.Error(2)
}

// mockSyncLockRepository is a mock implementation of sheetsync.SyncLockRepository
type mockSyncLockRepository struct {
	mock.Mock
}

func (m *mockSyncLockRepository) Acquire(ctx context.Context, lock *sheetsync.SyncLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *mockSyncLockRepository) Release(ctx context.Context, tenantID, sourceID uuid.UUID) error {
	args := m.Called(ctx, tenantID, sourceID)
	return args.Error(0)
}

func (m *mockSyncLockRepository) Find(ctx context.Context, tenantID, sourceID uuid.UUID) (*sheetsync.SyncLock, error) {
	args := m.Called(ctx, tenantID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sheetsync.SyncLock), args.Error(1)
}

// stubFetcher delegates to a function so tests control the fetched grid
type stubFetcher struct {
	fetch func(ctx context.Context, location sheetsync.SheetLocation) (sheetsync.Grid, error)
}

func (f *stubFetcher) Fetch(ctx context.Context, location sheetsync.SheetLocation) (sheetsync.Grid, error) {
	return f.fetch(ctx, location)
}
