package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ordersuite/backend/internal/domain/shared"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// setupOrderTestDB creates an in-memory SQLite database for testing
func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			tenant_id TEXT NOT NULL,
			source_id TEXT NOT NULL,
			external_id TEXT NOT NULL,
			row_key TEXT NOT NULL,
			client_name TEXT,
			client_phone TEXT,
			city TEXT,
			address TEXT,
			product TEXT,
			quantity INTEGER NOT NULL DEFAULT 0,
			price NUMERIC NOT NULL DEFAULT 0,
			order_date DATETIME NOT NULL,
			status TEXT NOT NULL,
			status_manual INTEGER NOT NULL DEFAULT 0,
			status_manual_at DATETIME,
			raw_fields TEXT DEFAULT '{}',
			notes TEXT,
			UNIQUE(tenant_id, row_key)
		)
	`).Error
	require.NoError(t, err)

	return db
}

func newTestOrder(tenantID, sourceID uuid.UUID, externalID string, rowIndex int) *sheetsync.Order {
	return &sheetsync.Order{
		TenantEntity: shared.NewTenantEntity(tenantID),
		SourceID:     sourceID,
		ExternalID:   externalID,
		RowKey:       sheetsync.RowKeyFor(sourceID, rowIndex),
		ClientName:   "Ahmed Benali",
		ClientPhone:  "0661234567",
		City:         "Casablanca",
		Product:      "Montre connectée",
		Quantity:     2,
		Price:        decimal.NewFromFloat(499.99),
		OrderDate:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Status:       sheetsync.StatusPending,
		RawFields:    map[string]string{"Couleur": "Rouge"},
	}
}

func TestGormOrderRepository_SaveAndFind(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	order := newTestOrder(tenantID, uuid.New(), "CMD-1", 1)
	require.NoError(t, repo.Save(ctx, order))

	found, err := repo.FindByIDForTenant(ctx, tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "CMD-1", found.ExternalID)
	assert.Equal(t, order.RowKey, found.RowKey)
	assert.Equal(t, "Ahmed Benali", found.ClientName)
	assert.Equal(t, 2, found.Quantity)
	assert.True(t, found.Price.Equal(decimal.NewFromFloat(499.99)), "price was %s", found.Price)
	assert.Equal(t, sheetsync.StatusPending, found.Status)
	assert.Equal(t, map[string]string{"Couleur": "Rouge"}, found.RawFields)

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_FindAllForTenant(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	sourceA := uuid.New()
	sourceB := uuid.New()

	first := newTestOrder(tenantID, sourceA, "CMD-1", 1)
	second := newTestOrder(tenantID, sourceA, "CMD-2", 2)
	second.Status = sheetsync.StatusDelivered
	third := newTestOrder(tenantID, sourceB, "CMD-3", 1)
	third.Status = sheetsync.StatusDelivered

	for _, o := range []*sheetsync.Order{first, second, third} {
		require.NoError(t, repo.Save(ctx, o))
	}

	t.Run("no filter returns everything", func(t *testing.T) {
		orders, total, err := repo.FindAllForTenant(ctx, tenantID, sheetsync.OrderListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, orders, 3)
	})

	t.Run("filter by source", func(t *testing.T) {
		orders, total, err := repo.FindAllForTenant(ctx, tenantID, sheetsync.OrderListFilter{SourceID: &sourceB})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, orders, 1)
		assert.Equal(t, "CMD-3", orders[0].ExternalID)
	})

	t.Run("filter by status", func(t *testing.T) {
		delivered := sheetsync.StatusDelivered
		_, total, err := repo.FindAllForTenant(ctx, tenantID, sheetsync.OrderListFilter{Status: &delivered})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("pagination", func(t *testing.T) {
		orders, total, err := repo.FindAllForTenant(ctx, tenantID, sheetsync.OrderListFilter{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, orders, 1)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		orders, total, err := repo.FindAllForTenant(ctx, uuid.New(), sheetsync.OrderListFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, orders)
	})
}

func TestGormOrderRepository_FindByRowKeyPrefix(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	sourceA := uuid.New()
	sourceB := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestOrder(tenantID, sourceA, "CMD-1", 1)))
	require.NoError(t, repo.Save(ctx, newTestOrder(tenantID, sourceA, "CMD-2", 2)))
	require.NoError(t, repo.Save(ctx, newTestOrder(tenantID, sourceB, "CMD-3", 1)))

	orders, err := repo.FindByRowKeyPrefix(ctx, tenantID, sheetsync.RowKeyPrefix(sourceA))
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestGormOrderRepository_FindByExternalIDs(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	sourceID := uuid.New()
	require.NoError(t, repo.Save(ctx, newTestOrder(tenantID, sourceID, "CMD-1", 1)))
	require.NoError(t, repo.Save(ctx, newTestOrder(tenantID, sourceID, "CMD-2", 2)))

	orders, err := repo.FindByExternalIDs(ctx, tenantID, []string{"CMD-1", "CMD-404"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "CMD-1", orders[0].ExternalID)

	orders, err = repo.FindByExternalIDs(ctx, tenantID, nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestGormOrderRepository_UpsertBatch_InsertThenUpdate(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	sourceID := uuid.New()

	first := newTestOrder(tenantID, sourceID, "CMD-1", 1)
	inserted, updated, err := repo.UpsertBatch(ctx, []sheetsync.OrderUpsert{
		{Order: first, Key: sheetsync.FilterByExternalID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Zero(t, updated)

	// Same identity again with changed payload: one update, no new row
	next := newTestOrder(tenantID, sourceID, "CMD-1", 1)
	next.City = "Rabat"
	next.Status = sheetsync.StatusShipped
	inserted, updated, err = repo.UpsertBatch(ctx, []sheetsync.OrderUpsert{
		{Order: next, Key: sheetsync.FilterByExternalID},
	})
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Equal(t, 1, updated)

	_, total, err := repo.FindAllForTenant(ctx, tenantID, sheetsync.OrderListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	found, err := repo.FindByIDForTenant(ctx, tenantID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rabat", found.City)
	assert.Equal(t, sheetsync.StatusShipped, found.Status)
}

func TestGormOrderRepository_UpsertBatch_SkipStatusPreservesManualEdit(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	sourceID := uuid.New()

	existing := newTestOrder(tenantID, sourceID, "CMD-1", 1)
	require.NoError(t, existing.SetStatusManually("negotiating"))
	require.NoError(t, repo.Save(ctx, existing))

	incoming := newTestOrder(tenantID, sourceID, "CMD-1", 1)
	incoming.Status = sheetsync.StatusDelivered
	incoming.City = "Tanger"

	matchID := existing.ID
	_, updated, err := repo.UpsertBatch(ctx, []sheetsync.OrderUpsert{
		{Order: incoming, Key: sheetsync.FilterByExternalID, MatchID: &matchID, SkipStatus: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	found, err := repo.FindByIDForTenant(ctx, tenantID, existing.ID)
	require.NoError(t, err)
	// Other fields refresh, the manual status survives
	assert.Equal(t, "Tanger", found.City)
	assert.Equal(t, sheetsync.OrderStatus("negotiating"), found.Status)
	assert.True(t, found.StatusManual)
	assert.NotNil(t, found.StatusManualAt)
}

func TestGormOrderRepository_UpsertBatch_ReKeysWhenExternalIDAppears(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	sourceID := uuid.New()

	// Previously synced without an order number
	existing := newTestOrder(tenantID, sourceID, "Shop-R1", 1)
	require.NoError(t, repo.Save(ctx, existing))

	incoming := newTestOrder(tenantID, sourceID, "CMD-900", 1)
	matchID := existing.ID
	inserted, updated, err := repo.UpsertBatch(ctx, []sheetsync.OrderUpsert{
		{Order: incoming, Key: sheetsync.FilterByExternalID, MatchID: &matchID},
	})
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Equal(t, 1, updated)

	found, err := repo.FindByIDForTenant(ctx, tenantID, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "CMD-900", found.ExternalID)

	_, total, err := repo.FindAllForTenant(ctx, tenantID, sheetsync.OrderListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestGormOrderRepository_UpsertBatch_Empty(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)

	inserted, updated, err := repo.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Zero(t, updated)
}
