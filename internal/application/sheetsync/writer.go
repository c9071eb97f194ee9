package sheetsyncapp

import (
	"context"

	"go.uber.org/zap"

	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// ReconciliationWriter turns a run's resolved rows into one batched upsert.
// The manual-status check lives here rather than in the repository so the
// decision is made against the resolver's existing-record match, not against
// whatever the database holds at write time.
type ReconciliationWriter struct {
	orders sheetsync.OrderRepository
	logger *zap.Logger
}

// NewReconciliationWriter creates a writer over the order repository
func NewReconciliationWriter(orders sheetsync.OrderRepository, logger *zap.Logger) *ReconciliationWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationWriter{orders: orders, logger: logger}
}

// Write persists the resolved rows in one transaction and returns insert and
// update counts. A row whose existing match carries a manual status override
// is written with the status stripped from its update payload.
func (w *ReconciliationWriter) Write(ctx context.Context, rows []*ResolvedRow) (inserted, updated int, err error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	batch := make([]sheetsync.OrderUpsert, 0, len(rows))
	protected := 0
	for _, row := range rows {
		up := sheetsync.OrderUpsert{Order: row.Order, Key: row.Key}
		if row.Existing != nil {
			matchID := row.Existing.ID
			up.MatchID = &matchID
			if row.Existing.StatusManual {
				up.SkipStatus = true
				protected++
			}
		}
		batch = append(batch, up)
	}

	inserted, updated, err = w.orders.UpsertBatch(ctx, batch)
	if err != nil {
		return 0, 0, err
	}
	if protected > 0 {
		w.logger.Debug("preserved manually set statuses during sync",
			zap.Int("count", protected))
	}
	return inserted, updated, nil
}
