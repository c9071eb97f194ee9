package sheetsyncapp

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ordersuite/backend/internal/domain/shared"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// progressEvery is the row interval between parsing progress events
const progressEvery = 50

// SyncService orchestrates sync runs: one detached pipeline per (tenant,
// source), guarded by the persistent sync lock and observable through the
// progress broker.
type SyncService struct {
	sources sheetsync.SourceRepository
	orders  sheetsync.OrderRepository
	locks   sheetsync.SyncLockRepository
	fetcher sheetsync.SheetFetcher
	broker  *ProgressBroker
	logger  *zap.Logger
	lockTTL time.Duration

	mu   sync.Mutex
	runs map[topicKey]context.CancelFunc
}

// SyncServiceOption customizes the service
type SyncServiceOption func(*SyncService)

// WithLockTTL overrides the sync lock TTL
func WithLockTTL(ttl time.Duration) SyncServiceOption {
	return func(s *SyncService) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// NewSyncService creates the sync orchestrator
func NewSyncService(
	sources sheetsync.SourceRepository,
	orders sheetsync.OrderRepository,
	locks sheetsync.SyncLockRepository,
	fetcher sheetsync.SheetFetcher,
	broker *ProgressBroker,
	logger *zap.Logger,
	opts ...SyncServiceOption,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SyncService{
		sources: sources,
		orders:  orders,
		locks:   locks,
		fetcher: fetcher,
		broker:  broker,
		logger:  logger,
		lockTTL: sheetsync.DefaultLockTTL,
		runs:    make(map[topicKey]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSync validates the source, takes the sync lock and launches the run
// pipeline in the background. Returns *sheetsync.SyncBusyError when another
// run holds the lock.
func (s *SyncService) StartSync(ctx context.Context, tenantID, sourceID uuid.UUID) (*SyncAccepted, error) {
	source, err := s.sources.FindByIDForTenant(ctx, tenantID, sourceID)
	if err != nil {
		return nil, err
	}
	if !source.Active {
		return nil, shared.NewDomainError(sheetsync.CodeSourceInactive, "source is deactivated")
	}

	runID := uuid.New()
	lock := sheetsync.NewSyncLock(tenantID, sourceID, runID, s.lockTTL)
	if err := s.locks.Acquire(ctx, lock); err != nil {
		return nil, err
	}

	// The run outlives the HTTP request that started it
	runCtx, cancel := context.WithCancel(context.Background())
	key := topicKey{tenantID: tenantID, sourceID: sourceID}
	s.mu.Lock()
	s.runs[key] = cancel
	s.mu.Unlock()

	go s.run(runCtx, runID, source)

	s.logger.Info("sync run started",
		zap.String("run_id", runID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("source_id", sourceID.String()))

	return &SyncAccepted{RunID: runID, TenantID: tenantID, SourceID: sourceID}, nil
}

// CancelSync requests a cooperative abort of the running sync for the key.
// The run notices at its next checkpoint; rows already written stay written.
func (s *SyncService) CancelSync(_ context.Context, tenantID, sourceID uuid.UUID) error {
	s.mu.Lock()
	cancel, ok := s.runs[topicKey{tenantID: tenantID, sourceID: sourceID}]
	s.mu.Unlock()
	if !ok {
		return shared.NewDomainError("NO_ACTIVE_SYNC", "no sync run is active for this source")
	}
	cancel()
	return nil
}

// Subscribe attaches a progress listener for the source's current or next run
func (s *SyncService) Subscribe(tenantID, sourceID uuid.UUID) (<-chan ProgressEvent, func()) {
	return s.broker.Subscribe(tenantID, sourceID)
}

// run is the sync pipeline. It owns the lock taken by StartSync and releases
// it on every exit path; the terminal progress event is always published.
func (s *SyncService) run(ctx context.Context, runID uuid.UUID, source *sheetsync.SheetSource) {
	key := topicKey{tenantID: source.TenantID, sourceID: source.ID}
	result := &SyncResult{
		RunID:     runID,
		TenantID:  source.TenantID,
		SourceID:  source.ID,
		StartedAt: time.Now(),
	}

	defer func() {
		s.mu.Lock()
		delete(s.runs, key)
		s.mu.Unlock()

		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer releaseCancel()
		if err := s.locks.Release(releaseCtx, source.TenantID, source.ID); err != nil {
			s.logger.Error("failed to release sync lock",
				zap.String("source_id", source.ID.String()), zap.Error(err))
		}

		result.FinishedAt = time.Now()
		s.broker.Publish(ProgressEvent{
			RunID:     runID,
			TenantID:  source.TenantID,
			SourceID:  source.ID,
			Stage:     result.State,
			Done:      result.TotalRows,
			Total:     result.TotalRows,
			Message:   result.Error,
			Completed: true,
			Result:    result,
		})
		s.logger.Info("sync run finished",
			zap.String("run_id", runID.String()),
			zap.String("state", string(result.State)),
			zap.Int("inserted", result.Inserted),
			zap.Int("updated", result.Updated))
	}()

	err := s.execute(ctx, runID, source, result)
	var fetchErr *sheetsync.FetchError
	switch {
	case err == nil:
		result.State = RunStateDone
	case errors.Is(err, sheetsync.ErrRunCancelled) || errors.Is(err, context.Canceled):
		result.State = RunStateAborted
		result.ErrorCode = sheetsync.CodeSyncCancelled
		result.Error = sheetsync.ErrRunCancelled.Error()
	case errors.As(err, &fetchErr):
		result.State = RunStateFailed
		result.ErrorCode = sheetsync.CodeFetchFailed
		result.Error = err.Error()
		s.logger.Error("sync run failed",
			zap.String("run_id", runID.String()), zap.Error(err))
	default:
		result.State = RunStateFailed
		result.Error = err.Error()
		s.logger.Error("sync run failed",
			zap.String("run_id", runID.String()), zap.Error(err))
	}
}

func (s *SyncService) execute(ctx context.Context, runID uuid.UUID, source *sheetsync.SheetSource, result *SyncResult) error {
	if err := checkpoint(ctx); err != nil {
		return err
	}

	s.publish(ctx, runID, source, RunStateFetching, 0, 0, "fetching sheet")
	if err := checkpoint(ctx); err != nil {
		return err
	}
	grid, err := s.fetcher.Fetch(ctx, source.Location)
	if err != nil {
		return &sheetsync.FetchError{Err: err}
	}
	if len(grid) == 0 {
		// Nothing to reconcile, but the run succeeded: the sync stamp still
		// moves and the previously detected schema is left in place
		s.publish(ctx, runID, source, RunStateFinalizing, 0, 0, "recording outcome")
		s.recordOutcome(context.WithoutCancel(ctx), source, source.DetectedHeaders, source.DetectedMapping)
		return nil
	}

	headers := grid.HeaderStrings()
	mapping := sheetsync.InferSchema(headers)
	dataRows := grid[1:]
	dataStart := 1
	if grid.IsHeaderless() {
		// A blank header row means row 0 is data: nothing maps, every row
		// keeps its row-key identity and a placeholder external ID
		headers = nil
		mapping = sheetsync.ColumnMapping{}
		dataRows = grid
		dataStart = 0
	}
	result.UnmappedColumns = unmappedColumns(headers, mapping)
	result.TotalRows = len(dataRows)

	s.publish(ctx, runID, source, RunStateParsing, 0, len(dataRows), "resolving rows")
	resolver, err := s.buildResolver(ctx, source, dataRows, mapping)
	if err != nil {
		return err
	}

	now := time.Now()
	resolved := make([]*ResolvedRow, 0, len(dataRows))
	for i, row := range dataRows {
		// Sheet row number: data starts right after the header row, or on
		// row zero for a headerless grid
		rowIndex := i + dataStart
		if rr, ok := resolver.Resolve(rowIndex, row, headers, mapping, now); ok {
			resolved = append(resolved, rr)
		}
		if (i+1)%progressEvery == 0 {
			s.publish(ctx, runID, source, RunStateParsing, i+1, len(dataRows), "resolving rows")
		}
	}
	result.SkippedDuplicates = resolver.SkippedDuplicates()

	if err := checkpoint(ctx); err != nil {
		return err
	}

	// Last checkpoint passed: from here the run completes even if a cancel
	// arrives, so the batch in flight is never torn down mid-transaction
	writeCtx := context.WithoutCancel(ctx)

	s.publish(ctx, runID, source, RunStateWriting, len(dataRows), len(dataRows), "writing orders")
	classifier := resolver.classifier
	writer := NewReconciliationWriter(s.orders, s.logger)
	inserted, updated, err := writer.Write(writeCtx, resolved)
	if err != nil {
		return err
	}
	result.Inserted = inserted
	result.Updated = updated
	result.UnrecognizedStatusCount = classifier.UnrecognizedCount()
	result.UnrecognizedStatuses = classifier.UnrecognizedValues()

	s.publish(ctx, runID, source, RunStateFinalizing, len(dataRows), len(dataRows), "recording outcome")
	s.recordOutcome(writeCtx, source, headers, mapping)
	return nil
}

// recordOutcome writes the detected schema and sync stamp back to the source.
// The orders are already written by the time this runs, so a failure here is
// logged, not raised.
func (s *SyncService) recordOutcome(ctx context.Context, source *sheetsync.SheetSource, headers []string, mapping sheetsync.ColumnMapping) {
	source.RecordSyncOutcome(headers, mapping, time.Now())
	if err := s.sources.Save(ctx, source); err != nil {
		s.logger.Warn("failed to record sync outcome on source",
			zap.String("source_id", source.ID.String()), zap.Error(err))
	}
}

// buildResolver pre-loads the two existing-record indexes: this source's rows
// by row key, and the tenant's orders matching any external ID seen in the
// mapped order-id column.
func (s *SyncService) buildResolver(ctx context.Context, source *sheetsync.SheetSource, dataRows [][]sheetsync.Cell, mapping sheetsync.ColumnMapping) (*RowResolver, error) {
	byRowKey, err := s.orders.FindByRowKeyPrefix(ctx, source.TenantID, sheetsync.RowKeyPrefix(source.ID))
	if err != nil {
		return nil, err
	}

	var byExternalID []sheetsync.Order
	if col, ok := mapping.Column(sheetsync.FieldOrderID); ok {
		ids := make([]string, 0, len(dataRows))
		seen := make(map[string]struct{})
		for _, row := range dataRows {
			if col >= len(row) {
				continue
			}
			id := row[col].StringValue()
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			byExternalID, err = s.orders.FindByExternalIDs(ctx, source.TenantID, ids)
			if err != nil {
				return nil, err
			}
		}
	}

	return NewRowResolver(source, sheetsync.NewStatusClassifier(), byRowKey, byExternalID), nil
}

func (s *SyncService) publish(_ context.Context, runID uuid.UUID, source *sheetsync.SheetSource, stage RunState, done, total int, message string) {
	s.broker.Publish(ProgressEvent{
		RunID:    runID,
		TenantID: source.TenantID,
		SourceID: source.ID,
		Stage:    stage,
		Done:     done,
		Total:    total,
		Message:  message,
	})
}

// checkpoint is the cooperative cancellation check placed between stages
func checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return sheetsync.ErrRunCancelled
	default:
		return nil
	}
}

// unmappedColumns lists the non-blank headers no canonical field claimed
func unmappedColumns(headers []string, mapping sheetsync.ColumnMapping) []string {
	claimed := make(map[int]struct{}, len(mapping))
	for _, col := range mapping {
		claimed[col] = struct{}{}
	}
	var out []string
	for col, header := range headers {
		if header == "" {
			continue
		}
		if _, ok := claimed[col]; !ok {
			out = append(out, header)
		}
	}
	sort.Strings(out)
	return out
}
