package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appsheetsync "github.com/ordersuite/backend/internal/application/sheetsync"
	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// SyncStarter launches a sync run for one source
type SyncStarter interface {
	StartSync(ctx context.Context, tenantID, sourceID uuid.UUID) (*appsheetsync.SyncAccepted, error)
}

// SheetSyncSchedulerConfig holds configuration for the periodic sweep
type SheetSyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// SweepInterval is how often active sources are swept
	SweepInterval time.Duration
	// StartTimeout bounds each StartSync call (not the run itself)
	StartTimeout time.Duration
}

// DefaultSheetSyncSchedulerConfig returns default configuration
func DefaultSheetSyncSchedulerConfig() SheetSyncSchedulerConfig {
	return SheetSyncSchedulerConfig{
		Enabled:       true,
		SweepInterval: 10 * time.Minute,
		StartTimeout:  10 * time.Second,
	}
}

// Validate validates the configuration
func (c *SheetSyncSchedulerConfig) Validate() error {
	if c.SweepInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.StartTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SheetSyncScheduler periodically kicks off sync runs for every active
// sheet source. A source whose lock is still held is skipped; the next
// sweep picks it up again.
type SheetSyncScheduler struct {
	config  SheetSyncSchedulerConfig
	sources sheetsync.SourceRepository
	starter SyncStarter
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSheetSyncScheduler creates a new sheet sync scheduler
func NewSheetSyncScheduler(config SheetSyncSchedulerConfig, sources sheetsync.SourceRepository, starter SyncStarter, logger *zap.Logger) (*SheetSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SheetSyncScheduler{
		config:  config,
		sources: sources,
		starter: starter,
		logger:  logger,
	}, nil
}

// Start starts the sweep loop
func (s *SheetSyncScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Sheet sync scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Sheet sync scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SheetSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sheet sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sheet sync scheduler stop timed out")
		return ctx.Err()
	}
}

// loop sweeps on every tick until the context is cancelled
func (s *SheetSyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sheet sync sweep loop stopping")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("Sheet sync sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep starts a sync run for every active source. Sources whose lock is
// held are skipped quietly; other start failures are logged and do not
// stop the sweep.
func (s *SheetSyncScheduler) Sweep(ctx context.Context) error {
	sources, err := s.sources.FindActive(ctx)
	if err != nil {
		return err
	}

	started := 0
	for _, source := range sources {
		startCtx, cancel := context.WithTimeout(ctx, s.config.StartTimeout)
		accepted, err := s.starter.StartSync(startCtx, source.TenantID, source.ID)
		cancel()

		if err != nil {
			var busy *sheetsync.SyncBusyError
			if errors.As(err, &busy) {
				s.logger.Debug("Sync already running, skipping source",
					zap.String("source_id", source.ID.String()),
					zap.Duration("retry_after", busy.RetryAfter),
				)
				continue
			}
			s.logger.Warn("Failed to start scheduled sync",
				zap.String("tenant_id", source.TenantID.String()),
				zap.String("source_id", source.ID.String()),
				zap.Error(err),
			)
			continue
		}

		started++
		s.logger.Debug("Scheduled sync started",
			zap.String("source_id", source.ID.String()),
			zap.String("run_id", accepted.RunID.String()),
		)
	}

	s.logger.Info("Sheet sync sweep completed",
		zap.Int("sources", len(sources)),
		zap.Int("started", started),
	)

	return nil
}
