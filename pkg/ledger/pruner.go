package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// PrunerConfig controls ledger retention.
type PrunerConfig struct {
	// RetentionDays is how many day buckets to keep, counted back from the
	// current day. Must cover at least one ISO week or weekly totals would
	// lose committed spending. Default: 30.
	RetentionDays int

	// Schedule is a standard cron expression for automatic pruning, for
	// example "0 3 * * *" for daily at 3 AM. Empty disables the scheduler.
	Schedule string
}

// DefaultPrunerConfig returns the default retention configuration.
func DefaultPrunerConfig() PrunerConfig {
	return PrunerConfig{
		RetentionDays: 30,
		Schedule:      "0 3 * * *",
	}
}

// Validate validates the retention configuration.
func (c PrunerConfig) Validate() error {
	if c.RetentionDays < 7 {
		return fmt.Errorf("retention days must be at least 7, got %d", c.RetentionDays)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule %q: %w", c.Schedule, err)
		}
	}
	return nil
}

// Pruner removes ledger buckets that have aged out of the retention window.
// Pruning is the one place the ledger consults the wall clock; totals and
// commits never do.
type Pruner struct {
	store  Store
	config PrunerConfig
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewPruner creates a Pruner over the given store.
func NewPruner(store Store, config PrunerConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:  store,
		config: config,
		logger: logger.With("component", "ledger.pruner"),
		now:    time.Now,
	}
}

// Prune removes buckets older than the retention window and returns the
// number removed.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	today := DayIndex(uint64(p.now().Unix()))
	retention := uint64(p.config.RetentionDays)
	if retention > today {
		return 0, nil
	}

	deleted, err := p.store.Prune(ctx, today-retention)
	if err != nil {
		return 0, fmt.Errorf("ledger prune failed: %w", err)
	}
	return deleted, nil
}

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	pruner  *Pruner
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a retention scheduler for the pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "ledger.scheduler"),
	}
}

// Start begins scheduled pruning. If no schedule is configured the scheduler
// does nothing. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pruner.config.Schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.pruner.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.pruner.config.Schedule, err)
	}

	_, err := s.cron.AddFunc(s.pruner.config.Schedule, func() {
		s.runPruning(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("ledger retention scheduler started",
		"schedule", s.pruner.config.Schedule,
		"retention_days", s.pruner.config.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runPruning executes one pruning cycle.
func (s *Scheduler) runPruning(ctx context.Context) {
	deleted, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled ledger pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled ledger pruning completed", "deleted_buckets", deleted)
	} else {
		s.logger.Debug("scheduled ledger pruning completed, nothing to delete")
	}
}

// Stop stops the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("ledger retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
