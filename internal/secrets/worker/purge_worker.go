// Package worker runs background maintenance of the secret store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/allisson/volt/internal/metrics"
	secretsUseCase "github.com/allisson/volt/internal/secrets/usecase"
)

// PurgeWorker purges deleted secrets whose scheduled purge date has passed, on a cron schedule.
type PurgeWorker struct {
	useCase  secretsUseCase.SecretUseCase
	metrics  metrics.BusinessMetrics
	schedule string
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewPurgeWorker creates a purge worker. An empty schedule disables it.
func NewPurgeWorker(
	useCase secretsUseCase.SecretUseCase,
	businessMetrics metrics.BusinessMetrics,
	schedule string,
	logger *slog.Logger,
) *PurgeWorker {
	return &PurgeWorker{
		useCase:  useCase,
		metrics:  businessMetrics,
		schedule: schedule,
		logger:   logger,
	}
}

// ValidateSchedule reports whether schedule is a standard cron spec or descriptor such as "@every 1m".
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return nil
}

// Start schedules the purge and blocks until ctx is canceled, then waits for a running
// purge to finish. It returns at once when the schedule is empty.
func (w *PurgeWorker) Start(ctx context.Context) error {
	if w.schedule == "" {
		w.logger.Info("purge schedule not configured, purge worker disabled")
		return nil
	}
	if err := ValidateSchedule(w.schedule); err != nil {
		return err
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.schedule, func() {
		_, _ = w.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule purge: %w", err)
	}

	w.mu.Lock()
	w.cron = c
	w.running = true
	w.mu.Unlock()

	c.Start()
	w.logger.Info("purge worker started", slog.String("schedule", w.schedule))

	<-ctx.Done()
	w.stop()
	return nil
}

// RunOnce purges the expired deleted secrets and returns how many were removed.
func (w *PurgeWorker) RunOnce(ctx context.Context) (int, error) {
	purged, err := w.useCase.PurgeExpiredDeletedSecrets(ctx, false)
	if err != nil {
		w.logger.Error("scheduled purge failed", slog.Any("error", err))
		return 0, err
	}

	if len(purged) > 0 {
		w.metrics.RecordPurged(ctx, len(purged), metrics.PurgeTriggerWorker)
		w.logger.Info("scheduled purge completed",
			slog.Int("purged_count", len(purged)),
			slog.Any("names", purged))
	} else {
		w.logger.Debug("scheduled purge completed, nothing to purge")
	}
	return len(purged), nil
}

// IsRunning reports whether the schedule is active.
func (w *PurgeWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *PurgeWorker) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cron == nil || !w.running {
		return
	}
	<-w.cron.Stop().Done()
	w.running = false
	w.logger.Info("purge worker stopped")
}
