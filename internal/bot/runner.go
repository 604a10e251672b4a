// Package bot runs the triage poll loop.
package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
	"github.com/animeempire/support-bot/internal/summary"
)

// Runner drives the triage service on a fixed poll interval and fires
// the daily summary when it comes due.
type Runner struct {
	service  *core.TriageService
	summary  *summary.Service
	interval time.Duration
	logger   *zap.Logger
}

// NewRunner creates a new runner. summarySvc may be nil when the daily
// summary is disabled.
func NewRunner(service *core.TriageService, summarySvc *summary.Service, interval time.Duration, logger *zap.Logger) *Runner {
	return &Runner{
		service:  service,
		summary:  summarySvc,
		interval: interval,
		logger:   logger,
	}
}

// Run loops until the context is cancelled. A failed cycle is logged
// and retried on the next tick; messages stay unread so nothing is lost.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Support bot started", zap.Duration("poll_interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Support bot stopping")
			return ctx.Err()
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

// RunOnce performs a single cycle. Used by the one-shot CLI mode.
func (r *Runner) RunOnce(ctx context.Context) error {
	processed, total, err := r.service.ProcessBatch(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("Batch complete", zap.Int("processed", processed), zap.Int("total", total))
	return nil
}

func (r *Runner) cycle(ctx context.Context) {
	processed, total, err := r.service.ProcessBatch(ctx)
	if err != nil {
		r.logger.Error("Batch failed", zap.Error(err))
	} else if total > 0 {
		r.logger.Info("Batch complete", zap.Int("processed", processed), zap.Int("total", total))
	}

	if r.summary != nil {
		if err := r.summary.RunIfDue(ctx, time.Now()); err != nil {
			r.logger.Error("Daily summary failed", zap.Error(err))
		}
	}
}
