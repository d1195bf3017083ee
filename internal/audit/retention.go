package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionWorker periodically deletes audit rows older than the retention window.
type RetentionWorker struct {
	store     pruner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

func NewRetentionWorker(store pruner, retention, interval time.Duration, logger zerolog.Logger) *RetentionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionWorker{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logger.With().Str("component", "audit_retention_worker").Logger(),
	}
}

// Run blocks until context cancellation. A non-positive retention keeps rows forever.
func (w *RetentionWorker) Run(ctx context.Context) error {
	if w.store == nil || w.retention <= 0 {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *RetentionWorker) tick(ctx context.Context) {
	cutoff := w.now().Add(-w.retention).UTC()
	n, err := w.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		w.logger.Warn().Err(err).Msg("audit prune failed")
		return
	}
	if n > 0 {
		w.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("audit rows pruned")
	}
}
