package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"musicqr-server/internal/domain/ports/repository"
	"musicqr-server/internal/infra/metrics"
)

// RetentionWorker periodically prunes audit records older than the
// configured retention window.
type RetentionWorker struct {
	interval  time.Duration
	retention time.Duration
	logs      repository.QueryLogRepository
	log       *zerolog.Logger
}

func NewRetentionWorker(interval, retention time.Duration, logs repository.QueryLogRepository, logger *zerolog.Logger) *RetentionWorker {
	compLog := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{
		interval:  interval,
		retention: retention,
		logs:      logs,
		log:       &compLog,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting retention worker")
	// Prune once on startup, then on every tick
	w.prune(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *RetentionWorker) prune(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)
	n, err := w.logs.DeleteOlderThan(ctx, nil, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("retention prune error")
		return
	}
	if n > 0 {
		metrics.AddQueryLogsPruned(n)
		w.log.Info().Int64("count", n).Time("cutoff", cutoff).Msg("old query logs pruned")
	}
}
