// Package worker runs the invitation purge in-process when no Temporal cluster is configured.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/temporal/activities"
)

type WorkerConfig struct {
	Purger       activities.InvitationPurger
	PollInterval time.Duration
	Logger       zerolog.Logger
}

type Worker struct {
	cfg    WorkerConfig
	logger zerolog.Logger
}

func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Hour
	}
	return &Worker{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "purge_worker").Logger(),
	}
}

// Start purges once immediately and then on every tick until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.cfg.PollInterval).Msg("Worker started, purging expired invitations")
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.purge(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.purge(ctx)
		}
	}
}

func (w *Worker) purge(ctx context.Context) {
	counts, err := w.cfg.Purger.PurgeExpired(ctx)
	if err != nil {
		// Log the error and wait for the next tick
		w.logger.Error().Err(err).Msg("error purging expired invitations")
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	if total > 0 {
		w.logger.Info().Int64("total", total).Int("organizations", len(counts)).Msg("expired invitations purged")
	}
}
