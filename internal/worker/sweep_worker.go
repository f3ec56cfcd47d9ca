package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const DefaultSweepInterval = time.Minute

// Purger drops sessions that can no longer be used and reports how many.
type Purger interface {
	PurgeExpired(now time.Time) int
}

// SweepWorker periodically removes abandoned exam sessions from memory.
type SweepWorker struct {
	purger   Purger
	interval time.Duration
	log      zerolog.Logger
}

// NewSweepWorker creates a SweepWorker; a non-positive interval uses the default.
func NewSweepWorker(purger Purger, interval time.Duration, log zerolog.Logger) *SweepWorker {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SweepWorker{
		purger:   purger,
		interval: interval,
		log:      log.With().Str("component", "sweep_worker").Logger(),
	}
}

// Start runs the sweep loop until ctx is done.
func (w *SweepWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("SweepWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("SweepWorker stopped")
			return
		case now := <-ticker.C:
			if n := w.purger.PurgeExpired(now); n > 0 {
				w.log.Info().Int("purged", n).Msg("Expired sessions removed")
			}
		}
	}
}
