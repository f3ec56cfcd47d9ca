package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TimeoutWorker holds one cancellable timer per exam session. It replaces a
// polling loop: each timer fires once, when the active question is due for a
// forced advance.
type TimeoutWorker struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	now     func() time.Time
	log     zerolog.Logger
}

// NewTimeoutWorker creates a TimeoutWorker.
func NewTimeoutWorker(log zerolog.Logger) *TimeoutWorker {
	return &TimeoutWorker{
		timers: make(map[string]*time.Timer),
		now:    time.Now,
		log:    log.With().Str("component", "timeout_worker").Logger(),
	}
}

// Schedule arms fn to run at at, replacing any timer already armed for key.
// A time in the past fires immediately on its own goroutine.
func (w *TimeoutWorker) Schedule(key string, at time.Time, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if old, ok := w.timers[key]; ok {
		old.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(at.Sub(w.now()), func() {
		w.mu.Lock()
		if w.timers[key] == t {
			delete(w.timers, key)
		}
		w.mu.Unlock()
		fn()
	})
	w.timers[key] = t

	w.log.Debug().Str("session_id", key).Time("at", at).Msg("Timeout armed")
}

// Cancel disarms the timer for key, if any.
func (w *TimeoutWorker) Cancel(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[key]; ok {
		t.Stop()
		delete(w.timers, key)
	}
}

// Pending is the number of armed timers.
func (w *TimeoutWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}

// Start blocks until ctx is done, then stops every timer.
func (w *TimeoutWorker) Start(ctx context.Context) {
	w.log.Info().Msg("TimeoutWorker started")
	<-ctx.Done()

	w.mu.Lock()
	defer w.mu.Unlock()
	for key, t := range w.timers {
		t.Stop()
		delete(w.timers, key)
	}
	w.stopped = true
	w.log.Info().Msg("TimeoutWorker stopped")
}
