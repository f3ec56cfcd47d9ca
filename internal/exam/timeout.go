package exam

import "time"

const (
	DefaultTimeLimit = 120 * time.Second
	DefaultGrace     = 2 * time.Second

	// WarningWindow is how much remaining time switches the countdown to its
	// warning style.
	WarningWindow = 30 * time.Second
)

// TimeoutGuard decides, from the server clock only, how much time a question
// has left and when an unanswered question must be force-submitted.
type TimeoutGuard struct {
	Limit time.Duration
	// Grace keeps the "time's up" notice visible before the automatic advance.
	Grace time.Duration
}

// NewTimeoutGuard returns a guard, falling back to the defaults for
// non-positive limits and negative grace periods.
func NewTimeoutGuard(limit, grace time.Duration) TimeoutGuard {
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	if grace < 0 {
		grace = 0
	}
	return TimeoutGuard{Limit: limit, Grace: grace}
}

// Remaining is limit - (now - start). It goes negative after the deadline.
func (g TimeoutGuard) Remaining(now, start time.Time) time.Duration {
	return g.Limit - now.Sub(start)
}

// Expired reports whether no time is left. Reaching the limit exactly counts.
func (g TimeoutGuard) Expired(now, start time.Time) bool {
	return g.Remaining(now, start) <= 0
}

// Deadline is the instant the question expires.
func (g TimeoutGuard) Deadline(start time.Time) time.Time {
	return start.Add(g.Limit)
}

// AdvanceAt is the instant an expired, unanswered question is recorded as a
// timeout without any user action.
func (g TimeoutGuard) AdvanceAt(start time.Time) time.Time {
	return start.Add(g.Limit + g.Grace)
}

// DueForAdvance reports whether the grace period after expiry is over.
func (g TimeoutGuard) DueForAdvance(now, start time.Time) bool {
	return !now.Before(g.AdvanceAt(start))
}
