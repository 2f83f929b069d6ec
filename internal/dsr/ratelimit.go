package dsr

import (
	"sync"
	"time"
)

// Limiter caps report generation across the whole process with a sliding
// window: admissions older than the window are pruned on every check, and a
// call is rejected outright once the cap is reached. Rejected calls are not
// queued.
type Limiter struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	admissions []time.Time

	now func() time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{limit: limit, window: window, now: time.Now}
}

// Allow records an admission and returns true if capacity remains in the
// current window.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.admissions) >= l.limit {
		return false
	}
	l.admissions = append(l.admissions, now)
	return true
}

// Remaining reports how many admissions are left in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	remaining := l.limit - len(l.admissions)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *Limiter) prune(now time.Time) {
	kept := l.admissions[:0]
	for _, t := range l.admissions {
		if now.Sub(t) < l.window {
			kept = append(kept, t)
		}
	}
	l.admissions = kept
}
