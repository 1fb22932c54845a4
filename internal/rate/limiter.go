// Package rate enforces a fixed-window cap on mutating API calls per
// (scope, identity). Fixed windows are an accepted approximation, not a
// precise admission-control guarantee: a burst straddling a window edge can
// briefly pass up to twice the limit. Request volume at this gateway is
// modest enough that the simplicity wins.
package rate

import (
	"sync"
	"time"

	"github.com/giftwell/edgegate/internal/core"
)

type bucket struct {
	count   int
	resetAt time.Time
}

type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	limit  int
	window time.Duration

	// now is swapped out in tests.
	now func() time.Time
}

var _ core.MutationLimiter = (*Limiter)(nil)

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Check counts one mutation for (scope, identity) and reports whether it
// is within the window budget. Buckets are created lazily and replaced,
// never incremented, once their window has passed. RetryAfter is at least
// one second so a Retry-After header is never zero or negative.
func (l *Limiter) Check(scope, identity string) core.LimitResult {
	key := scope + ":" + identity
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}

	if b.count >= l.limit {
		retry := b.resetAt.Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return core.LimitResult{Allowed: false, Remaining: 0, RetryAfter: retry}
	}

	b.count++
	return core.LimitResult{Allowed: true, Remaining: l.limit - b.count}
}

// Reset drops the bucket for (scope, identity).
func (l *Limiter) Reset(scope, identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, scope+":"+identity)
}

// Sweep drops buckets whose window has passed and returns how many were
// removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
