package cache

import (
	"testing"
	"time"

	"github.com/giftwell/edgegate/internal/core"
)

func testTTLs() TTLs {
	return TTLs{
		Allowed: 60 * time.Second,
		Denied:  10 * time.Second,
		Error:   5 * time.Second,
	}
}

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache() (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := New(testTTLs())
	c.now = clock.Now
	return c, clock
}

func TestCacheStoreLookup(t *testing.T) {
	c, _ := newTestCache()

	if _, ok := c.Lookup("tok"); ok {
		t.Fatal("lookup on empty cache should miss")
	}

	c.Store("tok", core.Allowed(&core.Identity{ID: "u1", PermissionLevel: core.LevelView}))

	d, ok := c.Lookup("tok")
	if !ok {
		t.Fatal("expected hit")
	}
	if d.Kind != core.KindAllowed || d.Identity.ID != "u1" {
		t.Errorf("unexpected decision: %+v", d)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("stats = %+v, want 1 hit / 1 miss / 1 entry", stats)
	}
}

func TestCacheTTLPerKind(t *testing.T) {
	tests := []struct {
		name     string
		decision core.Decision
		// aliveAt must hit, expiredAt must miss
		aliveAt   time.Duration
		expiredAt time.Duration
	}{
		{
			name:      "Allowed - 60s class",
			decision:  core.Allowed(&core.Identity{ID: "u1"}),
			aliveAt:   59 * time.Second,
			expiredAt: 60 * time.Second,
		},
		{
			name:      "Forbidden - 10s class",
			decision:  core.Forbidden(core.ReasonInactiveUser),
			aliveAt:   9 * time.Second,
			expiredAt: 10 * time.Second,
		},
		{
			name:      "Unauthenticated - 5s class",
			decision:  core.Unauthenticated(),
			aliveAt:   4 * time.Second,
			expiredAt: 5 * time.Second,
		},
		{
			name:      "Unavailable - 5s class",
			decision:  core.Unavailable(),
			aliveAt:   4 * time.Second,
			expiredAt: 5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock := newTestCache()
			c.Store("tok", tt.decision)

			clock.Advance(tt.aliveAt)
			if _, ok := c.Lookup("tok"); !ok {
				t.Errorf("expected hit at +%s", tt.aliveAt)
			}

			clock.Advance(tt.expiredAt - tt.aliveAt)
			if _, ok := c.Lookup("tok"); ok {
				t.Errorf("expected miss at +%s", tt.expiredAt)
			}
		})
	}
}

func TestCacheDenialExpiresBeforeGrant(t *testing.T) {
	c, clock := newTestCache()
	c.Store("granted", core.Allowed(&core.Identity{ID: "u1"}))
	c.Store("denied", core.Forbidden(""))

	// past the denied TTL, before the allowed TTL
	clock.Advance(15 * time.Second)

	if _, ok := c.Lookup("granted"); !ok {
		t.Error("grant should still be cached")
	}
	if _, ok := c.Lookup("denied"); ok {
		t.Error("denial should already be expired")
	}
}

func TestCacheStoreReplaces(t *testing.T) {
	c, clock := newTestCache()

	c.Store("tok", core.Forbidden(""))
	clock.Advance(8 * time.Second)

	// re-verification upgraded the outcome; the fresh entry gets a full TTL
	c.Store("tok", core.Allowed(&core.Identity{ID: "u1"}))
	clock.Advance(30 * time.Second)

	d, ok := c.Lookup("tok")
	if !ok || d.Kind != core.KindAllowed {
		t.Errorf("got (%+v, %v), want fresh allowed entry", d, ok)
	}
}

func TestCacheSweep(t *testing.T) {
	c, clock := newTestCache()

	c.Store("a", core.Unavailable())
	c.Store("b", core.Forbidden(""))
	c.Store("c", core.Allowed(&core.Identity{ID: "u1"}))

	clock.Advance(12 * time.Second)

	if removed := c.Sweep(); removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if got := c.Stats().Entries; got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}
}
