// Package cache memoizes verification decisions per raw session token.
//
// Entries carry outcome-dependent TTLs: successes are kept the longest,
// denials much shorter so permission changes propagate within seconds, and
// transient errors shortest so the upstream is rechecked soon. State is
// process-local and best-effort; losing it only costs cache hit rate.
package cache

import (
	"sync"
	"time"

	"github.com/giftwell/edgegate/internal/core"
)

type entry struct {
	decision  core.Decision
	expiresAt time.Time
}

// TTLs holds the three TTL classes. DeniedTTL must be shorter than
// AllowedTTL (validated at config load).
type TTLs struct {
	Allowed time.Duration
	Denied  time.Duration
	Error   time.Duration
}

// Stats is a snapshot of cache counters for the admin surface.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttls    TTLs

	hits   uint64
	misses uint64

	// now is swapped out in tests.
	now func() time.Time
}

var _ core.DecisionCache = (*Cache)(nil)

func New(ttls TTLs) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttls:    ttls,
		now:     time.Now,
	}
}

// Lookup returns the cached decision for a token if it has not expired.
func (c *Cache) Lookup(token string) (core.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[token]
	if !ok || !c.now().Before(e.expiresAt) {
		c.misses++
		return core.Decision{}, false
	}
	c.hits++
	return e.decision, true
}

// Store caches a decision under the token, replacing any previous entry
// wholesale. The TTL class follows the decision kind.
func (c *Cache) Store(token string, d core.Decision) {
	var ttl time.Duration
	switch d.Kind {
	case core.KindAllowed:
		ttl = c.ttls.Allowed
	case core.KindForbidden:
		ttl = c.ttls.Denied
	default:
		// unauthenticated and unavailable outcomes are rechecked soonest
		ttl = c.ttls.Error
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = entry{decision: d, expiresAt: c.now().Add(ttl)}
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for token, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, token)
			removed++
		}
	}
	return removed
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}
