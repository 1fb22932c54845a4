package core

import (
	"context"
	"time"
)

// Verifier asks the upstream identity provider whether a session token is
// currently valid and what it grants.
// Implementations: identity-provider HTTP client, test stubs.
type Verifier interface {
	// Verify returns the classified decision for a raw session token.
	// An error means verification could not be completed at all
	// (retries exhausted); callers must treat it as unavailable.
	Verify(ctx context.Context, token string) (Decision, error)
}

// Exchanger swaps a one-time authorization code for a session token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// DecisionCache memoizes verification decisions per raw token for a short,
// outcome-dependent window.
type DecisionCache interface {
	Lookup(token string) (Decision, bool)
	Store(token string, d Decision)
}

// LimitResult is the outcome of a rate-limit check.
type LimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // >= 1s when Allowed is false
}

// MutationLimiter caps mutating calls per (scope, identity) and window.
type MutationLimiter interface {
	Check(scope, identity string) LimitResult
}

// Auditor records gateway decisions. Implementations: file, memory, noop.
type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
