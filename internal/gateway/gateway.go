// Package gateway implements the edge authentication dispatcher that
// fronts every page and API route of the app family: code exchange,
// session verification with a classed cache, mutation rate limiting, and
// identity-header injection. Downstream handlers only ever see requests
// this dispatcher has allowed.
package gateway

import (
	"net/http"

	"github.com/giftwell/edgegate/internal/audit"
	"github.com/giftwell/edgegate/internal/config"
	"github.com/giftwell/edgegate/internal/core"
	"github.com/giftwell/edgegate/internal/rules"
)

type Gateway struct {
	cfg       *config.Config
	verifier  core.Verifier
	exchanger core.Exchanger
	cache     core.DecisionCache
	limiter   core.MutationLimiter
	rules     *rules.Engine
	auditor   core.Auditor
}

// New wires the dispatcher. Cache and limiter are passed in explicitly
// (not hidden globals) so tests run against a fresh instance each time.
func New(
	cfg *config.Config,
	verifier core.Verifier,
	exchanger core.Exchanger,
	decisionCache core.DecisionCache,
	limiter core.MutationLimiter,
	rulesEngine *rules.Engine,
	auditor core.Auditor,
) *Gateway {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	return &Gateway{
		cfg:       cfg,
		verifier:  verifier,
		exchanger: exchanger,
		cache:     decisionCache,
		limiter:   limiter,
		rules:     rulesEngine,
		auditor:   auditor,
	}
}

// Middleware returns the dispatcher wrapped around next. Requests that
// pass authentication reach next with identity headers attached;
// everything else is answered by the gateway itself.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.dispatch(w, r, next)
	})
}
