package gateway

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/giftwell/edgegate/internal/api/middleware"
	"github.com/giftwell/edgegate/internal/api/presenter"
	"github.com/giftwell/edgegate/internal/audit"
	"github.com/giftwell/edgegate/internal/core"
)

// tokenIdentityPrefixLen bounds the token prefix used as a rate-limit key
// when no user id is available. Never the full token: it bounds bucket
// memory and keeps credentials out of the key space.
const tokenIdentityPrefixLen = 12

// dispatch classifies one inbound request. Branch order is normative:
// internal paths, code exchange, token-in-URL rejection, dev bypass,
// legacy sign-in redirect, then the normal cookie flow.
func (g *Gateway) dispatch(w http.ResponseWriter, r *http.Request, next http.Handler) {
	path := r.URL.Path

	// health and admin are the gateway's own surface; logout must work
	// even when the upstream is down
	if path == g.cfg.Routes.HealthPath || strings.HasPrefix(path, g.cfg.Routes.AdminPrefix) {
		next.ServeHTTP(w, r)
		return
	}
	if path == g.cfg.Routes.LogoutPath {
		g.clearSessionCookies(w, r)
		next.ServeHTTP(w, r)
		return
	}

	query := r.URL.Query()

	if code := query.Get("code"); code != "" {
		g.handleExchange(w, r, code)
		return
	}

	// tokens must never appear in URLs or logs; reject outright before
	// even looking at the value
	if query.Has("token") {
		g.audit(r, core.AuditEntry{
			Action: core.AuditActionDenied,
			Reason: "token_in_url",
			Status: http.StatusUnauthorized,
		})
		g.respondUnauthenticated(w, r)
		return
	}

	if g.bypassActive() {
		g.forward(w, r, next, g.bypassIdentity())
		return
	}

	if path == g.cfg.Routes.LegacySignInPath {
		g.redirectReauth(w, r)
		return
	}

	token, ok := g.sessionToken(r)
	if !ok {
		g.respondUnauthenticated(w, r)
		return
	}

	decision, hit := g.cache.Lookup(token)
	if !hit {
		var err error
		decision, err = g.verifier.Verify(r.Context(), token)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("upstream verification unavailable")
			decision = core.Unavailable()
		}
		g.cache.Store(token, decision)
	}

	switch decision.Kind {
	case core.KindAllowed:
		g.authorize(w, r, next, token, decision.Identity)

	case core.KindUnauthenticated:
		g.respondUnauthenticated(w, r)

	case core.KindForbidden:
		g.audit(r, core.AuditEntry{
			Action:           core.AuditActionDenied,
			TokenFingerprint: audit.Fingerprint(token),
			Reason:           decision.Reason,
			Status:           http.StatusForbidden,
		})
		g.respondForbidden(w, r, decision.Reason)

	default:
		g.audit(r, core.AuditEntry{
			Action:           core.AuditActionUnavailable,
			TokenFingerprint: audit.Fingerprint(token),
			Status:           http.StatusServiceUnavailable,
		})
		g.respondUnavailable(w, r)
	}
}

// authorize runs the post-verification gates: mutation rate limiting on
// API routes, then the route access rules.
func (g *Gateway) authorize(w http.ResponseWriter, r *http.Request, next http.Handler, token string, id *core.Identity) {
	if g.isAPIPath(r.URL.Path) && isMutation(r.Method) {
		identity := id.ID
		if identity == "" {
			identity = tokenIdentity(token)
		}

		res := g.limiter.Check(g.cfg.App, identity)
		if !res.Allowed {
			retryAfter := int(res.RetryAfter / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			g.audit(r, core.AuditEntry{
				Action:           core.AuditActionRateLimited,
				TokenFingerprint: audit.Fingerprint(token),
				UserID:           id.ID,
				Status:           http.StatusTooManyRequests,
			})
			presenter.Error(w, r, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	if ok, failedRule := g.rules.Evaluate(r.Method, r.URL.Path, id); !ok {
		g.audit(r, core.AuditEntry{
			Action:           core.AuditActionDenied,
			TokenFingerprint: audit.Fingerprint(token),
			UserID:           id.ID,
			Reason:           core.ReasonNoAppPermission,
			Status:           http.StatusForbidden,
			Metadata:         map[string]any{"rule": failedRule},
		})
		g.respondForbidden(w, r, core.ReasonNoAppPermission)
		return
	}

	g.forward(w, r, next, id)
}

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, next http.Handler, id *core.Identity) {
	rid := middleware.RequestIDCtx(r.Context())
	setIdentityHeaders(r, id, rid)
	next.ServeHTTP(w, r)
}

// bypassActive requires two independent flags to agree: the environment
// must not be production AND the bypass must be explicitly enabled.
func (g *Gateway) bypassActive() bool {
	return !g.cfg.IsProduction() && g.cfg.Bypass.Enabled
}

func (g *Gateway) bypassIdentity() *core.Identity {
	b := g.cfg.Bypass
	return &core.Identity{
		ID:              b.UserID,
		Email:           b.Email,
		FullName:        b.FullName,
		Brands:          b.Brands,
		Apps:            b.Apps,
		PermissionLevel: b.PermissionLevel,
	}
}

func (g *Gateway) isAPIPath(path string) bool {
	return strings.HasPrefix(path, g.cfg.Routes.APIPrefix)
}

func isMutation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func tokenIdentity(token string) string {
	if len(token) <= tokenIdentityPrefixLen {
		return token
	}
	return token[:tokenIdentityPrefixLen]
}

func (g *Gateway) audit(r *http.Request, entry core.AuditEntry) {
	entry.ID = middleware.RequestIDCtx(r.Context())
	entry.Time = time.Now()
	entry.Method = r.Method
	entry.Path = r.URL.Path
	if err := g.auditor.Log(entry); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write audit entry")
	}
}
