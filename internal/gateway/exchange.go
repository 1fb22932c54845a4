package gateway

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/giftwell/edgegate/internal/api/presenter"
	"github.com/giftwell/edgegate/internal/audit"
	"github.com/giftwell/edgegate/internal/core"
)

// handleExchange swaps a one-time authorization code for a session token,
// sets the session cookie, and bounces the browser back to the cleaned
// original URL. The code and request id are stripped from that URL before
// anything else so they never land in browser history.
func (g *Gateway) handleExchange(w http.ResponseWriter, r *http.Request, code string) {
	target := g.cleanRedirectTarget(r)

	token, err := g.exchanger.Exchange(r.Context(), code)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("code exchange failed")
		g.audit(r, core.AuditEntry{
			Action: core.AuditActionExchange,
			Reason: "exchange_failed",
			Status: http.StatusUnauthorized,
		})
		if g.isAPIPath(r.URL.Path) {
			presenter.Error(w, r, "code exchange failed", http.StatusUnauthorized)
			return
		}
		g.redirectReauth(w, r)
		return
	}

	g.setSessionCookie(w, r, token)
	g.audit(r, core.AuditEntry{
		Action:           core.AuditActionExchange,
		TokenFingerprint: audit.Fingerprint(token),
		Status:           http.StatusFound,
	})

	g.redirect(w, r, target)
}
