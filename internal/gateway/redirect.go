package gateway

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/giftwell/edgegate/internal/api/middleware"
	"github.com/giftwell/edgegate/internal/api/presenter"
	"github.com/giftwell/edgegate/internal/core"
)

// redirectURLParam carries the original destination through the
// re-authentication round trip.
const redirectURLParam = "redirect_url"

// cleanRedirectTarget builds the relative URL the user should return to
// after re-authenticating. One-time codes, rejected token parameters, and
// request ids are stripped first so they never leak into browser history
// or upstream access logs, and the result is forced to a same-origin path
// so the parameter cannot become an open redirect.
func (g *Gateway) cleanRedirectTarget(r *http.Request) string {
	u := *r.URL
	q := u.Query()
	q.Del("code")
	q.Del("token")
	q.Del(middleware.RequestIDParam)
	u.RawQuery = q.Encode()
	u.Scheme = ""
	u.Host = ""

	target := u.String()
	// "//host/path" would be treated as protocol-relative by browsers
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	// redirecting back into the deprecated sign-in page would loop
	if u.Path == g.cfg.Routes.LegacySignInPath {
		return "/"
	}
	return target
}

// respondUnauthenticated answers a request without a valid session:
// JSON 401 for API paths, redirect to re-authentication for pages.
func (g *Gateway) respondUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if g.isAPIPath(r.URL.Path) {
		presenter.Error(w, r, "unauthenticated", http.StatusUnauthorized)
		return
	}
	g.redirectReauth(w, r)
}

func (g *Gateway) respondForbidden(w http.ResponseWriter, r *http.Request, reason string) {
	if g.isAPIPath(r.URL.Path) {
		presenter.ErrorReason(w, r, "forbidden", reason, http.StatusForbidden)
		return
	}

	rid := middleware.RequestIDCtx(r.Context())
	if reason == core.ReasonInactiveUser {
		g.redirect(w, r, buildURL(g.cfg.Redirects.InactiveAccount, map[string]string{
			middleware.RequestIDParam: rid,
		}))
		return
	}
	g.redirect(w, r, buildURL(g.cfg.Redirects.AccessDenied, map[string]string{
		"reason":                  reason,
		middleware.RequestIDParam: rid,
	}))
}

// respondUnavailable is deliberately distinct from unauthenticated so
// operators can tell "upstream is down" from "no valid session".
func (g *Gateway) respondUnavailable(w http.ResponseWriter, r *http.Request) {
	if g.isAPIPath(r.URL.Path) {
		presenter.Error(w, r, "verification unavailable", http.StatusServiceUnavailable)
		return
	}
	g.redirectReauth(w, r)
}

// redirectReauth sends a browser to the upstream re-authentication URL,
// preserving the cleaned original destination and the request id.
func (g *Gateway) redirectReauth(w http.ResponseWriter, r *http.Request) {
	g.redirect(w, r, buildURL(g.cfg.Redirects.Reauth, map[string]string{
		redirectURLParam:          g.cleanRedirectTarget(r),
		middleware.RequestIDParam: middleware.RequestIDCtx(r.Context()),
	}))
}

func (g *Gateway) redirect(w http.ResponseWriter, r *http.Request, location string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, location, http.StatusFound)
}

// buildURL appends query parameters to a configured absolute URL,
// preserving any query it already carries. Empty values are skipped.
func buildURL(base string, params map[string]string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
