package gateway

import "net/http"

// lastResortCookie is checked after the configured names so sessions set
// by older deployments keep working until they expire.
const lastResortCookie = "session"

// sessionToken extracts the bearer token from cookies, preferring the
// modern (__Host- prefixed in production) cookie, then the legacy name,
// then the last-resort session cookie.
func (g *Gateway) sessionToken(r *http.Request) (string, bool) {
	names := []string{
		g.cfg.SessionCookieName(),
		g.cfg.Cookies.LegacyName,
		lastResortCookie,
	}
	for _, name := range names {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// setSessionCookie writes the session cookie and clears the legacy cookie
// in the same response so two cookies can never disagree.
func (g *Gateway) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.SessionCookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.cfg.Cookies.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   g.cookieSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	g.clearCookie(w, r, g.cfg.Cookies.LegacyName)
}

// clearSessionCookies removes every cookie the gateway ever reads.
func (g *Gateway) clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	g.clearCookie(w, r, g.cfg.SessionCookieName())
	g.clearCookie(w, r, g.cfg.Cookies.LegacyName)
	g.clearCookie(w, r, lastResortCookie)
}

// clearCookie expires a cookie. The Secure attribute must match the one
// the cookie was set with: browsers discard a __Host- Set-Cookie that
// lacks it, which would leave the session alive after logout.
func (g *Gateway) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.cookieSecure(r),
	})
}

// cookieSecure reports whether the Secure attribute applies. The __Host-
// prefix requires it, and production is always served over TLS.
func (g *Gateway) cookieSecure(r *http.Request) bool {
	return g.cfg.IsProduction() || r.TLS != nil
}
