package gateway

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/giftwell/edgegate/internal/core"
)

// Identity headers attached to forwarded requests. Downstream apps treat
// these as trusted; the gateway is the only thing allowed to set them.
const (
	HeaderRequestID       = "X-Request-Id"
	HeaderUserID          = "X-User-Id"
	HeaderUserDBID        = "X-User-Db-Id"
	HeaderUserEmail       = "X-User-Email"
	HeaderUserName        = "X-User-Name"
	HeaderBrands          = "X-Brands"
	HeaderApps            = "X-Apps"
	HeaderPermissionLevel = "X-App-Permission-Level"
)

// setIdentityHeaders injects the verified identity onto the forwarded
// request. Inbound values under these names are dropped first: a client
// must never be able to smuggle its own identity past the gateway.
func setIdentityHeaders(r *http.Request, id *core.Identity, rid string) {
	for _, h := range []string{
		HeaderRequestID, HeaderUserID, HeaderUserDBID, HeaderUserEmail,
		HeaderUserName, HeaderBrands, HeaderApps, HeaderPermissionLevel,
	} {
		r.Header.Del(h)
	}

	r.Header.Set(HeaderRequestID, rid)
	r.Header.Set(HeaderUserID, id.ID)
	if id.DBID != "" {
		r.Header.Set(HeaderUserDBID, id.DBID)
	}
	r.Header.Set(HeaderUserEmail, id.Email)
	r.Header.Set(HeaderUserName, url.QueryEscape(id.FullName))
	r.Header.Set(HeaderBrands, strings.Join(id.Brands, ","))
	r.Header.Set(HeaderApps, strings.Join(id.Apps, ","))

	level := id.PermissionLevel
	if !core.ValidLevel(level) {
		level = core.LevelView
	}
	r.Header.Set(HeaderPermissionLevel, level)
}
