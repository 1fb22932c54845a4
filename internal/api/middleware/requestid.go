package middleware

import (
	"context"
	"net/http"

	"github.com/rs/xid"
)

const RequestIDHeader = "X-Request-Id"
const requestIDKey = "request_id"

// RequestIDParam is the query parameter callers may use to propagate a
// request id across redirects.
const RequestIDParam = "rid"

// maxRequestIDLen bounds propagated ids so a hostile query parameter
// cannot bloat logs or headers.
const maxRequestIDLen = 128

// RequestIDCtx retrieves the request ID from the context.
func RequestIDCtx(ctx context.Context) string {
	id, ok := ctx.Value(requestIDKey).(string)
	if !ok {
		return ""
	}
	return id
}

// RequestIDMiddleware resolves the request id: an inbound header value if
// present, else the `rid` query parameter (length-bounded), else a fresh
// random id. The id is echoed on the response and stored in the context
// so it reaches every log line, error body, and redirect URL.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			if rid := r.URL.Query().Get(RequestIDParam); rid != "" && len(rid) <= maxRequestIDLen {
				id = rid
			}
		}
		if id == "" || len(id) > maxRequestIDLen {
			id = xid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
