package presenter

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the JSON body API consumers receive on any gateway
// failure. User is always present (and null) so downstream clients can
// uniformly read `body.user`. RID carries the request id for support
// correlation.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	User   any    `json:"user"`
	RID    string `json:"rid"`
}

func JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

// Error writes a JSON error body. Error responses are never cacheable.
func Error(w http.ResponseWriter, r *http.Request, msg string, status int) {
	ErrorReason(w, r, msg, "", status)
}

func ErrorReason(w http.ResponseWriter, r *http.Request, msg, reason string, status int) {
	rid, _ := r.Context().Value("request_id").(string)
	w.Header().Set("Cache-Control", "no-store")
	JSON(w, r, ErrorResponse{
		Error:  msg,
		Reason: reason,
		RID:    rid,
	}, status)
}
