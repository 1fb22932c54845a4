package core

import "time"

// Audit actions recorded by the gateway.
const (
	AuditActionExchange    = "auth.exchange"
	AuditActionDenied      = "auth.denied"
	AuditActionRateLimited = "auth.rate_limited"
	AuditActionUnavailable = "auth.unavailable"
)

type AuditEntry struct {
	// ID is the request id (X-Request-Id) of the triggering request.
	ID string `json:"id"`

	// Time is the timestamp of the event.
	Time time.Time `json:"time"`

	// Action describes what happened (e.g. "auth.denied").
	Action string `json:"action"`

	// TokenFingerprint is a hash of the session token; raw tokens are
	// never written to the audit log.
	TokenFingerprint string `json:"token_fingerprint,omitempty"`

	UserID string `json:"user_id,omitempty"`
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`

	Reason string `json:"reason,omitempty"`
	Status int    `json:"status,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}
