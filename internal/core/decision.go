package core

// Forbidden reasons the gateway distinguishes when routing denials.
const (
	ReasonInactiveUser    = "inactive_user"
	ReasonNoAppPermission = "no_app_permission"
)

// DecisionKind enumerates the closed set of verification outcomes.
type DecisionKind int

const (
	// KindUnauthenticated means no valid session exists (401).
	KindUnauthenticated DecisionKind = iota

	// KindForbidden means the identity is valid but lacks permission (403).
	KindForbidden

	// KindUnavailable means verification could not be completed:
	// network failure, 5xx, or a malformed upstream body (503).
	// Never collapsed into allowed or denied.
	KindUnavailable

	// KindAllowed means the session is valid and carries an Identity.
	KindAllowed
)

func (k DecisionKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	case KindAllowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// Decision is the outcome of verifying a session token.
// Modeled as a tagged variant so a malformed upstream body can never
// fall through to an implicit success path.
type Decision struct {
	Kind DecisionKind

	// Reason is set for KindForbidden (e.g. "inactive_user").
	Reason string

	// Identity is set only for KindAllowed.
	Identity *Identity
}

func Allowed(id *Identity) Decision {
	return Decision{Kind: KindAllowed, Identity: id}
}

func Unauthenticated() Decision {
	return Decision{Kind: KindUnauthenticated}
}

func Forbidden(reason string) Decision {
	if reason == "" {
		reason = ReasonNoAppPermission
	}
	return Decision{Kind: KindForbidden, Reason: reason}
}

func Unavailable() Decision {
	return Decision{Kind: KindUnavailable}
}
