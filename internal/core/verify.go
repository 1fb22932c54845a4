package core

import (
	"encoding/json"
	"net/http"
)

// VerifyUser is the user block of an upstream verification response.
type VerifyUser struct {
	ID       string `json:"id"`
	DBID     string `json:"dbId,omitempty"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// VerifyResponse is the wire shape returned by the upstream
// POST /auth/verify endpoint. Allowed is a pointer on purpose: a body
// without the field is malformed and must not be read as a grant.
type VerifyResponse struct {
	Allowed            *bool       `json:"allowed"`
	Reason             string      `json:"reason,omitempty"`
	User               *VerifyUser `json:"user,omitempty"`
	Brands             []string    `json:"brands,omitempty"`
	Permissions        []string    `json:"permissions,omitempty"`
	AppPermissionLevel string      `json:"appPermissionLevel,omitempty"`
}

// ClassifyVerification maps an upstream verify response to a Decision.
//
// The order of the branches is load-bearing:
//  1. 401 is unauthenticated regardless of body content.
//  2. 403, or a parsed body with allowed == false, is forbidden.
//  3. A missing, unparsable, or allowed-less body is unavailable,
//     even when the HTTP status was nominally 2xx.
//  4. Any other non-2xx status is unavailable.
//  5. Everything else is a success and yields an Identity.
func ClassifyVerification(status int, body []byte) Decision {
	if status == http.StatusUnauthorized {
		return Unauthenticated()
	}

	var resp VerifyResponse
	parseErr := json.Unmarshal(body, &resp)

	if status == http.StatusForbidden {
		if parseErr != nil {
			return Forbidden("")
		}
		return Forbidden(resp.Reason)
	}
	if parseErr == nil && resp.Allowed != nil && !*resp.Allowed {
		return Forbidden(resp.Reason)
	}

	if parseErr != nil || resp.Allowed == nil {
		return Unavailable()
	}
	if status < 200 || status > 299 {
		return Unavailable()
	}
	// allowed == true but no user block means the upstream response is
	// incomplete; identity headers cannot be built from it.
	if resp.User == nil || resp.User.ID == "" {
		return Unavailable()
	}

	level := resp.AppPermissionLevel
	if !ValidLevel(level) {
		level = LevelView
	}

	return Allowed(&Identity{
		ID:              resp.User.ID,
		DBID:            resp.User.DBID,
		Email:           resp.User.Email,
		FullName:        resp.User.FullName,
		Brands:          resp.Brands,
		Apps:            resp.Permissions,
		PermissionLevel: level,
	})
}
