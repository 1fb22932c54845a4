package audit

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint hashes a session token for audit entries. Raw tokens must
// never reach the audit log; the fingerprint still lets operators
// correlate entries belonging to the same session.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}
