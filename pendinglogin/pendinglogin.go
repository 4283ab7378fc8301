// Package pendinglogin stores the single in-flight OAuth attempt.
//
// The record is written durably before the browser handoff and read back
// when the callback arrives, possibly in a different process. It carries
// everything the callback path needs to finish the handshake: the CSRF
// state, the PKCE verifier and the registered client credentials.
package pendinglogin

import "time"

// TTL bounds how long an in-flight login stays usable. A callback arriving
// later than this must be rejected rather than exchanged.
const TTL = 10 * time.Minute

// PendingLogin is one in-flight OAuth attempt. At most one exists at a
// time; starting a new login overwrites any previous record wholesale.
type PendingLogin struct {
	InstanceBaseURL string    `json:"instance_base_url"` // canonical https://host
	OAuthState      string    `json:"oauth_state"`       // CSRF token, base64url
	CodeVerifier    string    `json:"code_verifier"`     // PKCE verifier
	ClientID        string    `json:"client_id"`
	ClientSecret    string    `json:"client_secret"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsValid reports whether the record is still inside its TTL window.
func (p *PendingLogin) IsValid(now time.Time) bool {
	return now.Sub(p.CreatedAt) < TTL
}

// Store defines the interface for pending-login persistence.
//
// Save must be durable before it returns: the process may be suspended the
// instant control passes to the external browser, and the record is the
// only way the callback path can resume the handshake.
type Store interface {
	// Save generates fresh CSRF state and a fresh PKCE verifier,
	// atomically overwrites any existing record and returns the generated
	// state value.
	Save(instanceBaseURL, clientID, clientSecret string) (oauthState string, err error)

	// Load returns the stored record, or nil when none exists.
	Load() (*PendingLogin, error)

	// Clear deletes the record. Clearing an empty store is not an error.
	Clear() error
}
