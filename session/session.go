// Package session owns the authoritative answer to "what is the current
// session". It exposes a single observable SessionState to every UI
// consumer and reconciles it against the durable account registry.
package session

import "time"

// AccountIdentity is a verified remote identity, as returned by the
// instance's verify_credentials endpoint.
type AccountIdentity struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"` // handle@domain
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Authorization is the output of a successful code exchange. The access
// token is opaque to the engine.
type Authorization struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Scope       string    `json:"scope"`
	IssuedAt    time.Time `json:"issued_at"`
}

// InstanceMeta describes the server an account lives on, for display.
type InstanceMeta struct {
	Title   string `json:"title"`
	Version string `json:"version,omitempty"`
}

// AccountSession is one completed login held by the registry. Callers
// treat it as a read-only handle; credentials are never copied out of the
// registry by the engine.
type AccountSession struct {
	ID            string          `json:"id"` // registry record id
	Domain        string          `json:"domain"`
	Identity      AccountIdentity `json:"identity"`
	Authorization Authorization   `json:"authorization"`
	Instance      InstanceMeta    `json:"instance"`
	CreatedAt     time.Time       `json:"created_at"`
	LastUsedAt    time.Time       `json:"last_used_at"`
}

// Handle returns the user-facing handle@domain for the session.
func (s *AccountSession) Handle() string {
	return s.Identity.Username + "@" + s.Domain
}
