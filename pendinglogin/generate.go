package pendinglogin

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const stateLength = 32 // bytes of entropy behind the CSRF state

// NewOAuthState returns a fresh URL-safe CSRF token. The random source is
// crypto/rand only; a read failure aborts the login attempt rather than
// degrading to weaker material.
func NewOAuthState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[NewOAuthState] reading random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewCodeVerifier returns a fresh PKCE code verifier.
func NewCodeVerifier() string {
	return oauth2.GenerateVerifier()
}
