// Package instanceurl converts user-entered server names into the canonical
// base URL used everywhere else in the login engine.
package instanceurl

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	enginerr "github.com/kabinka/go-auth-client/internal/errors"
)

// Normalize converts an arbitrary user-entered server string into a
// canonical "https://host" base URL:
//
//   - trims whitespace and lowercases
//   - prepends https:// when no scheme is present
//   - rewrites http:// to https://
//   - keeps only scheme and host (path, query, fragment, port and any
//     trailing slash are dropped)
//
// It fails with errors.ErrInvalidURL when no parseable host is present.
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}
	if strings.HasPrefix(normalized, "http://") {
		normalized = "https://" + strings.TrimPrefix(normalized, "http://")
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", errors.Wrapf(enginerr.ErrInvalidURL, "parse %q: %v", raw, err)
	}

	host := u.Hostname()
	if host == "" || !validHost(host) {
		return "", errors.Wrapf(enginerr.ErrInvalidURL, "no host in %q", raw)
	}

	return "https://" + host, nil
}

// validHost rejects hosts containing characters that url.Parse tolerates
// but no DNS name or IP literal can contain.
func validHost(host string) bool {
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == ':' || r == '[' || r == ']':
		default:
			return false
		}
	}
	return true
}
