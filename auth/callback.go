package auth

import (
	"net/url"

	"github.com/pkg/errors"

	enginerr "github.com/kabinka/go-auth-client/internal/errors"
)

// CallbackParams are the raw parameters delivered by the redirect
// mechanism (deep link or local callback server).
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseCallbackURL extracts callback parameters from a redirect URI as
// delivered by the platform, e.g.
// "kabinka://oauth/mastodon?code=...&state=...".
func ParseCallbackURL(raw string) (CallbackParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return CallbackParams{}, errors.Wrapf(enginerr.ErrInvalidURL, "parse callback %q: %v", raw, err)
	}

	q := u.Query()
	return CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}, nil
}
