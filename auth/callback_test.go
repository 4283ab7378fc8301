package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kabinka/go-auth-client/auth"
	enginerr "github.com/kabinka/go-auth-client/internal/errors"
)

func TestParseCallbackURLSuccess(t *testing.T) {
	params, err := auth.ParseCallbackURL("kabinka://oauth/mastodon?code=auth-code-abc&state=state-xyz")
	require.NoError(t, err)
	require.Equal(t, auth.CallbackParams{
		Code:  "auth-code-abc",
		State: "state-xyz",
	}, params)
}

func TestParseCallbackURLProviderError(t *testing.T) {
	params, err := auth.ParseCallbackURL("kabinka://oauth/mastodon?error=access_denied&error_description=The+resource+owner+denied+the+request")
	require.NoError(t, err)
	require.Equal(t, auth.CallbackParams{
		Error:            "access_denied",
		ErrorDescription: "The resource owner denied the request",
	}, params)
}

func TestParseCallbackURLRelative(t *testing.T) {
	// A local callback server hands over a host-relative URL.
	params, err := auth.ParseCallbackURL("/callback?code=auth-code-abc&state=state-xyz")
	require.NoError(t, err)
	require.Equal(t, "auth-code-abc", params.Code)
	require.Equal(t, "state-xyz", params.State)
}

func TestParseCallbackURLInvalid(t *testing.T) {
	_, err := auth.ParseCallbackURL("://missing-scheme")
	require.ErrorIs(t, err, enginerr.ErrInvalidURL)
}
