package mastodon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kabinka/go-auth-client/mastodon"
)

func TestRegisterApp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/apps", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req mastodon.AppRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Kabinka", req.ClientName)

		json.NewEncoder(w).Encode(mastodon.App{
			ClientID:     "client-123",
			ClientSecret: "secret-456",
			Name:         req.ClientName,
		})
	}))
	defer server.Close()

	client := mastodon.NewClient(server.URL)
	app, err := client.RegisterApp(context.Background(), mastodon.AppRequest{
		ClientName:   "Kabinka",
		RedirectURIs: "kabinka://oauth/mastodon",
		Scopes:       "read write",
	})
	require.NoError(t, err)
	require.Equal(t, "client-123", app.ClientID)
	require.Equal(t, "secret-456", app.ClientSecret)
}

func TestRegisterAppRejectsEmptyCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(mastodon.App{})
	}))
	defer server.Close()

	_, err := mastodon.NewClient(server.URL).RegisterApp(context.Background(), mastodon.AppRequest{})
	require.Error(t, err)
}

func TestVerifyCredentialsSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/accounts/verify_credentials", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(mastodon.Account{ID: "1", Username: "alice", Acct: "alice"})
	}))
	defer server.Close()

	account, err := mastodon.NewClient(server.URL).VerifyCredentials(context.Background(), "token-1")
	require.NoError(t, err)
	require.Equal(t, "alice", account.Username)
}

func TestAPIErrorCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"The access token is invalid"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := mastodon.NewClient(server.URL).VerifyCredentials(context.Background(), "bad-token")
	require.Error(t, err)

	var apiErr *mastodon.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "invalid")
}
