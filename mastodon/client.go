// Package mastodon is a minimal REST client for the subset of the
// Mastodon-compatible API the login engine needs: dynamic app
// registration, identity verification and instance metadata.
//
// Token exchange is deliberately absent; the auth package drives
// /oauth/token through golang.org/x/oauth2 so the PKCE verifier handling
// stays in one place.
package mastodon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
)

const maxErrorBody = 512 // bytes of response body kept in error messages

// Client talks to a single instance identified by its canonical base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption modifies a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for
// testing against httptest servers).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the given canonical base URL
// ("https://host", no trailing slash).
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: cleanhttp.DefaultPooledClient(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the instance.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// RegisterApp performs dynamic client registration against POST /api/v1/apps.
func (c *Client) RegisterApp(ctx context.Context, req AppRequest) (*App, error) {
	var app App
	if err := c.postJSON(ctx, "/api/v1/apps", req, &app); err != nil {
		return nil, err
	}
	if app.ClientID == "" || app.ClientSecret == "" {
		return nil, errors.New("[RegisterApp] instance returned empty client credentials")
	}
	return &app, nil
}

// VerifyCredentials fetches the account the access token belongs to.
func (c *Client) VerifyCredentials(ctx context.Context, accessToken string) (*Account, error) {
	var account Account
	if err := c.getJSON(ctx, "/api/v1/accounts/verify_credentials", accessToken, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetInstance fetches server metadata for display purposes.
func (c *Client) GetInstance(ctx context.Context) (*Instance, error) {
	var instance Instance
	if err := c.getJSON(ctx, "/api/v1/instance", "", &instance); err != nil {
		return nil, err
	}
	return &instance, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "[mastodon] encoding %s request", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "[mastodon] building %s request", path)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out)
}

func (c *Client) getJSON(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "[mastodon] building %s request", path)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[mastodon] calling %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: path, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "[mastodon] decoding %s response", path)
	}
	return nil
}
