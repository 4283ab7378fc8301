// Package auth drives the OAuth2 authorization-code-with-PKCE handshake
// against a Mastodon-compatible instance: dynamic app registration,
// browser handoff, callback validation, code exchange and identity
// verification.
//
// The middle of the handshake hands control to an external browser and
// the process may die before the redirect comes back, so everything the
// callback path needs is persisted through a pendinglogin.Store before
// the handoff. OAuthClient itself keeps no state the flow depends on.
package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/kabinka/go-auth-client/browser"
	"github.com/kabinka/go-auth-client/pendinglogin"
	"github.com/kabinka/go-auth-client/session"
)

// Settings carries the fixed client identity used for every registration.
type Settings struct {
	ClientName  string
	Website     string
	RedirectURI string
	Scopes      []string
}

// OAuthClient is the login protocol state machine.
type OAuthClient struct {
	settings Settings
	store    pendinglogin.Store
	sessions *session.Manager
	log      zerolog.Logger

	httpClient  *http.Client
	openBrowser func(url string) error
	nowTime     func() time.Time

	mu    sync.Mutex
	state FlowState
}

// Option defines a function type to modify the OAuthClient instance.
type Option func(*OAuthClient)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *OAuthClient) {
		c.nowTime = nowFunc
	}
}

// WithHTTPClient overrides the HTTP client used for every instance call,
// including the token exchange.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *OAuthClient) {
		c.httpClient = hc
	}
}

// WithBrowserOpener overrides how the authorize URL is handed to the
// external browser surface.
func WithBrowserOpener(open func(url string) error) Option {
	return func(c *OAuthClient) {
		c.openBrowser = open
	}
}

// NewOAuthClient initializes the login state machine with required
// dependencies. Optional configuration can be provided via options.
func NewOAuthClient(settings Settings, store pendinglogin.Store, sessions *session.Manager, log zerolog.Logger, options ...Option) (*OAuthClient, error) {
	if settings.ClientName == "" {
		return nil, errors.New("[NewOAuthClient] client name is required")
	}
	if settings.RedirectURI == "" {
		return nil, errors.New("[NewOAuthClient] redirect URI is required")
	}
	if len(settings.Scopes) == 0 {
		return nil, errors.New("[NewOAuthClient] scopes are required")
	}
	if store == nil {
		return nil, errors.New("[NewOAuthClient] pending login store is required")
	}
	if sessions == nil {
		return nil, errors.New("[NewOAuthClient] session manager is required")
	}

	client := &OAuthClient{
		settings:    settings,
		store:       store,
		sessions:    sessions,
		log:         log.With().Str("component", "oauth").Logger(),
		openBrowser: browser.Open,
		nowTime:     time.Now,
		state:       Idle,
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// State returns the current flow state.
func (c *OAuthClient) State() FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *OAuthClient) setState(state FlowState) {
	c.mu.Lock()
	prev := c.state
	c.state = state
	c.mu.Unlock()

	if prev != state {
		c.log.Debug().Stringer("from", prev).Stringer("to", state).Msg("flow state changed")
	}
}
