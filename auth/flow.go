package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/kabinka/go-auth-client/instanceurl"
	enginerr "github.com/kabinka/go-auth-client/internal/errors"
	"github.com/kabinka/go-auth-client/mastodon"
	"github.com/kabinka/go-auth-client/session"
)

// StartLogin begins a login against the given instance: normalizes the
// URL, registers the app, durably persists the pending login and hands
// the authorize URL to the external browser.
//
// The pending-login write completes before the browser handoff; the
// process may be suspended the instant control returns to the OS, and the
// persisted record is what lets HandleCallback resume in a later process.
//
// The authorize URL is returned even when opening the browser fails, so
// the caller can present it for manual navigation; in that case the flow
// stays in AwaitingCallback and the error reports the launch failure.
func (c *OAuthClient) StartLogin(ctx context.Context, rawInstanceURL string) (string, error) {
	c.setState(Registering)

	baseURL, err := instanceurl.Normalize(rawInstanceURL)
	if err != nil {
		c.setState(Failed)
		return "", err
	}

	c.log.Info().Str("instance", baseURL).Msg("starting login")

	app, err := c.apiClient(baseURL).RegisterApp(ctx, mastodon.AppRequest{
		ClientName:   c.settings.ClientName,
		RedirectURIs: c.settings.RedirectURI,
		Scopes:       strings.Join(c.settings.Scopes, " "),
		Website:      c.settings.Website,
	})
	if err != nil {
		c.setState(Failed)
		return "", errors.Wrap(enginerr.ErrRegistrationFailed, err.Error())
	}

	// Starting a new login silently abandons any previous unfinished one;
	// Save overwrites the record wholesale.
	if _, err := c.store.Save(baseURL, app.ClientID, app.ClientSecret); err != nil {
		c.setState(Failed)
		return "", enginerr.Wrapf(err, "[StartLogin] persisting pending login")
	}

	// Read the record back rather than trusting in-memory copies: the
	// callback path will only ever see what the store holds.
	record, err := c.store.Load()
	if err != nil {
		c.setState(Failed)
		return "", enginerr.Wrapf(err, "[StartLogin] reading back pending login")
	}
	if record == nil {
		c.setState(Failed)
		return "", errors.New("[StartLogin] pending login missing after save")
	}

	authorizeURL := c.oauthConfig(baseURL, record.ClientID, record.ClientSecret).
		AuthCodeURL(record.OAuthState, oauth2.S256ChallengeOption(record.CodeVerifier))

	c.setState(AwaitingCallback)

	if err := c.openBrowser(authorizeURL); err != nil {
		c.log.Warn().Err(err).Msg("browser launch failed, caller must present the URL")
		return authorizeURL, errors.Wrap(err, "[StartLogin] opening browser")
	}

	return authorizeURL, nil
}

// HandleCallback finishes the handshake after the redirect delivers the
// authorization code. It may run after arbitrary elapsed time, including
// in a different process than StartLogin, so it trusts only the persisted
// pending login.
func (c *OAuthClient) HandleCallback(ctx context.Context, params CallbackParams) (*session.AccountSession, error) {
	if params.Error != "" {
		// The provider reported a definitive failure (e.g. the user
		// denied access); the pending login cannot be completed.
		c.clearStore()
		c.setState(Failed)
		return nil, errors.Wrapf(enginerr.ErrAuthorizationDenied, "%s: %s", params.Error, params.ErrorDescription)
	}

	record, err := c.store.Load()
	if err != nil {
		c.setState(Failed)
		return nil, enginerr.Wrapf(err, "[HandleCallback] loading pending login")
	}
	if record == nil {
		// Replayed or stale deep link; nothing is in flight.
		c.setState(Failed)
		return nil, enginerr.ErrNoPendingLogin
	}

	if !record.IsValid(c.nowTime()) {
		// Hard boundary: credentials may have rotated since; do not
		// attempt the exchange.
		c.clearStore()
		c.setState(Failed)
		return nil, enginerr.ErrExpiredPendingLogin
	}

	if params.State == "" || subtle.ConstantTimeCompare([]byte(params.State), []byte(record.OAuthState)) != 1 {
		// Fail closed. The record is kept: a forged callback must not
		// destroy a legitimate attempt still in flight.
		c.setState(Failed)
		return nil, enginerr.ErrStateMismatch
	}

	if params.Code == "" {
		c.setState(Failed)
		return nil, errors.Wrap(enginerr.ErrAuthorizationDenied, "callback carried no authorization code")
	}

	c.setState(Exchanging)

	token, err := c.oauthConfig(record.InstanceBaseURL, record.ClientID, record.ClientSecret).
		Exchange(c.exchangeContext(ctx), params.Code, oauth2.VerifierOption(record.CodeVerifier))
	if err != nil {
		// The record is kept so the same code can be retried before the
		// TTL expires.
		c.setState(Failed)
		return nil, errors.Wrap(enginerr.ErrTokenExchangeFailed, err.Error())
	}

	c.setState(VerifyingIdentity)

	api := c.apiClient(record.InstanceBaseURL)

	account, err := api.VerifyCredentials(ctx, token.AccessToken)
	if err != nil {
		// A token exists but the identity behind it could not be
		// confirmed; stale PKCE material must not linger.
		c.clearStore()
		c.setState(Failed)
		return nil, errors.Wrap(enginerr.ErrIdentityVerificationFailed, err.Error())
	}

	instance, err := api.GetInstance(ctx)
	if err != nil {
		c.clearStore()
		c.setState(Failed)
		return nil, errors.Wrap(enginerr.ErrIdentityVerificationFailed, err.Error())
	}

	c.clearStore()

	identity := session.AccountIdentity{
		ID:          account.ID,
		Username:    account.Username,
		Acct:        account.Acct,
		DisplayName: account.DisplayName,
		AvatarURL:   account.Avatar,
	}
	authorization := session.Authorization{
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		Scope:       tokenScope(token),
		IssuedAt:    c.nowTime(),
	}
	meta := session.InstanceMeta{
		Title:   instance.Title,
		Version: instance.Version,
	}
	domain := strings.TrimPrefix(record.InstanceBaseURL, "https://")

	stored, err := c.sessions.RegisterAccount(identity, authorization, meta, domain)
	if err != nil {
		c.setState(Failed)
		return nil, enginerr.Wrapf(err, "[HandleCallback] registering account")
	}

	c.setState(Completed)
	c.log.Info().Str("account", stored.Handle()).Msg("login completed")
	return stored, nil
}

func (c *OAuthClient) oauthConfig(baseURL, clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  c.settings.RedirectURI,
		Scopes:       c.settings.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   baseURL + "/oauth/authorize",
			TokenURL:  baseURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (c *OAuthClient) apiClient(baseURL string) *mastodon.Client {
	if c.httpClient != nil {
		return mastodon.NewClient(baseURL, mastodon.WithHTTPClient(c.httpClient))
	}
	return mastodon.NewClient(baseURL)
}

// exchangeContext routes the oauth2 token exchange through the injected
// HTTP client.
func (c *OAuthClient) exchangeContext(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *OAuthClient) clearStore() {
	if err := c.store.Clear(); err != nil {
		c.log.Error().Err(err).Msg("failed to clear pending login")
	}
}

// tokenScope extracts the granted scope set from the token response.
func tokenScope(token *oauth2.Token) string {
	if scope, ok := token.Extra("scope").(string); ok {
		return scope
	}
	return ""
}
