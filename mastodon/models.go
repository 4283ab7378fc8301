package mastodon

// AppRequest is the dynamic client registration request sent to
// POST /api/v1/apps.
type AppRequest struct {
	// ClientName is the human-readable application name shown on the
	// instance's authorization page.
	ClientName string `json:"client_name"`

	// RedirectURIs is the redirect URI the instance will accept for this
	// client. Must match the value later sent to /oauth/authorize and
	// /oauth/token exactly.
	RedirectURIs string `json:"redirect_uris"`

	// Scopes is the space-separated scope set the client may request.
	Scopes string `json:"scopes"`

	// Website is an optional link shown next to the client name.
	Website string `json:"website,omitempty"`
}

// App is the registered application returned from POST /api/v1/apps.
type App struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	VapidKey     string `json:"vapid_key,omitempty"`
}

// Account is the authenticated account returned from
// GET /api/v1/accounts/verify_credentials.
type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"` // handle@domain for remote accounts
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
	Header      string `json:"header,omitempty"`
	Locked      bool   `json:"locked,omitempty"`
	Bot         bool   `json:"bot,omitempty"`
}

// Instance is the server metadata returned from GET /api/v1/instance.
type Instance struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}
