package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for the login engine.
type Config struct {
	// AppName is the client name sent during dynamic app registration.
	AppName string `env:"APP_NAME" envDefault:"Kabinka"`

	// AppWebsite is the client website sent during dynamic app registration.
	AppWebsite string `env:"APP_WEBSITE" envDefault:"https://kabinka.app"`

	// RedirectURI is the fixed OAuth redirect URI registered with every
	// instance. It must match exactly between registration, the authorize
	// URL and the token exchange.
	RedirectURI string `env:"OAUTH_REDIRECT_URI" envDefault:"kabinka://oauth/mastodon"`

	// Scopes requested during registration and authorization,
	// space-separated.
	Scopes string `env:"OAUTH_SCOPES" envDefault:"read write follow push"`

	// DataFolder is where the bbolt databases live. Defaults to
	// ~/.kabinka when unset.
	DataFolder string `env:"DATA_FOLDER"`

	// Environment controls log format ("development" gets a console writer).
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Load reads configuration from the environment, honouring a .env file in
// the working directory when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DataFolder == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DataFolder = filepath.Join(home, ".kabinka")
	}

	return cfg, nil
}

// ScopeList returns the configured scopes split for the oauth2 config.
func (c Config) ScopeList() []string {
	return strings.Fields(c.Scopes)
}
