// Command login runs the full OAuth login flow against a
// Mastodon-compatible instance from a terminal, using a localhost
// callback server in place of the mobile deep link.
//
// Usage:
//
//	login mastodon.social
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/kabinka/go-auth-client/auth"
	"github.com/kabinka/go-auth-client/internal/config"
	enginerr "github.com/kabinka/go-auth-client/internal/errors"
	"github.com/kabinka/go-auth-client/internal/logging"
	"github.com/kabinka/go-auth-client/pendinglogin/boltstore"
	"github.com/kabinka/go-auth-client/session"
	"github.com/kabinka/go-auth-client/session/boltregistry"
)

const callbackTimeout = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(os.Args) < 2 {
		return errors.New("usage: login <instance>")
	}
	instance := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(cfg.Environment)
	displayAppname(cfg.AppName)

	store, err := boltstore.Open(filepath.Join(cfg.DataFolder, "pending_login.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	registry, err := boltregistry.Open(filepath.Join(cfg.DataFolder, "accounts.db"))
	if err != nil {
		return err
	}
	defer registry.Close()

	manager := session.NewManager(registry, logger)
	if state := manager.CheckSessionState(); state.Phase == session.PhaseAuthenticated {
		fmt.Printf("Already logged in as %s\n", state.Session.Handle())
		return nil
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("starting callback listener: %w", err)
	}
	redirectURI := fmt.Sprintf("http://%s/callback", listener.Addr())

	client, err := auth.NewOAuthClient(auth.Settings{
		ClientName:  cfg.AppName,
		Website:     cfg.AppWebsite,
		RedirectURI: redirectURI,
		Scopes:      cfg.ScopeList(),
	}, store, manager, logger)
	if err != nil {
		return err
	}

	params := serveCallback(listener)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	authorizeURL, err := client.StartLogin(ctx, instance)
	if authorizeURL != "" {
		fmt.Printf("If your browser did not open, visit:\n\n  %s\n\n", authorizeURL)
	}
	if err != nil && authorizeURL == "" {
		return err
	}

	select {
	case p := <-params:
		stored, err := client.HandleCallback(ctx, p)
		if err != nil {
			if enginerr.Is(err, enginerr.ErrExpiredPendingLogin) {
				return errors.New("the login took too long and expired, run the command again")
			}
			return err
		}
		fmt.Printf("Logged in as %s on %s\n", stored.Handle(), stored.Instance.Title)
		return nil
	case <-ctx.Done():
		return errors.New("login cancelled")
	case <-time.After(callbackTimeout):
		return errors.New("no callback received before the pending login expired")
	}
}

// serveCallback accepts the single OAuth redirect on the listener and
// delivers its parameters.
func serveCallback(listener net.Listener) <-chan auth.CallbackParams {
	params := make(chan auth.CallbackParams, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		p, err := auth.ParseCallbackURL(r.URL.String())
		if err != nil {
			http.Error(w, "Malformed callback", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if p.Error != "" {
			fmt.Fprint(w, "<h1>Authorization failed</h1><p>You can close this window.</p>")
		} else {
			fmt.Fprint(w, "<h1>Authentication successful</h1><p>You can close this window and return to your terminal.</p>")
		}

		select {
		case params <- p:
		default:
		}
	})

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go server.Serve(listener)

	return params
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
