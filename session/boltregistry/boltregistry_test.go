package boltregistry_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kabinka/go-auth-client/session"
	"github.com/kabinka/go-auth-client/session/boltregistry"
)

func openTestRegistry(t *testing.T) *boltregistry.Registry {
	t.Helper()

	registry, err := boltregistry.Open(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })
	return registry
}

func addAccount(t *testing.T, registry *boltregistry.Registry, username string) *session.AccountSession {
	t.Helper()

	stored, err := registry.Add(
		session.AccountIdentity{ID: "id-" + username, Username: username, Acct: username},
		session.Authorization{AccessToken: "tok-" + username, TokenType: "Bearer", IssuedAt: time.Now()},
		session.InstanceMeta{Title: "Mastodon"},
		"mastodon.social",
	)
	require.NoError(t, err)
	return stored
}

func TestAddSetsLastActive(t *testing.T) {
	registry := openTestRegistry(t)

	stored := addAccount(t, registry, "alice")
	require.NotEmpty(t, stored.ID)

	active, err := registry.LastActive()
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, stored.ID, active.ID)
	require.Equal(t, "alice", active.Identity.Username)
	require.Equal(t, "tok-alice", active.Authorization.AccessToken)
}

func TestEnumerate(t *testing.T) {
	registry := openTestRegistry(t)

	accounts, err := registry.Enumerate()
	require.NoError(t, err)
	require.Empty(t, accounts)

	addAccount(t, registry, "alice")
	addAccount(t, registry, "bob")

	accounts, err = registry.Enumerate()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
}

func TestSetLastActiveSwitchesAccount(t *testing.T) {
	registry := openTestRegistry(t)

	alice := addAccount(t, registry, "alice")
	bob := addAccount(t, registry, "bob")

	active, err := registry.LastActive()
	require.NoError(t, err)
	require.Equal(t, bob.ID, active.ID)

	require.NoError(t, registry.SetLastActive(alice.ID))

	active, err = registry.LastActive()
	require.NoError(t, err)
	require.Equal(t, alice.ID, active.ID)
}

func TestDanglingPointerTreatedAsUnset(t *testing.T) {
	registry := openTestRegistry(t)

	addAccount(t, registry, "alice")
	require.NoError(t, registry.SetLastActive("no-such-record"))

	active, err := registry.LastActive()
	require.NoError(t, err)
	require.Nil(t, active, "a pointer naming a missing record must read as unset")
}

func TestAccountsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.db")

	registry, err := boltregistry.Open(path)
	require.NoError(t, err)

	stored := addAccount(t, registry, "alice")
	require.NoError(t, registry.Close())

	reopened, err := boltregistry.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	active, err := reopened.LastActive()
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, stored.ID, active.ID)
}
