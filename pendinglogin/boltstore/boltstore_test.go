package boltstore_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kabinka/go-auth-client/pendinglogin/boltstore"
)

func openTestStore(t *testing.T, options ...boltstore.Option) *boltstore.Store {
	t.Helper()

	store, err := boltstore.Open(filepath.Join(t.TempDir(), "pending_login.db"), options...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	store := openTestStore(t, boltstore.WithNowTime(func() time.Time { return now }))

	state, err := store.Save("https://mastodon.social", "client-1", "secret-1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(state), 32)

	record, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, record)

	require.Equal(t, "https://mastodon.social", record.InstanceBaseURL)
	require.Equal(t, state, record.OAuthState)
	require.Equal(t, "client-1", record.ClientID)
	require.Equal(t, "secret-1", record.ClientSecret)
	require.NotEmpty(t, record.CodeVerifier)
	require.True(t, record.CreatedAt.Equal(now))
}

func TestLoadEmpty(t *testing.T) {
	store := openTestStore(t)

	record, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestSaveOverwritesPrevious(t *testing.T) {
	store := openTestStore(t)

	firstState, err := store.Save("https://mastodon.social", "client-1", "secret-1")
	require.NoError(t, err)

	secondState, err := store.Save("https://fosstodon.org", "client-2", "secret-2")
	require.NoError(t, err)
	require.NotEqual(t, firstState, secondState)

	record, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, "https://fosstodon.org", record.InstanceBaseURL)
	require.Equal(t, secondState, record.OAuthState)
	require.Equal(t, "client-2", record.ClientID)
}

func TestClearIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Save("https://mastodon.social", "client-1", "secret-1")
	require.NoError(t, err)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	record, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestRecordSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending_login.db")

	store, err := boltstore.Open(path)
	require.NoError(t, err)

	state, err := store.Save("https://mastodon.social", "client-1", "secret-1")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := boltstore.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	record, err := reopened.Load()
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, state, record.OAuthState)
	require.Equal(t, "client-1", record.ClientID)
}
