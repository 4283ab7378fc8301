package pendinglogin_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kabinka/go-auth-client/pendinglogin"
)

func TestIsValid(t *testing.T) {
	now := time.Now()

	fresh := &pendinglogin.PendingLogin{CreatedAt: now}
	require.True(t, fresh.IsValid(now))

	nineMinutes := &pendinglogin.PendingLogin{CreatedAt: now.Add(-9 * time.Minute)}
	require.True(t, nineMinutes.IsValid(now))

	elevenMinutes := &pendinglogin.PendingLogin{CreatedAt: now.Add(-11 * time.Minute)}
	require.False(t, elevenMinutes.IsValid(now))

	exactlyTTL := &pendinglogin.PendingLogin{CreatedAt: now.Add(-pendinglogin.TTL)}
	require.False(t, exactlyTTL.IsValid(now))
}

func TestNewOAuthStateUnique(t *testing.T) {
	const trials = 10_000

	seen := make(map[string]struct{}, trials)
	for i := 0; i < trials; i++ {
		state, err := pendinglogin.NewOAuthState()
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(state), 32, "state must carry at least 32 characters")

		_, dup := seen[state]
		require.False(t, dup, "duplicate state after %d trials", i)
		seen[state] = struct{}{}
	}
}

func TestNewCodeVerifier(t *testing.T) {
	a := pendinglogin.NewCodeVerifier()
	b := pendinglogin.NewCodeVerifier()

	require.GreaterOrEqual(t, len(a), 32)
	require.NotEqual(t, a, b)
}
