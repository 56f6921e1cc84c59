package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsUpToMaxThenDenies(t *testing.T) {
	rl := NewRateLimiter(1, 60*time.Second)

	require.True(t, rl.Allow("1.2.3.4"))
	require.False(t, rl.Allow("1.2.3.4"), "second call within window must be denied")
}

func TestRateLimiterIsPerPeer(t *testing.T) {
	rl := NewRateLimiter(1, 60*time.Second)

	require.True(t, rl.Allow("peer-a"))
	require.True(t, rl.Allow("peer-b"), "a distinct peer must have its own budget")
	require.False(t, rl.Allow("peer-a"))
}

func TestRateLimiterAllowsAgainAfterWindowElapses(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)

	require.True(t, rl.Allow("peer"))
	require.False(t, rl.Allow("peer"))

	time.Sleep(60 * time.Millisecond)
	require.True(t, rl.Allow("peer"), "a call after the window elapses must be accepted")
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter(1, 60*time.Second)

	require.True(t, rl.Allow("peer"))
	require.False(t, rl.Allow("peer"))

	rl.Reset("peer")
	require.True(t, rl.Allow("peer"), "reset must clear accumulated history")
}
