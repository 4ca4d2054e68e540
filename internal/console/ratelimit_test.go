package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterExhaustsAndRefills(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(2, 1, start)

	require.True(t, rl.Allow(start))
	require.True(t, rl.Allow(start))
	require.False(t, rl.Allow(start))

	require.True(t, rl.Allow(start.Add(1500*time.Millisecond)))
	require.False(t, rl.Allow(start.Add(1500*time.Millisecond)))
}
