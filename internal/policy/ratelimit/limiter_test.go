package ratelimit

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowBurstPerClient(t *testing.T) {
	t.Parallel()

	// One token every 100s: only the burst is available during the test.
	l := New(Config{RPS: 0.01, Burst: 2})

	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))

	require.True(t, l.Allow("10.0.0.2"), "buckets are independent per client")
	require.Equal(t, 2, l.Clients())
}

func TestLimiterDisabled(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	require.False(t, l.Enabled())
	for range 100 {
		require.True(t, l.Allow("client"))
	}
	require.Zero(t, l.Clients())
}

func TestLimiterDefaultsBurst(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.01})
	require.True(t, l.Allow("client"))
	require.False(t, l.Allow("client"))
}

func TestLimiterResetsWhenFull(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.01, Burst: 1, MaxClients: 3})
	for i := range 3 {
		require.True(t, l.Allow(fmt.Sprintf("client-%d", i)))
	}
	require.Equal(t, 3, l.Clients())

	require.True(t, l.Allow("client-3"))
	assert.Equal(t, 1, l.Clients())
	assert.True(t, l.Allow("client-0"), "reset table refills evicted clients")
}

func TestLimiterConcurrentAllow(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.01, Burst: 5})
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 5, allowed)
}
