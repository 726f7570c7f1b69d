// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLCacheSingleKey(t *testing.T) {
	tests := []struct {
		name           string
		skipCache      bool
		waitBeforeNext time.Duration
		expectedCount  int
	}{
		{
			name:          "fresh cache, fetch",
			expectedCount: 1,
		},
		{
			name:          "use cache, no fetch",
			expectedCount: 1,
		},
		{
			name:          "invalidate, fetch",
			skipCache:     true,
			expectedCount: 2,
		},
		{
			name:           "ttl expired, fetch",
			waitBeforeNext: 2 * time.Second,
			expectedCount:  3,
		},
	}
	cache := NewTTLCache[string, int](1 * time.Second)
	fetchCount := 0
	fetchFunc := func(_ string) (int, error) {
		fetchCount++
		return 42, nil
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			if tt.waitBeforeNext > 0 {
				time.Sleep(tt.waitBeforeNext)
			}

			val, err := cache.Get("deadline:eip155:1", fetchFunc, tt.skipCache)
			require.NoError(err)
			require.Equal(42, val)
			require.Equal(tt.expectedCount, fetchCount)
		})
	}
}

func TestTTLCacheFetchError(t *testing.T) {
	cache := NewTTLCache[string, int](time.Minute)
	fetchErr := errors.New("rpc unavailable")

	_, err := cache.Get("k", func(string) (int, error) { return 0, fetchErr }, false)
	require.ErrorIs(t, err, fetchErr)

	// A failed fetch must not poison the cache.
	_, ok := cache.Peek("k")
	require.False(t, ok)
	require.Zero(t, cache.Len())
}

func TestTTLCacheConcurrentFetchDeduplicated(t *testing.T) {
	cache := NewTTLCache[string, int](time.Minute)

	var fetches int
	var mu sync.Mutex
	slowFetch := func(string) (int, error) {
		mu.Lock()
		fetches++
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		return 7, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := cache.Get("same-key", slowFetch, false)
			require.NoError(t, err)
			require.Equal(t, 7, val)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, fetches)
}

func TestTTLCachePeek(t *testing.T) {
	cache := NewTTLCache[string, int](time.Nanosecond)

	_, ok := cache.Peek("k")
	require.False(t, ok)

	_, err := cache.Get("k", func(string) (int, error) { return 9, nil }, false)
	require.NoError(t, err)

	// Peek ignores freshness: even a stale value remains visible until
	// the next completed fetch replaces it.
	time.Sleep(time.Millisecond)
	val, ok := cache.Peek("k")
	require.True(t, ok)
	require.Equal(t, 9, val)
}
