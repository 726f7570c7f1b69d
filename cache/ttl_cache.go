// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache provides the TTL cache backing deadline polls and fee
// quotes. Overlapping fetches for the same key are deduplicated; a
// completed fetch simply replaces the previous value (last-writer-wins),
// which is safe because poll results are monotonic in block height.
package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type item[V any] struct {
	value     V
	timestamp time.Time
}

// TTLCache tracks a freshness window per key and deduplicates concurrent
// fetches for the same key through a single-flight group.
type TTLCache[K comparable, V any] struct {
	data    map[K]item[V]
	ttl     time.Duration
	lock    sync.RWMutex
	sfGroup singleflight.Group
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]item[V]),
		ttl:  ttl,
	}
}

// Get returns the cached value for key if it is still fresh, otherwise
// fetches it with fetchFunc. If invalidate is true the stale value is
// cleared before fetching so no reader observes it; callers racing on the
// same key share the single in-flight fetch and its result.
func (c *TTLCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	if invalidate {
		c.lock.Lock()
		delete(c.data, key)
		c.lock.Unlock()
	} else {
		c.lock.RLock()
		cached, exists := c.data[key]
		c.lock.RUnlock()
		if exists && time.Since(cached.timestamp) < c.ttl {
			return cached.value, nil
		}
	}

	v, err, _ := c.sfGroup.Do(keyToString(key), func() (interface{}, error) {
		value, fetchErr := fetchFunc(key)
		if fetchErr != nil {
			return *new(V), fetchErr
		}

		c.lock.Lock()
		c.data[key] = item[V]{value: value, timestamp: time.Now()}
		c.lock.Unlock()

		return value, nil
	})
	if err != nil {
		return *new(V), err
	}
	return v.(V), nil
}

// Peek returns the cached value for key regardless of freshness, without
// fetching. Used for "latest known" reads between polls.
func (c *TTLCache[K, V]) Peek(key K) (V, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	cached, exists := c.data[key]
	return cached.value, exists
}

// Len returns the number of cached entries, fresh or stale.
func (c *TTLCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.data)
}

// keyToString allows both fmt.Stringer and primitive string keys in the
// single-flight group.
func keyToString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
