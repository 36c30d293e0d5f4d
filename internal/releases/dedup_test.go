// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeenCacheOverflowEviction(t *testing.T) {
	const maxEntries = 10

	cache := NewSeenCache(maxEntries, time.Hour)

	for i := 0; i < maxEntries+5; i++ {
		cache.MarkSeen(fmt.Sprintf("guid-%d", i))
	}

	assert.Equal(t, maxEntries, cache.Len())

	// Earliest inserted are gone
	for i := 0; i < 5; i++ {
		assert.False(t, cache.Has(fmt.Sprintf("guid-%d", i)), "guid-%d should be evicted", i)
	}

	// Most recent maxEntries remain
	for i := 5; i < maxEntries+5; i++ {
		assert.True(t, cache.Has(fmt.Sprintf("guid-%d", i)), "guid-%d should be present", i)
	}
}

func TestSeenCacheStaleEvictionOnHas(t *testing.T) {
	cache := NewSeenCache(100, time.Hour)

	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.MarkSeen("old-guid")
	require.True(t, cache.Has("old-guid"))

	// Two hours later the entry is stale, reported absent and removed
	current = current.Add(2 * time.Hour)
	assert.False(t, cache.Has("old-guid"))
	assert.Zero(t, cache.Len())
}

func TestSeenCachePurgeStale(t *testing.T) {
	cache := NewSeenCache(100, time.Hour)

	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.MarkSeen("stale-1")
	cache.MarkSeen("stale-2")

	current = current.Add(30 * time.Minute)
	cache.MarkSeen("fresh-1")

	removed := cache.PurgeStale(current.Add(45 * time.Minute))
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, cache.Len())
	assert.True(t, cache.Has("fresh-1"))
}

func TestSeenCacheRefreshKeepsInsertionOrder(t *testing.T) {
	cache := NewSeenCache(2, time.Hour)

	cache.MarkSeen("a")
	cache.MarkSeen("b")

	// Refreshing "a" must not move it to the back of the FIFO
	cache.MarkSeen("a")
	cache.MarkSeen("c")

	assert.False(t, cache.Has("a"))
	assert.True(t, cache.Has("b"))
	assert.True(t, cache.Has("c"))
}

func TestSeenCacheDefaults(t *testing.T) {
	cache := NewSeenCache(0, 0)

	assert.Equal(t, DefaultDedupMaxEntries, cache.maxEntries)
	assert.Equal(t, DefaultDedupMaxAge, cache.maxAge)
}
