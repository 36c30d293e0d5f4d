// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"sync"
	"time"
)

const (
	DefaultDedupMaxEntries = 5000
	DefaultDedupMaxAge     = 24 * time.Hour
)

type seenEntry struct {
	guid string
	seen time.Time
}

// SeenCache remembers which release GUIDs a job already processed. Bounded
// two ways: at most MaxEntries entries (oldest-inserted evicted first) and
// entries older than MaxAge are treated as absent. Safe for concurrent use.
type SeenCache struct {
	mu         sync.Mutex
	maxEntries int
	maxAge     time.Duration
	order      []string
	entries    map[string]time.Time

	now func() time.Time
}

// NewSeenCache builds a cache with the given bounds. Non-positive values
// fall back to the defaults.
func NewSeenCache(maxEntries int, maxAge time.Duration) *SeenCache {
	if maxEntries <= 0 {
		maxEntries = DefaultDedupMaxEntries
	}
	if maxAge <= 0 {
		maxAge = DefaultDedupMaxAge
	}

	return &SeenCache{
		maxEntries: maxEntries,
		maxAge:     maxAge,
		entries:    make(map[string]time.Time),
		now:        time.Now,
	}
}

// Has reports whether guid was seen within MaxAge. A stale entry is evicted
// as a side effect and reported absent.
func (c *SeenCache) Has(guid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen, ok := c.entries[guid]
	if !ok {
		return false
	}

	if c.now().Sub(seen) > c.maxAge {
		c.remove(guid)
		return false
	}

	return true
}

// MarkSeen records guid as processed. Re-marking an existing guid refreshes
// its timestamp but keeps its insertion position. On overflow the
// oldest-inserted entries are evicted down to MaxEntries.
func (c *SeenCache) MarkSeen(guid string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[guid]; ok {
		c.entries[guid] = c.now()
		return
	}

	c.entries[guid] = c.now()
	c.order = append(c.order, guid)

	if over := len(c.order) - c.maxEntries; over > 0 {
		for _, old := range c.order[:over] {
			delete(c.entries, old)
		}
		c.order = append(c.order[:0], c.order[over:]...)
	}
}

// PurgeStale removes every entry older than MaxAge and returns how many
// were removed. Intended for periodic maintenance.
func (c *SeenCache) PurgeStale(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	kept := c.order[:0]
	for _, guid := range c.order {
		seen, ok := c.entries[guid]
		if !ok {
			continue
		}
		if now.Sub(seen) > c.maxAge {
			delete(c.entries, guid)
			removed++
			continue
		}
		kept = append(kept, guid)
	}
	c.order = kept

	return removed
}

// Len returns the current entry count.
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove deletes guid from both the map and the insertion-order list.
// Caller holds the lock.
func (c *SeenCache) remove(guid string) {
	delete(c.entries, guid)
	for i, g := range c.order {
		if g == guid {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
