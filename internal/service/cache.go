package service

import (
	"sync"
	"time"

	"github.com/vpierre44/formation-api/internal/domain"
)

// DefaultCacheTTL bounds how long a month index may be served without
// recomputation.
const DefaultCacheTTL = 2 * time.Minute

// availabilityKey identifies one month index. Today's date is part of the
// key so stale past-availability never survives a day boundary, whatever
// the TTL.
type availabilityKey struct {
	LogicielID  uint
	Year        int
	Month       time.Month
	Duration    int
	FormateurID string // numeric id or "all"
	Today       string
}

type availabilityEntry struct {
	index    domain.AvailabilityIndex
	storedAt time.Time
}

// availabilityCache is a TTL memo in front of the month computation.
// Entries are replaced wholesale, never patched. The clock is injected for
// testability.
type availabilityCache struct {
	mu      sync.Mutex
	entries map[availabilityKey]availabilityEntry
	ttl     time.Duration
	now     func() time.Time
}

func newAvailabilityCache(ttl time.Duration, now func() time.Time) *availabilityCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}

	return &availabilityCache{
		entries: make(map[availabilityKey]availabilityEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *availabilityCache) get(key availabilityKey) (domain.AvailabilityIndex, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.AvailabilityIndex{}, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return domain.AvailabilityIndex{}, false
	}

	return entry.index, true
}

func (c *availabilityCache) put(key availabilityKey, index domain.AvailabilityIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = availabilityEntry{index: index, storedAt: c.now()}
}

func (c *availabilityCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[availabilityKey]availabilityEntry)
}
