package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
)

// MemoryCache is an in-memory VideoCache for tests and local runs without
// a Redis instance. Same TTL and top-K trimming semantics as RedisCache.
type MemoryCache struct {
	mu        sync.RWMutex
	entries   map[string]*memoryEntry
	scores    map[string]float64
	ttl       time.Duration
	maxRanked int

	// now is swappable so TTL expiry is testable without sleeping.
	now func() time.Time
}

type memoryEntry struct {
	video     *model.Video
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory video cache.
func NewMemoryCache(ttl time.Duration, maxRanked int) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxRanked <= 0 {
		maxRanked = DefaultMaxRanked
	}
	return &MemoryCache{
		entries:   make(map[string]*memoryEntry),
		scores:    make(map[string]float64),
		ttl:       ttl,
		maxRanked: maxRanked,
		now:       time.Now,
	}
}

// Get retrieves a cached snapshot. Expired or absent entries miss.
func (c *MemoryCache) Get(ctx context.Context, id string) (*model.Video, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[id]
	if !exists || c.now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.video.Clone(), nil
}

// Set stores a snapshot with a fresh TTL.
func (c *MemoryCache) Set(ctx context.Context, video *model.Video) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[video.ID] = &memoryEntry{
		video:     video.Clone(),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate removes a single cached snapshot.
func (c *MemoryCache) Invalidate(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, id)
	return nil
}

// Bump adds delta to the popularity score for id and trims the ranking.
func (c *MemoryCache) Bump(ctx context.Context, id string, delta float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scores[id] += delta

	if len(c.scores) > c.maxRanked {
		for _, id := range c.rankedLocked()[c.maxRanked:] {
			delete(c.scores, id)
		}
	}
	return nil
}

// TopIDs returns up to limit ids by descending popularity score.
func (c *MemoryCache) TopIDs(ctx context.Context, limit int) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ranked := c.rankedLocked()
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// PopularCount returns the number of ranked ids.
func (c *MemoryCache) PopularCount(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.scores)), nil
}

// Clear removes all cached snapshots and the ranking.
func (c *MemoryCache) Clear(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := int64(len(c.entries))
	c.entries = make(map[string]*memoryEntry)
	c.scores = make(map[string]float64)
	return cleared, nil
}

// Ping always succeeds for the in-memory cache.
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// SetNow overrides the clock. Test hook.
func (c *MemoryCache) SetNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *MemoryCache) rankedLocked() []string {
	ids := make([]string, 0, len(c.scores))
	for id := range c.scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if c.scores[ids[i]] != c.scores[ids[j]] {
			return c.scores[ids[i]] > c.scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
