package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
)

const (
	// DefaultTTL is used when Put is called without a positive TTL
	DefaultTTL = 5 * time.Minute
	// DefaultMaxEntries bounds the number of cached resolutions
	DefaultMaxEntries = 1024
)

// ResolutionCache holds effective configs keyed by agent.CacheKey with a TTL.
//
// Entries are bounded by an LRU. Values are cloned on the way in and out, so
// callers can never mutate a cached config. Invalidation is scoped to one
// agent and bumps that agent's generation; PutIfGeneration refuses values
// computed under an older generation.
type ResolutionCache struct {
	// mu serializes writers and guards the generation counters. Reads of a
	// live entry go straight to the LRU.
	mu          sync.Mutex
	entries     *lru.Cache[string, *cachedConfig]
	generations map[string]uint64
	epoch       uint64

	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// cachedConfig holds a config with its expiry
type cachedConfig struct {
	agentID   string
	config    *agent.EffectiveConfig
	expiresAt time.Time
}

// Generation identifies the invalidation state of one agent at a point in time
type Generation struct {
	epoch uint64
	agent uint64
}

// Option configures ResolutionCache
type Option func(*ResolutionCache)

// WithTTL sets the default TTL
func WithTTL(ttl time.Duration) Option {
	return func(c *ResolutionCache) {
		c.ttl = ttl
	}
}

// WithMaxEntries sets the LRU capacity
func WithMaxEntries(n int) Option {
	return func(c *ResolutionCache) {
		c.maxEntries = n
	}
}

// WithClock replaces the time source used for expiry
func WithClock(now func() time.Time) Option {
	return func(c *ResolutionCache) {
		c.now = now
	}
}

// New creates a resolution cache
func New(opts ...Option) (*ResolutionCache, error) {
	c := &ResolutionCache{
		generations: make(map[string]uint64),
		ttl:         DefaultTTL,
		maxEntries:  DefaultMaxEntries,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}

	entries, err := lru.New[string, *cachedConfig](c.maxEntries)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LRU cache", goerr.V("max_entries", c.maxEntries))
	}
	c.entries = entries

	return c, nil
}

// Get returns a copy of the cached config for key. Expired entries are
// treated as absent and dropped.
func (c *ResolutionCache) Get(key string) (*agent.EffectiveConfig, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if c.now().After(entry.expiresAt) {
		c.removeIfSame(key, entry)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return entry.config.Clone(), true
}

// Put stores a copy of value under key, overwriting any existing entry. A
// non-positive ttl uses the default.
func (c *ResolutionCache) Put(key string, value *agent.EffectiveConfig, ttl time.Duration) {
	if value == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.add(key, value, ttl)
}

// PutIfGeneration stores value like Put, but only if the agent has not been
// invalidated since gen was taken. It reports whether the value was stored.
func (c *ResolutionCache) PutIfGeneration(key string, value *agent.EffectiveConfig, ttl time.Duration, gen Generation) bool {
	if value == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generationLocked(value.AgentID) != gen {
		return false
	}
	c.add(key, value, ttl)
	return true
}

// Generation returns the current invalidation state of agentID. Take it
// before reading from the store and pass it to PutIfGeneration.
func (c *ResolutionCache) Generation(agentID string) Generation {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generationLocked(agentID)
}

// Invalidate removes every entry built for agentID
func (c *ResolutionCache) Invalidate(agentID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[agentID]++

	removed := 0
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if ok && entry.agentID == agentID {
			c.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Clear removes every entry
func (c *ResolutionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.entries.Purge()
}

// CleanExpiredEntries removes expired entries and returns how many were removed
func (c *ResolutionCache) CleanExpiredEntries() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if ok && now.After(entry.expiresAt) {
			c.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Stats holds cache statistics
type Stats struct {
	Entries    int
	MaxEntries int
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	TTL        time.Duration
}

// Stats returns cache statistics for monitoring
func (c *ResolutionCache) Stats() Stats {
	return Stats{
		Entries:    c.entries.Len(),
		MaxEntries: c.maxEntries,
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Evictions:  c.evictions.Load(),
		TTL:        c.ttl,
	}
}

// StartCleanupWorker starts a background goroutine to periodically clean up expired entries
func (c *ResolutionCache) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.CleanExpiredEntries()
			}
		}
	}()
}

func (c *ResolutionCache) generationLocked(agentID string) Generation {
	return Generation{epoch: c.epoch, agent: c.generations[agentID]}
}

// add must be called with mu held
func (c *ResolutionCache) add(key string, value *agent.EffectiveConfig, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	evicted := c.entries.Add(key, &cachedConfig{
		agentID:   value.AgentID,
		config:    value.Clone(),
		expiresAt: c.now().Add(ttl),
	})
	if evicted {
		c.evictions.Add(1)
	}
}

func (c *ResolutionCache) removeIfSame(key string, entry *cachedConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.entries.Peek(key); ok && current == entry {
		c.entries.Remove(key)
	}
}
