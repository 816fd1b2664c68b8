package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// CacheMetrics tracks cache performance
type CacheMetrics struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
}

// UnifiedCache is a generic in-memory cache with a sliding TTL: every successful
// read pushes the entry's expiration forward by ttl.
type UnifiedCache[T any] struct {
	mu      sync.Mutex
	items   map[string]cacheEntry[T]
	ttl     time.Duration
	name    string // For logging/debugging
	logger  *zap.Logger
	onEvict func(key string, value T)
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once

	hits, misses, sets, evictions atomic.Int64
}

type cacheEntry[T any] struct {
	value      T
	expiration int64
}

// Option configures a UnifiedCache.
type Option[T any] func(*UnifiedCache[T])

// WithEvictHandler registers a callback invoked (outside the lock) for every expired entry.
func WithEvictHandler[T any](fn func(key string, value T)) Option[T] {
	return func(c *UnifiedCache[T]) { c.onEvict = fn }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *UnifiedCache[T]) { c.now = now }
}

// NewUnifiedCache creates a new generic cache with specified TTL and name
func NewUnifiedCache[T any](ttl time.Duration, name string, logger *zap.Logger, opts ...Option[T]) *UnifiedCache[T] {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if none provided
	}
	c := &UnifiedCache[T]{
		items:  make(map[string]cacheEntry[T]),
		ttl:    ttl,
		name:   name,
		logger: logger,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.cleanup()
	return c
}

// Set stores an item in the cache with the given key
func (c *UnifiedCache[T]) Set(key string, value T) {
	c.mu.Lock()
	c.items[key] = cacheEntry[T]{value: value, expiration: c.deadline()}
	c.mu.Unlock()
	c.sets.Add(1)

	c.logger.Debug("Cache set",
		zap.String("cache", c.name),
		zap.String("key", key),
		zap.Duration("ttl", c.ttl),
	)
}

// Get retrieves an item from the cache and refreshes its expiration
func (c *UnifiedCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found || c.now().UnixNano() > item.expiration {
		c.misses.Add(1)
		var zero T
		c.logger.Debug("Cache miss",
			zap.String("cache", c.name),
			zap.String("key", key),
		)
		return zero, false
	}

	item.expiration = c.deadline()
	c.items[key] = item
	c.hits.Add(1)
	return item.value, true
}

// GetOrCreate returns the live entry for key, creating it with create when it is
// missing or expired. created reports whether create ran.
func (c *UnifiedCache[T]) GetOrCreate(key string, create func() T) (value T, created bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, found := c.items[key]; found && c.now().UnixNano() <= item.expiration {
		item.expiration = c.deadline()
		c.items[key] = item
		c.hits.Add(1)
		return item.value, false
	}

	c.misses.Add(1)
	value = create()
	c.items[key] = cacheEntry[T]{value: value, expiration: c.deadline()}
	c.sets.Add(1)
	c.logger.Debug("Cache entry created",
		zap.String("cache", c.name),
		zap.String("key", key),
	)
	return value, true
}

// Delete removes an item from the cache
func (c *UnifiedCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	c.logger.Debug("Cache delete",
		zap.String("cache", c.name),
		zap.String("key", key),
	)
}

// Clear removes all items from the cache
func (c *UnifiedCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheEntry[T])
	c.logger.Info("Cache cleared",
		zap.String("cache", c.name),
	)
}

// GetMetrics returns current cache metrics
func (c *UnifiedCache[T]) GetMetrics() CacheMetrics {
	return CacheMetrics{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Size returns the number of items in the cache
func (c *UnifiedCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the background cleanup goroutine.
func (c *UnifiedCache[T]) Close() {
	c.once.Do(func() { close(c.stop) })
}

// DeleteExpired removes every expired entry and fires the evict handler for each.
func (c *UnifiedCache[T]) DeleteExpired() int {
	type evicted struct {
		key   string
		value T
	}

	c.mu.Lock()
	now := c.now().UnixNano()
	var expired []evicted
	for key, item := range c.items {
		if now > item.expiration {
			expired = append(expired, evicted{key, item.value})
			delete(c.items, key)
		}
	}
	remaining := len(c.items)
	c.mu.Unlock()

	if len(expired) == 0 {
		return 0
	}

	c.evictions.Add(int64(len(expired)))
	if c.onEvict != nil {
		for _, e := range expired {
			c.onEvict(e.key, e.value)
		}
	}
	c.logger.Info("Cache cleanup",
		zap.String("cache", c.name),
		zap.Int("expired_items", len(expired)),
		zap.Int("remaining_items", remaining),
	)
	return len(expired)
}

func (c *UnifiedCache[T]) deadline() int64 {
	return c.now().Add(c.ttl).UnixNano()
}

// cleanup runs periodically to remove expired items
func (c *UnifiedCache[T]) cleanup() {
	ticker := time.NewTicker(c.ttl / 2) // Run cleanup twice per TTL period
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}
