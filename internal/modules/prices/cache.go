package prices

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache is a TTL cache with a fixed capacity. When full, the entry closest
// to expiry is evicted to make room.
type Cache struct {
	mu       sync.Mutex
	store    *cache.Cache
	capacity int
	ttl      time.Duration
}

// NewCache creates a cache holding at most capacity entries for ttl each
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		store:    cache.New(ttl, 2*ttl),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get returns a live entry
func (c *Cache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Set stores a value, evicting expired entries and then the earliest
// expiring one if the cache is full
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store.Get(key); !exists && c.store.ItemCount() >= c.capacity {
		c.store.DeleteExpired()
		if c.store.ItemCount() >= c.capacity {
			c.evictEarliest()
		}
	}
	c.store.Set(key, value, c.ttl)
}

func (c *Cache) evictEarliest() {
	var oldestKey string
	var oldest int64
	for k, item := range c.store.Items() {
		if oldestKey == "" || item.Expiration < oldest {
			oldestKey, oldest = k, item.Expiration
		}
	}
	if oldestKey != "" {
		c.store.Delete(oldestKey)
	}
}

// Len returns the number of entries, including expired ones not yet cleaned up
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Flush removes every entry
func (c *Cache) Flush() {
	c.store.Flush()
}
