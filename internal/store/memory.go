package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/weather-favorites/internal/weather"
)

type cachedForecast struct {
	entries  []weather.HourlyEntry
	storedAt time.Time
}

// MemoryCache is a concurrency-safe in-memory cache of external hourly forecasts,
// keyed by rounded coordinates and date.
type MemoryCache struct {
	mu sync.RWMutex

	data  map[string]cachedForecast
	order []string // insertion order, oldest first

	// retention configuration
	maxEntries int           // max number of cached forecasts (<= 0 = unlimited)
	maxAge     time.Duration // entries older than this are misses
	now        func() time.Time
}

var _ weather.ForecastCache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache with optional limits.
func NewMemoryCache(maxEntries int, maxAge time.Duration) *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]cachedForecast),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

func cacheKey(lat, lon float64, date time.Time) string {
	return fmt.Sprintf("%.4f:%.4f:%s", lat, lon, weather.DateOf(date).Format(weather.DateLayout))
}

// Get returns a copy of the cached entries if present and not expired.
func (c *MemoryCache) Get(lat, lon float64, date time.Time) ([]weather.HourlyEntry, bool) {
	key := cacheKey(lat, lon, date)

	c.mu.RLock()
	defer c.mu.RUnlock()

	f, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if c.maxAge > 0 && c.now().Sub(f.storedAt) > c.maxAge {
		return nil, false
	}
	out := make([]weather.HourlyEntry, len(f.entries))
	copy(out, f.entries)
	return out, true
}

// Save stores entries and enforces retention.
func (c *MemoryCache) Save(lat, lon float64, date time.Time, entries []weather.HourlyEntry) {
	key := cacheKey(lat, lon, date)
	stored := make([]weather.HourlyEntry, len(entries))
	copy(stored, entries)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; exists {
		c.removeFromOrder(key)
	}
	c.data[key] = cachedForecast{entries: stored, storedAt: c.now()}
	c.order = append(c.order, key)

	// Enforce retention by age.
	if c.maxAge > 0 {
		cutoff := c.now().Add(-c.maxAge)
		i := 0
		for ; i < len(c.order); i++ {
			if !c.data[c.order[i]].storedAt.Before(cutoff) {
				break
			}
			delete(c.data, c.order[i])
		}
		c.order = c.order[i:]
	}

	// Enforce retention by count.
	if c.maxEntries > 0 && len(c.order) > c.maxEntries {
		over := len(c.order) - c.maxEntries
		for _, k := range c.order[:over] {
			delete(c.data, k)
		}
		c.order = c.order[over:]
	}
}

// Len returns the number of cached forecasts.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *MemoryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
