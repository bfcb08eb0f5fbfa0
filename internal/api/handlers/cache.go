package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strconv"
	"sync"
	"time"

	"microgrid-sizer/internal/api/models"
	"microgrid-sizer/internal/model"
)

// defaultSeriesCacheLimit bounds the number of cached series.
const defaultSeriesCacheLimit = 64

// seriesEntry is one parsed time series
type seriesEntry struct {
	series    model.Series
	expiresAt time.Time
}

// SeriesCache keeps parsed time series keyed by a hash of the raw
// request input, so a client iterating on one series (simulate, then
// compare, then search) only pays for parsing once. Cached series are
// shared read-only. At most limit entries are kept; the oldest goes first.
type SeriesCache struct {
	mu    sync.RWMutex
	store map[string]*seriesEntry
	order []string
	ttl   time.Duration
	limit int
}

var (
	globalSeriesCache *SeriesCache
	seriesCacheOnce   sync.Once
)

// GetSeriesCache returns the process-wide cache. SERIES_CACHE_TTL sets
// the entry lifetime (default 30m); "0" disables caching and returns nil.
// SERIES_CACHE_LIMIT caps the entry count (default 64).
func GetSeriesCache() *SeriesCache {
	seriesCacheOnce.Do(func() {
		ttl := 30 * time.Minute
		if v := os.Getenv("SERIES_CACHE_TTL"); v != "" {
			if parsed, err := time.ParseDuration(v); err == nil {
				ttl = parsed
			}
		}
		limit := 0
		if v := os.Getenv("SERIES_CACHE_LIMIT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		if ttl > 0 {
			globalSeriesCache = NewSeriesCache(ttl, limit)
		}
	})
	return globalSeriesCache
}

// NewSeriesCache creates a cache; limit <= 0 means the default.
func NewSeriesCache(ttl time.Duration, limit int) *SeriesCache {
	if limit <= 0 {
		limit = defaultSeriesCacheLimit
	}
	return &SeriesCache{store: make(map[string]*seriesEntry), ttl: ttl, limit: limit}
}

// Get retrieves a series if present and not expired. A nil cache never hits.
func (c *SeriesCache) Get(key string) (model.Series, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.series, true
}

// Set stores a series, then drops expired entries and the oldest ones
// beyond the limit.
func (c *SeriesCache) Set(key string, series model.Series) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, ok := c.store[key]; ok {
		c.remove(key)
	}
	c.store[key] = &seriesEntry{series: series, expiresAt: now.Add(c.ttl)}
	c.order = append(c.order, key)

	// order is oldest first and every entry shares one ttl, so expired
	// entries sit at the front.
	for len(c.order) > 0 {
		oldest := c.order[0]
		if len(c.order) <= c.limit && !now.After(c.store[oldest].expiresAt) {
			break
		}
		delete(c.store, oldest)
		c.order = c.order[1:]
	}
}

func (c *SeriesCache) remove(key string) {
	delete(c.store, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *SeriesCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// seriesKey hashes the raw input. Records and CSV get distinct prefixes
// so equal bytes in the two formats never collide.
func seriesKey(in models.SeriesInput) string {
	h := sha256.New()
	if len(in.Records) > 0 {
		h.Write([]byte("records:"))
		h.Write(in.Records)
	} else {
		h.Write([]byte("csv:"))
		h.Write([]byte(in.CSV))
	}
	return hex.EncodeToString(h.Sum(nil))
}
