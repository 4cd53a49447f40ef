// Package cache puts a Redis-backed result cache in front of the search
// engine. Concurrent identical queries collapse into one computation via
// singleflight, and invalid queries are never cached.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kingxl111/search-engine/internal/search"
	"github.com/kingxl111/search-engine/pkg/logger"
	"github.com/kingxl111/search-engine/pkg/metrics"
	"github.com/kingxl111/search-engine/pkg/redis"
)

const keyPrefix = "search:q:"

// QueryCache caches SearchResults in Redis keyed by a hash of query text and
// limit.
type QueryCache struct {
	client  *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a QueryCache with the given TTL.
func New(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		client:  client,
		ttl:     ttl,
		metrics: m,
		logger:  logger.WithComponent("cache"),
	}
}

func cacheKey(query string, limit int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", query, limit)))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// Search returns the cached result for the query, or computes, caches, and
// returns it. Results flagged invalid pass through uncached.
func (c *QueryCache) Search(ctx context.Context, query string, limit int, compute func() search.SearchResult) search.SearchResult {
	key := cacheKey(query, limit)
	start := time.Now()

	if raw, err := c.client.Get(ctx, key); err == nil {
		var result search.SearchResult
		if err := json.Unmarshal(raw, &result); err == nil {
			c.hits.Add(1)
			if c.metrics != nil {
				c.metrics.CacheHitsTotal.Inc()
				c.metrics.SearchLatency.WithLabelValues("hit").Observe(time.Since(start).Seconds())
			}
			return result
		}
		c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		c.client.Del(ctx, key)
	} else if !redis.IsNilError(err) {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		result := compute()
		if result.Valid {
			c.store(ctx, key, result)
		}
		return result, nil
	})
	return v.(search.SearchResult)
}

func (c *QueryCache) store(ctx context.Context, key string, result search.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached query result. Called after an index reload.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "deleted", deleted)
	return nil
}

// Stats returns hit and miss counts since startup.
func (c *QueryCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
