// internal/pool/cache.go
package pool

import (
	"context"
	"fmt"
	"strconv"
	"time"

	commonerrors "rental-pool/internal/common/errors"
	"rental-pool/internal/common/logger"
	"rental-pool/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// Cache is the optional read accelerator in front of the store. Every
// implementation must degrade failures internally: a failed read is a miss, a
// failed write or invalidation is a no-op. Callers never branch on cache
// availability.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	DeleteByPrefix(ctx context.Context, prefix string)
}

// Cache TTLs. TTL-only expiry is acceptable for the aggregate reads; anything
// correctness-sensitive is invalidated explicitly by the mutating component.
const (
	candidatesCacheTTL = 5 * time.Minute
	listingCacheTTL    = 2 * time.Minute
	statsCacheTTL      = 2 * time.Minute
	requestCacheTTL    = 5 * time.Minute
)

const statsCacheKey = "pool:stats"

// candidatesCacheKey uses the location and budget verbatim: the selection query
// is exact on both, so any normalization here would conflate entries that the
// store answers differently.
func candidatesCacheKey(location string, budget float64) string {
	return "pool:candidates:" + location + ":" + strconv.FormatFloat(budget, 'g', -1, 64)
}

func requestCacheKey(requestID string) string {
	return "pool:request:" + requestID
}

// landlordCachePrefix namespaces every cached listing page for one landlord so
// a single prefix delete invalidates all of them.
func landlordCachePrefix(landlordID string) string {
	return "pool:landlord:" + landlordID + ":"
}

func landlordListingCacheKey(landlordID string, page, limit int) string {
	return fmt.Sprintf("%srequests:p%d:l%d", landlordCachePrefix(landlordID), page, limit)
}

// RedisCache backs the Cache interface with Redis.
type RedisCache struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisCache(client *redis.Client, log logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "cache"}),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.CacheOperations.WithLabelValues("get", "error").Inc()
		c.logger.WithError(commonerrors.NewCacheUnavailableError(err.Error())).
			Warn("cache read failed, treating as miss", map[string]interface{}{"key": key})
		return nil, false
	}
	metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		metrics.CacheOperations.WithLabelValues("set", "error").Inc()
		c.logger.WithError(commonerrors.NewCacheUnavailableError(err.Error())).
			Warn("cache write failed", map[string]interface{}{"key": key})
		return
	}
	metrics.CacheOperations.WithLabelValues("set", "ok").Inc()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		metrics.CacheOperations.WithLabelValues("delete", "error").Inc()
		c.logger.WithError(commonerrors.NewCacheUnavailableError(err.Error())).
			Warn("cache invalidation failed", map[string]interface{}{"keys": keys})
		return
	}
	metrics.CacheOperations.WithLabelValues("delete", "ok").Inc()
}

func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		metrics.CacheOperations.WithLabelValues("delete_prefix", "error").Inc()
		c.logger.WithError(commonerrors.NewCacheUnavailableError(err.Error())).
			Warn("cache scan failed during prefix invalidation", map[string]interface{}{"prefix": prefix})
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		metrics.CacheOperations.WithLabelValues("delete_prefix", "error").Inc()
		c.logger.WithError(commonerrors.NewCacheUnavailableError(err.Error())).
			Warn("cache prefix invalidation failed", map[string]interface{}{"prefix": prefix})
		return
	}
	metrics.CacheOperations.WithLabelValues("delete_prefix", "ok").Inc()
}

// NopCache is the default when no Redis is configured. It encodes "cache
// disabled" so business logic never has to.
type NopCache struct{}

func NewNopCache() NopCache { return NopCache{} }

func (NopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (NopCache) Set(context.Context, string, []byte, time.Duration) {}

func (NopCache) Delete(context.Context, ...string) {}

func (NopCache) DeleteByPrefix(context.Context, string) {}
