package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ResultCache stores JSON-serialized read-model results under a TTL.
// With a nil client every Get is a miss and every Set is a no-op, so
// callers never branch on whether redis is configured.
type ResultCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewResultCache(client *redis.Client, log *zap.Logger) *ResultCache {
	return &ResultCache{client: client, log: log.Named("cache.result")}
}

// Get unmarshals the cached value into out and reports whether the key
// was present. Cache errors degrade to a miss.
func (c *ResultCache) Get(ctx context.Context, key string, out any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Warn("cache entry unreadable, dropping", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, key)
		return false
	}
	return true
}

// Set stores the value under the key for ttl. Failures are logged and
// swallowed.
func (c *ResultCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache value not serializable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
