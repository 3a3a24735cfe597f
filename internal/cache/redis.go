package cache

import (
	"context"
	"strings"
	"time"

	"github.com/kudamusaisiwa/royalprecast/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient builds a redis client when an address is configured, nil
// otherwise. Every consumer must tolerate a nil client; redis is an
// accelerator here, never a source of truth.
func NewClient(cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Named("cache").Warn("redis unreachable, running without cache", zap.String("addr", addr), zap.Error(err))
	}
	return client
}
