package auth

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"timebuddy/internal/config"
)

// TokenBlacklist remembers revoked token IDs until they would have expired.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const blacklistPrefix = "timebuddy:token:revoked:"

type RedisBlacklist struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewRedisBlacklist connects and pings Redis.
func NewRedisBlacklist(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisBlacklist, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	logger.Debug("redis connected", zap.String("addr", cfg.Addr))
	return &RedisBlacklist{rdb: rdb, logger: logger}, nil
}

func (b *RedisBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	return b.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *RedisBlacklist) Close() error {
	return b.rdb.Close()
}
