package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/hearc-ig/guideresto/pkg/config"
	"github.com/hearc-ig/guideresto/pkg/retry"
)

// ErrRedisNotConfigured is returned when a Redis client is requested without a host.
var ErrRedisNotConfigured = errors.New("redis host not configured")

func redisOptions(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:       net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: ApplicationName,
	}
}

// NewRedisClient connects to the Redis instance backing the identifier
// sequences. The ping is retried with retryCfg (nil uses retry.DefaultConfig).
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, retryCfg *retry.Config) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, ErrRedisNotConfigured
	}

	client := redis.NewClient(redisOptions(cfg))
	if err := retry.Do(ctx, retryCfg, func() error { return client.Ping(ctx).Err() }); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", client.Options().Addr, err)
	}
	return client, nil
}
