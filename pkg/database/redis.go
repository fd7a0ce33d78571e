package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cropdesk/review-engine/pkg/config"
	"github.com/cropdesk/review-engine/pkg/retry"
)

// NewRedisClient creates a new Redis client with the given configuration.
// Returns nil if Redis is not configured (host is empty); callers fall back
// to file-backed persistence in that case.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := retry.Do(context.Background(), retry.DefaultConfig(), func() error {
		return client.Ping(context.Background()).Err()
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
