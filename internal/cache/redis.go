// Package cache implements the statistics cache on Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bhagyaj/Markr/internal/config"
	"github.com/bhagyaj/Markr/internal/logger"
	"github.com/bhagyaj/Markr/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const statsKeyPrefix = "markr:stats:"

type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func New(cfg *config.Config) (*StatsCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &StatsCache{
		client: rdb,
		ttl:    cfg.Redis.StatsTTL,
		log:    logger.For("cache"),
	}, nil
}

func (c *StatsCache) Close() error {
	return c.client.Close()
}

func (c *StatsCache) GetStatistics(ctx context.Context, testID string) (*model.Statistics, error) {
	data, err := c.client.Get(ctx, statsKeyPrefix+testID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stats model.Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *StatsCache) SetStatistics(ctx context.Context, testID string, stats *model.Statistics) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKeyPrefix+testID, data, c.ttl).Err()
}

func (c *StatsCache) InvalidateTests(ctx context.Context, testIDs []string) error {
	if len(testIDs) == 0 {
		return nil
	}
	keys := make([]string, len(testIDs))
	for i, id := range testIDs {
		keys[i] = statsKeyPrefix + id
	}
	c.log.Debug().Strs("test_ids", testIDs).Msg("Dropping cached statistics")
	return c.client.Del(ctx, keys...).Err()
}
