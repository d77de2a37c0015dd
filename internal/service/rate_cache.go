package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/redis/go-redis/v9"
)

const rateCacheKey = "exchange_rate:current"

// RedisRateCache keeps the active rate in Redis for ttl.
type RedisRateCache struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewRedisRateCache(rdb redis.Cmdable, ttl time.Duration) *RedisRateCache {
	return &RedisRateCache{redis: rdb, ttl: ttl}
}

func (c *RedisRateCache) Get(ctx context.Context) (*models.ExchangeRate, error) {
	val, err := c.redis.Get(ctx, rateCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get rate: %w", err)
	}
	var rate models.ExchangeRate
	if err := json.Unmarshal(val, &rate); err != nil {
		return nil, fmt.Errorf("decode cached rate: %w", err)
	}
	return &rate, nil
}

func (c *RedisRateCache) Set(ctx context.Context, rate *models.ExchangeRate) error {
	payload, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("encode rate: %w", err)
	}
	return c.redis.Set(ctx, rateCacheKey, payload, c.ttl).Err()
}

func (c *RedisRateCache) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, rateCacheKey).Err()
}
