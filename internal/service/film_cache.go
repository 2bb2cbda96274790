package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/film-service/internal/dto"
	"github.com/prperemyshlev/film-service/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RedisFilmCache caches film lookup responses in Redis
type RedisFilmCache struct {
	redis *database.Redis
	ttl   time.Duration
}

// NewRedisFilmCache creates a new Redis-backed film cache
func NewRedisFilmCache(redis *database.Redis, ttl time.Duration) *RedisFilmCache {
	return &RedisFilmCache{redis: redis, ttl: ttl}
}

func filmCacheKey(prefix string) string {
	return fmt.Sprintf("films:prefix:%s", prefix)
}

// Get returns the cached response for prefix, if any
func (c *RedisFilmCache) Get(ctx context.Context, prefix string) (*dto.FilmsResponse, bool, error) {
	raw, err := c.redis.Client.Get(ctx, filmCacheKey(prefix)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read film cache: %w", err)
	}

	var resp dto.FilmsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached films: %w", err)
	}

	return &resp, true, nil
}

// Set stores resp under prefix for the configured TTL
func (c *RedisFilmCache) Set(ctx context.Context, prefix string, resp *dto.FilmsResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode films: %w", err)
	}

	if err := c.redis.Client.Set(ctx, filmCacheKey(prefix), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write film cache: %w", err)
	}

	return nil
}

type noopFilmCache struct{}

func (noopFilmCache) Get(context.Context, string) (*dto.FilmsResponse, bool, error) {
	return nil, false, nil
}

func (noopFilmCache) Set(context.Context, string, *dto.FilmsResponse) error {
	return nil
}
