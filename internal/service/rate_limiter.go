package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/film-service/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RateDecision is the outcome of a rate limit check
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis, now: time.Now}
}

// Allow records a request for key and reports whether it fits in the
// sliding window of the given size.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error) {
	now := r.now()
	windowStart := now.Add(-window)
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	// Sliding window log: one sorted-set member per request, scored by time.
	if err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano())).Err(); err != nil {
		return RateDecision{}, fmt.Errorf("failed to clean old entries: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return RateDecision{}, fmt.Errorf("failed to count entries: %w", err)
	}

	if count >= int64(limit) {
		decision := RateDecision{Allowed: false, Remaining: 0, RetryAfter: window}
		oldest, err := r.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			oldestTime := time.Unix(0, int64(oldest[0].Score))
			decision.RetryAfter = window - now.Sub(oldestTime)
		}
		return decision, nil
	}

	err = r.redis.Client.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
	}).Err()
	if err != nil {
		return RateDecision{}, fmt.Errorf("failed to add entry: %w", err)
	}

	// Expiry is best effort; the window cleanup above keeps the set bounded anyway.
	_ = r.redis.Client.Expire(ctx, redisKey, window+time.Minute).Err()

	return RateDecision{
		Allowed:   true,
		Remaining: limit - int(count) - 1,
	}, nil
}
