// Package ratelimit provides the rate-limiting strategies the engine uses
// to limit the rate of driver creation (internal/driver) and, when running
// with a shared Redis instance, distributed job-fire throughput
// (internal/scheduler).
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter is the capability every strategy below satisfies.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() rate.Limit
	Burst() int
}

// TokenBucketLimiter is an in-process limiter backed by golang.org/x/time/rate.
type TokenBucketLimiter struct {
	limiter *rate.Limiter
}

func NewTokenBucketLimiter(rps int, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.limiter.Allow(), nil
}

func (l *TokenBucketLimiter) Limit() rate.Limit { return l.limiter.Limit() }
func (l *TokenBucketLimiter) Burst() int        { return l.limiter.Burst() }

// RedisRateLimiter implements a sliding-log limiter shared across every
// process pointed at the same Redis instance — used by the scheduler to
// cap how many job fires start per window cluster-wide, not just locally.
type RedisRateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{redis: client, limit: limit, window: window}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().Unix()
	windowStart := now - int64(r.window.Seconds())

	pipe := r.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: pipeline exec: %w", err)
	}

	if countCmd.Val() >= int64(r.limit) {
		return false, nil
	}

	member := fmt.Sprintf("%d:%s", now, key)
	if err := r.redis.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: member}).Err(); err != nil {
		return false, fmt.Errorf("ratelimit: zadd: %w", err)
	}
	r.redis.Expire(ctx, key, r.window)
	return true, nil
}

func (r *RedisRateLimiter) Limit() rate.Limit { return rate.Limit(float64(r.limit) / r.window.Seconds()) }
func (r *RedisRateLimiter) Burst() int        { return r.limit }

// SlidingWindowLimiter approximates a sliding window with two fixed
// buckets, trading a little precision for O(1) Redis round trips.
type SlidingWindowLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewSlidingWindowLimiter(client *redis.Client, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{redis: client, limit: limit, window: window}
}

func (s *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	currentWindow := now.Unix() / int64(s.window.Seconds())
	previousWindow := currentWindow - 1

	currentKey := fmt.Sprintf("%s:%d", key, currentWindow)
	previousKey := fmt.Sprintf("%s:%d", key, previousWindow)

	pipe := s.redis.Pipeline()
	currentCountCmd := pipe.Get(ctx, currentKey)
	previousCountCmd := pipe.Get(ctx, previousKey)
	pipe.Exec(ctx)

	currentCount, _ := strconv.Atoi(currentCountCmd.Val())
	previousCount, _ := strconv.Atoi(previousCountCmd.Val())

	windowProgress := float64(now.Unix()%int64(s.window.Seconds())) / s.window.Seconds()
	weightedCount := float64(previousCount)*(1-windowProgress) + float64(currentCount)
	if weightedCount >= float64(s.limit) {
		return false, nil
	}

	pipe = s.redis.Pipeline()
	pipe.Incr(ctx, currentKey)
	pipe.Expire(ctx, currentKey, s.window*2)
	pipe.Exec(ctx)
	return true, nil
}

func (s *SlidingWindowLimiter) Limit() rate.Limit {
	return rate.Limit(float64(s.limit) / s.window.Seconds())
}
func (s *SlidingWindowLimiter) Burst() int { return s.limit }
