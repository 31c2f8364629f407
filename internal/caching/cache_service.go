package caching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService fronts the ledger's hot read path and rate limits the public
// HTTP surface. Everything here is advisory: a cache or Redis outage
// degrades to Postgres reads, never to wrong answers.
type CacheService interface {
	// Latest-expiry caching for the access evaluator
	GetLatestExpiry(ctx context.Context, subscriberID int64) (time.Time, bool, error)
	SetLatestExpiry(ctx context.Context, subscriberID int64, expiry time.Time, ttl time.Duration) error
	InvalidateSubscriber(ctx context.Context, subscriberID int64) error

	// Fixed-window rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	return &redisCacheService{client: client}
}

func expiryKey(subscriberID int64) string {
	return fmt.Sprintf("signalgate:expiry:%d", subscriberID)
}

func (r *redisCacheService) GetLatestExpiry(ctx context.Context, subscriberID int64) (time.Time, bool, error) {
	unix, err := r.client.Get(ctx, expiryKey(subscriberID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, false, nil // cache miss
		}
		return time.Time{}, false, err
	}
	return time.Unix(unix, 0).UTC(), true, nil
}

func (r *redisCacheService) SetLatestExpiry(ctx context.Context, subscriberID int64, expiry time.Time, ttl time.Duration) error {
	return r.client.Set(ctx, expiryKey(subscriberID), expiry.Unix(), ttl).Err()
}

func (r *redisCacheService) InvalidateSubscriber(ctx context.Context, subscriberID int64) error {
	return r.client.Del(ctx, expiryKey(subscriberID)).Err()
}

// IsRateLimited counts hits in a fixed window and reports whether the key
// already exceeded the limit. The first hit sets the window TTL.
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rateKey := fmt.Sprintf("signalgate:ratelimit:%s", key)

	count, err := r.client.Incr(ctx, rateKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, rateKey, window).Err(); err != nil {
			return false, err
		}
	}
	return count > int64(limit), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
