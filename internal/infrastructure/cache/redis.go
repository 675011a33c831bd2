package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"seopro/app/internal/domain/content"
)

const redisKeyPrefix = "seopro:result:"

// Redis stores results as JSON values whose expiry is enforced by the server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ content.Cache = (*Redis)(nil)

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, eris.Wrap(err, "parsing redis url")
	}

	cache := NewRedisWithClient(redis.NewClient(opts), ttl)
	if err := cache.ping(ctx); err != nil {
		_ = cache.Close()
		return nil, eris.Wrap(err, "pinging redis")
	}

	return cache, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = content.DefaultCacheTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (*content.GenerationResult, bool, error) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if eris.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "reading cached result %s", key)
	}

	var result content.GenerationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, eris.Wrapf(err, "decoding cached result %s", key)
	}

	return &result, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, result content.GenerationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrapf(err, "encoding result %s", key)
	}

	if err := r.client.Set(ctx, redisKeyPrefix+key, payload, r.ttl).Err(); err != nil {
		return eris.Wrapf(err, "storing result %s", key)
	}
	return nil
}

func (r *Redis) ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
