package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ayash-Bera/nearby/pkg/utils"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Connect opens a pooled Redis client and verifies it with a ping.
func Connect(ctx context.Context, redisURL string, logger *logrus.Logger) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.PoolSize = 20
	redisOpts.MinIdleConns = 5
	redisOpts.MaxConnAge = time.Hour
	redisOpts.IdleTimeout = 30 * time.Minute

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established")
	return client, nil
}

// Redis stores JSON-encoded values under prefix+md5(key) with a fixed TTL.
// Capacity is left to the server's maxmemory policy.
type Redis[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRedis[V any](client *redis.Client, prefix string, ttl time.Duration, logger *logrus.Logger) *Redis[V] {
	return &Redis[V]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis[V]) key(key string) string {
	return r.prefix + utils.MD5Hash(key)
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var value V

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WithError(err).Warn("Redis cache read failed")
		}
		return value, false
	}

	if err := json.Unmarshal(data, &value); err != nil {
		r.logger.WithError(err).Warn("Discarding undecodable cache entry")
		return value, false
	}
	return value, true
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}
