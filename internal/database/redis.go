package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mayabot/maya/internal/config"
)

// Redis wraps the two Redis connections the process needs: one for regular
// commands and publishing, and one dedicated to pub/sub subscriptions. A
// subscribed go-redis client cannot issue other commands, hence the split.
type Redis struct {
	client *redis.Client
	sub    *redis.Client
}

// NewRedis creates the Redis clients and verifies connectivity.
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := redis.NewClient(opts)
	sub := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client, sub: sub}, nil
}

// Client returns the command/publish client.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Subscribe opens a subscription on the dedicated subscriber connection.
func (r *Redis) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return r.sub.Subscribe(ctx, channels...)
}

// Close closes both Redis connections.
func (r *Redis) Close() error {
	var firstErr error
	if r.client != nil {
		firstErr = r.client.Close()
	}
	if r.sub != nil {
		if err := r.sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Ping verifies the Redis connection is alive.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Publish publishes a message on the given channel.
func (r *Redis) Publish(ctx context.Context, channel, message string) error {
	return r.client.Publish(ctx, channel, message).Err()
}

// IncrWithExpire increments a key and sets expiration if it doesn't exist.
func (r *Redis) IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiration)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
