package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/config"
)

// Redis wraps the shared redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	return &Redis{Client: client}, nil
}

// Close shuts down the client.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// Ping verifies redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// AcquireLease takes a short-lived exclusive lease under key. It returns
// true when this process now holds the lease. Used to keep periodic jobs
// from running on more than one instance at a time.
func (r *Redis) AcquireLease(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	if r == nil || r.Client == nil {
		// Without redis there is nothing to coordinate against; run locally.
		return true, nil
	}
	return r.Client.SetNX(ctx, key, holder, ttl).Result()
}

// ReleaseLease drops the lease if this holder still owns it.
func (r *Redis) ReleaseLease(ctx context.Context, key, holder string) error {
	if r == nil || r.Client == nil {
		return nil
	}
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	return r.Client.Eval(ctx, script, []string{key}, holder).Err()
}
