package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agricoop/magasin-service/internal/config"
)

const loginAttemptsPrefix = "login_attempts:"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// FailedLogins returns the failed attempts recorded for username.
func (r *Redis) FailedLogins(ctx context.Context, username string) (int64, error) {
	n, err := r.Client.Get(ctx, loginAttemptsPrefix+username).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// RecordFailedLogin increments the counter for username. The window starts
// at the first failure.
func (r *Redis) RecordFailedLogin(ctx context.Context, username string, window time.Duration) (int64, error) {
	key := loginAttemptsPrefix + username
	n, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && window > 0 {
		if err := r.Client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// ResetFailedLogins clears the counter after a successful login.
func (r *Redis) ResetFailedLogins(ctx context.Context, username string) error {
	return r.Client.Del(ctx, loginAttemptsPrefix+username).Err()
}
