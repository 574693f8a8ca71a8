package lock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL bounds how long a crashed holder can block others. A live
	// holder renews its lease every TTL/3.
	DefaultTTL = 30 * time.Second
	// DefaultRetryInterval is the pause between acquisition attempts.
	DefaultRetryInterval = 200 * time.Millisecond

	keyPrefix      = "lock:"
	releaseTimeout = 3 * time.Second
)

// ErrLockUnavailable wraps Redis failures while acquiring a lock.
var ErrLockUnavailable = errors.New("lock: backend unavailable")

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Only the holder's token may extend the lease.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisConfig holds connection and timing settings for the Redis locker.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	TTL           time.Duration
	RetryInterval time.Duration
}

// Redis is a SET NX PX lock shared by every process using the same server.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedis connects to the configured server and verifies it with PING.
func NewRedis(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrLockUnavailable, cfg.Addr, err)
	}
	return NewRedisWithClient(client, cfg.TTL, cfg.RetryInterval, logger), nil
}

// NewRedisWithClient wraps an existing client. Zero durations select defaults.
func NewRedisWithClient(client redis.UniversalClient, ttl, retry time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		retry:  retry,
		logger: logger.With("component", "redis_lock"),
	}
}

// Lock polls SET NX until it wins, ctx is done, or Redis fails. While held,
// the lease is renewed in the background so a slow holder keeps the key.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
		}
		if ok {
			r.logger.Debug("Lock acquired", "key", redisKey, "ttl", r.ttl)
			stop := make(chan struct{})
			stopped := make(chan struct{})
			go r.keepAlive(redisKey, token, stop, stopped)

			var once sync.Once
			return func() {
				once.Do(func() {
					close(stop)
					<-stopped
					r.release(redisKey, token)
				})
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// keepAlive extends the lease every ttl/3 until stop is closed or the key
// no longer carries token.
func (r *Redis) keepAlive(key, token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	interval := max(r.ttl/3, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := renewScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			r.logger.Warn("Failed to renew lock", "key", key, "error", err)
		case n == 0:
			r.logger.Warn("Lock lost before release", "key", key)
			return
		}
	}
}

func (r *Redis) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
		// The TTL frees the key eventually.
		r.logger.Warn("Failed to release lock", "key", key, "error", err)
		return
	}
	r.logger.Debug("Lock released", "key", key)
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
