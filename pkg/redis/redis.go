package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/halalverify/halal-backend/config"
	"github.com/halalverify/halal-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

var ErrLockNotAcquired = errors.New("lock is held by another owner")

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock that was taken over is never released by the old owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// Lock is a held SET NX PX lock.
type Lock struct {
	rdb   *redis.Client
	key   string
	token string
}

// AcquireLock polls SET NX PX until the key is ours or ctx ends. ttl bounds
// how long a crashed owner can block others.
func AcquireLock(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	backoff := 20 * time.Millisecond

	for {
		ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			logger.Error("Failed to acquire Redis lock", err, map[string]interface{}{
				"key": key,
			})
			return nil, err
		}
		if ok {
			logger.Debug("Redis lock acquired", map[string]interface{}{
				"key": key,
			})
			return &Lock{rdb: rdb, key: key, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

// Release drops the lock if this owner still holds it.
func (l *Lock) Release(ctx context.Context) error {
	res, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Int()
	if err != nil {
		logger.Error("Failed to release Redis lock", err, map[string]interface{}{
			"key": l.key,
		})
		return err
	}
	if res == 0 {
		logger.Warn("Redis lock expired before release", map[string]interface{}{
			"key": l.key,
		})
	}
	return nil
}
