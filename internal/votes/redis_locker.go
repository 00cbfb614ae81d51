package votes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisLockPrefix = "subboard:vote-lock:"

// releaseScript deletes the lock only if it still carries our token, so an
// expired lock re-acquired by another instance is never released by us.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance talking to the same
// redis. Locks expire after ttl so a crashed holder cannot wedge a key.
type RedisLocker struct {
	rdb        goredis.UniversalClient
	ttl        time.Duration
	retryEvery time.Duration
	clock      clockwork.Clock
	logger     *zap.Logger
}

func NewRedisLocker(rdb goredis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		rdb:        rdb,
		ttl:        ttl,
		retryEvery: 5 * time.Millisecond,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
	}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisLockPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &StorageError{Op: "lock", Err: err}
		}
		if ok {
			break
		}

		select {
		case <-r.clock.After(r.retryEvery):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be done; release regardless
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.rdb, []string{redisKey}, token).Err(); err != nil {
				r.logger.Warn("failed to release vote lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
