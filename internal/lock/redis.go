package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another writer is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX, so it holds across every
// replica sharing the Redis instance.
type RedisLocker struct {
	client  redis.UniversalClient
	ttl     time.Duration
	maxWait time.Duration
	poll    time.Duration
}

// NewRedisLocker creates a locker whose locks expire after ttl and whose
// Acquire gives up after maxWait.
func NewRedisLocker(client redis.UniversalClient, ttl, maxWait time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  client,
		ttl:     ttl,
		maxWait: maxWait,
		poll:    20 * time.Millisecond,
	}
}

// Acquire polls until the key is free, maxWait elapses, or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.maxWait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", redisKey, err)
		}
		if ok {
			return l.releaser(redisKey, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		case <-time.After(l.poll):
		}
	}
}

func (l *RedisLocker) releaser(redisKey, token string) Release {
	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			if e := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); e != nil {
				err = fmt.Errorf("redis release %s: %w", redisKey, e)
			}
		})
		return err
	}
}
