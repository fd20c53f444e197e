package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

const lockPollInterval = 25 * time.Millisecond

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func LockKey(name string) string { return "lock:" + name }

// Lock takes the distributed lock for name, polling until wait elapses.
// The lock expires after ttl even if never released. When Redis is
// unavailable Lock returns a no-op unlock and a nil error.
func (r *Redis) Lock(ctx context.Context, name string, ttl, wait time.Duration) (func(), error) {
	if !r.Available() {
		return func() {}, nil
	}
	key := LockKey(name)
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := r.SetIfNotExists(ctx, key, token, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() { r.release(key, token) }, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockTimeout
		}

		t := time.NewTimer(lockPollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (r *Redis) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Warn("release lock failed", zap.String("key", key), zap.Error(err))
	}
}
