package cache

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockRetryInterval = 50 * time.Millisecond

// ErrLockNotAcquired is returned when the context ends before the lock is free.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out exclusive, expiring locks stored in Redis/Dragonfly.
type Locker struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewLocker creates a Locker. Keys are namespaced with prefix.
func NewLocker(client redis.Cmdable, prefix string, ttl time.Duration) *Locker {
	return &Locker{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key used to lock name.
func (l *Locker) Key(name string) string {
	return l.prefix + name
}

// Lock blocks until the lock for name is held or ctx is done.
// The returned function releases it.
func (l *Locker) Lock(ctx context.Context, name string) (func(), error) {
	key := l.Key(name)
	token := lockToken()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	return func() { l.release(key, token) }, nil
}

// release runs on its own deadline so a cancelled request still frees the
// lock. A failure only delays the next holder until the TTL expires.
func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		slog.Warn("releasing lock", "key", key, "error", err)
	}
}

func lockToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
