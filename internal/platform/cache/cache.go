// Package cache connects to Dragonfly/Redis, which backs the redis progress
// store and the per-student write locks.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second

	// DefaultLockPrefix namespaces per-student lock keys.
	DefaultLockPrefix = "tutor:lock:"
)

// Cache owns one Redis/Dragonfly client shared by every component.
type Cache struct {
	Client *redis.Client
}

// ParseURL turns a redis:// or rediss:// URL into client options.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout
	return opts, nil
}

// New dials url and fails fast if the server does not answer a PING.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging cache %s: %w", opts.Addr, err)
	}

	return &Cache{Client: client}, nil
}

// Locker returns a lock manager on this connection. An empty prefix uses
// DefaultLockPrefix.
func (c *Cache) Locker(prefix string, ttl time.Duration) *Locker {
	if prefix == "" {
		prefix = DefaultLockPrefix
	}
	return NewLocker(c.Client, prefix, ttl)
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck is used by the readiness probe.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache ping: %w", err)
	}
	return nil
}
