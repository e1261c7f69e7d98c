package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each student's record under prefix+studentID.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a store that namespaces keys with prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Key returns the Redis key for a student's record.
func (s *RedisStore) Key(studentID string) string {
	return s.prefix + studentID
}

func (s *RedisStore) Load(ctx context.Context, studentID string) (*StudentProgress, error) {
	data, err := s.client.Get(ctx, s.Key(studentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load progress %s: %w", studentID, err)
	}
	p, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", studentID, err)
	}
	return p, nil
}

func (s *RedisStore) Save(ctx context.Context, studentID string, p *StudentProgress) error {
	data, err := encode(p)
	if err != nil {
		return fmt.Errorf("encode progress %s: %w", studentID, err)
	}
	if err := s.client.Set(ctx, s.Key(studentID), data, 0).Err(); err != nil {
		return fmt.Errorf("save progress %s: %w", studentID, err)
	}
	return nil
}
