package history

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the fixed key holding the serialized collection.
const DefaultRedisKey = "billfold:invoices"

// RedisStore keeps the collection under one fixed Redis key, for installs
// that want the history to outlive the local filesystem.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore builds a RedisStore on client using key (DefaultRedisKey when
// empty).
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the blob; a missing key means nothing stored yet.
func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("history: redis client not configured")
	}
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Store rewrites the blob under the fixed key with no expiry.
func (s *RedisStore) Store(ctx context.Context, data []byte) error {
	if s == nil || s.client == nil {
		return errors.New("history: redis client not configured")
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}
