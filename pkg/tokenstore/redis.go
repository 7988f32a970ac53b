package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the storage key used when none is configured.
const DefaultRedisKey = "authgate:session"

// Redis persists the session in Redis under a single key.
// The client should be obtained from pkg/redisconn.Open.
type Redis struct {
	client redis.UniversalClient
	key    string
}

// NewRedis creates a Redis-backed store. An empty key falls back to
// DefaultRedisKey.
func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// Save replaces the stored session.
func (r *Redis) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Join(ErrWriteFailed, fmt.Errorf("marshal session: %w", err))
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

// Load returns the stored session, or ErrNotFound when the key is absent.
func (r *Redis) Load(ctx context.Context) (*Session, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrReadFailed, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrReadFailed, fmt.Errorf("parse session record: %w", err))
	}
	if s.AccessToken == "" {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Clear removes the stored session.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}
