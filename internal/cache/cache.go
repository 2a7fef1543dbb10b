// Package cache is the best-effort key-value layer in front of the supplier
// API. It is never a system of record: callers treat every error as a miss.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache: key not found")

// Store is the key-value contract the search pipeline depends on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore implements Store with GET / SET EX / DEL.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing client. rdb must not be nil.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return bs, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.SetEx(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Key builds "prefix:namespace:<sha1 of v as JSON>". Equal values always
// produce equal keys.
func Key(prefix, namespace string, v any) (string, error) {
	bs, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha1.Sum(bs)
	return fmt.Sprintf("%s:%s:%x", prefix, namespace, sum[:]), nil
}

// GetJSON reads key and decodes it into dest.
func GetJSON(ctx context.Context, s Store, key string, dest any) error {
	bs, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(bs, dest)
}

// SetJSON encodes value and stores it under key for ttl.
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	bs, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, bs, ttl)
}
