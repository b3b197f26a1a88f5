package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStorage keeps the session in Redis under a namespace. Keys never expire;
// token validity is only discovered through a 401 from the collaborator.
type RedisStorage struct {
	client    *redis.Client
	namespace string
	logger    zerolog.Logger
}

// ConnectRedis configures a Redis-backed storage using the supplied URL.
func ConnectRedis(url, namespace string, logger zerolog.Logger) (*RedisStorage, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return NewRedis(client, namespace, logger), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, namespace string, logger zerolog.Logger) *RedisStorage {
	return &RedisStorage{
		client:    client,
		namespace: strings.TrimSuffix(namespace, ":"),
		logger:    logger.With().Str("component", "redis_storage").Logger(),
	}
}

func (s *RedisStorage) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, s.key(key))
	}
	return s.client.Del(ctx, namespaced...).Err()
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
