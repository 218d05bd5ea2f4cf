package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	coreconfig "github.com/b10t/fish-shop/core/config"
	"github.com/b10t/fish-shop/core/logger"
)

const keyPrefix = "state:"

// RedisStore keeps conversation state in Redis, one key per user.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient connects to Redis and verifies connectivity.
func NewRedisClient(cfg coreconfig.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.RD.Info("redis connected",
		slog.String("event", "connect"),
		slog.String("addr", cfg.Addr()),
	)
	return client, nil
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(userID string) string {
	return keyPrefix + userID
}

// GetState returns the user's state tag or ErrNotFound.
func (s *RedisStore) GetState(ctx context.Context, userID string) (State, error) {
	raw, err := s.client.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session: get %s: %w", userID, err)
	}
	return ParseState(raw)
}

// SetState persists the state tag without expiry; sessions live until
// externally evicted.
func (s *RedisStore) SetState(ctx context.Context, userID string, st State) error {
	if err := s.client.Set(ctx, key(userID), string(st), 0).Err(); err != nil {
		return fmt.Errorf("session: set %s: %w", userID, err)
	}
	return nil
}

// Reset deletes the persisted state for the user.
func (s *RedisStore) Reset(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("session: reset %s: %w", userID, err)
	}
	return nil
}
