package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/urbanshoes/storefront/pkg/redis"
)

// RedisStore persists cart lines as a single JSON value per session key.
// Only the lines are persisted, never the error state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wires cart persistence to the shared client. A zero TTL
// keeps carts until they are cleared.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart lines: %w", err)
	}
	return s.client.Set(ctx, s.client.CartKey(sessionID), string(payload), s.ttl)
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]Line, error) {
	payload, err := s.client.Get(ctx, s.client.CartKey(sessionID))
	if errors.Is(err, goredis.Nil) {
		return []Line{}, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []Line
	if err := json.Unmarshal([]byte(payload), &lines); err != nil {
		return nil, fmt.Errorf("decode cart lines: %w", err)
	}
	return lines, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.client.CartKey(sessionID))
}
