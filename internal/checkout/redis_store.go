package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/urbanshoes/storefront/pkg/redis"
)

// RedisStore keeps checkout sessions in redis, one JSON value per session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wires checkout session persistence to the shared client.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode checkout session: %w", err)
	}
	return s.client.Set(ctx, s.client.CheckoutKey(session.SessionID), string(payload), s.ttl)
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	payload, err := s.client.Get(ctx, s.client.CheckoutKey(sessionID))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.client.CheckoutKey(sessionID))
}
