package catalog

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/urbanshoes/storefront/pkg/redis"
)

// RedisSource reads the catalog feed from the shared Redis hash and listens
// for change announcements on the catalog updates channel.
type RedisSource struct {
	client *redis.Client
}

// NewRedisSource wires the feed source to the shared client.
func NewRedisSource(client *redis.Client) (*RedisSource, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisSource{client: client}, nil
}

func (s *RedisSource) LoadProducts(ctx context.Context) (map[string]string, error) {
	return s.client.HGetAll(ctx, s.client.CatalogProductsKey())
}

func (s *RedisSource) LoadProduct(ctx context.Context, id string) (string, error) {
	payload, err := s.client.HGet(ctx, s.client.CatalogProductsKey(), id)
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return payload, err
}

func (s *RedisSource) SubscribeUpdates(ctx context.Context) (Listener, error) {
	pubsub, err := s.client.Subscribe(ctx, s.client.CatalogUpdatesChannel())
	if err != nil {
		return nil, err
	}
	listener := &redisListener{
		pubsub: pubsub,
		events: make(chan struct{}, 1),
	}
	go listener.forward()
	return listener, nil
}

type redisListener struct {
	pubsub *goredis.PubSub
	events chan struct{}
}

func (l *redisListener) Events() <-chan struct{} {
	return l.events
}

func (l *redisListener) Close() error {
	return l.pubsub.Close()
}

func (l *redisListener) forward() {
	defer close(l.events)
	for range l.pubsub.Channel() {
		select {
		case l.events <- struct{}{}:
		default:
		}
	}
}
