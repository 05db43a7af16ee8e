package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockCmdable struct {
	values map[string]string
	hashes map[string]map[string]string

	published []string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		values: map[string]string{},
		hashes: map[string]map[string]string{},
	}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	m.values[key] = toString(value)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if val, ok := m.values[key]; ok {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (m *mockCmdable) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	cmd := redis.NewMapStringStringCmd(ctx)
	cmd.SetVal(m.hashes[key])
	return cmd
}

func (m *mockCmdable) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if val, ok := m.hashes[key][field]; ok {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			delete(m.values, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	m.published = append(m.published, channel)
	cmd.SetVal(1)
	return cmd
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return ""
}

func TestCartValueLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.CartKey("sess-1")
	if key != "ushoes:cart:sess-1" {
		t.Fatalf("unexpected cart key %q", key)
	}

	if err := client.Set(ctx, key, `[{"product_id":"p1"}]`, 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if val != `[{"product_id":"p1"}]` {
		t.Fatalf("unexpected value %q", val)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestCatalogKeys(t *testing.T) {
	client := &Client{}
	if got := client.CatalogProductsKey(); got != "ushoes:catalog:products" {
		t.Fatalf("unexpected products key %q", got)
	}
	if got := client.CatalogUpdatesChannel(); got != "ushoes:catalog:updates" {
		t.Fatalf("unexpected updates channel %q", got)
	}
}

func TestHashReads(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.hashes["ushoes:catalog:products"] = map[string]string{
		"p1": `{"name":"Runner"}`,
	}
	client := &Client{store: mock}

	all, err := client.HGetAll(ctx, client.CatalogProductsKey())
	if err != nil {
		t.Fatalf("hgetall failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one product, got %d", len(all))
	}

	one, err := client.HGet(ctx, client.CatalogProductsKey(), "p1")
	if err != nil {
		t.Fatalf("hget failed: %v", err)
	}
	if one != `{"name":"Runner"}` {
		t.Fatalf("unexpected field value %q", one)
	}

	if _, err := client.HGet(ctx, client.CatalogProductsKey(), "missing"); err != redis.Nil {
		t.Fatalf("expected redis.Nil for missing field, got %v", err)
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Publish(ctx, client.CatalogUpdatesChannel(), "changed"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(mock.published) != 1 || mock.published[0] != "ushoes:catalog:updates" {
		t.Fatalf("unexpected publishes %v", mock.published)
	}
}
