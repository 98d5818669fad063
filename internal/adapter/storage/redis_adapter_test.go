package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

type cachedPayload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisCache(client)

	client.Del(ctx, "test:roundtrip")
	if err := cache.Set(ctx, "test:roundtrip", cachedPayload{Name: "chair", Price: 99.5}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got cachedPayload
	hit, err := cache.Get(ctx, "test:roundtrip", &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if got.Name != "chair" || got.Price != 99.5 {
		t.Errorf("unexpected payload: %+v", got)
	}

	client.Del(ctx, "test:roundtrip")
}

func TestCache_MissOnAbsentKey(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	cache := NewRedisCache(client)

	var got cachedPayload
	hit, err := cache.Get(context.Background(), "test:absent-key", &got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("expected miss for absent key")
	}
}

func TestCache_Delete(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisCache(client)

	cache.Set(ctx, "test:del:1", cachedPayload{}, time.Minute)
	cache.Set(ctx, "test:del:2", cachedPayload{}, time.Minute)

	if err := cache.Delete(ctx, "test:del:1", "test:del:2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var got cachedPayload
	hit, _ := cache.Get(ctx, "test:del:1", &got)
	if hit {
		t.Error("expected key to be deleted")
	}
}

func TestCache_DeleteByPrefix(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisCache(client)

	cache.Set(ctx, "test:prefix:a", cachedPayload{}, time.Minute)
	cache.Set(ctx, "test:prefix:b", cachedPayload{}, time.Minute)
	cache.Set(ctx, "test:other", cachedPayload{Name: "keep"}, time.Minute)

	if err := cache.DeleteByPrefix(ctx, "test:prefix:"); err != nil {
		t.Fatalf("delete by prefix failed: %v", err)
	}

	var got cachedPayload
	if hit, _ := cache.Get(ctx, "test:prefix:a", &got); hit {
		t.Error("expected test:prefix:a to be deleted")
	}
	if hit, _ := cache.Get(ctx, "test:prefix:b", &got); hit {
		t.Error("expected test:prefix:b to be deleted")
	}
	if hit, _ := cache.Get(ctx, "test:other", &got); !hit {
		t.Error("expected unrelated key to survive")
	}

	client.Del(ctx, "test:other")
}
