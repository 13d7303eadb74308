package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"weather-app/internal/models"
)

func TestMemoryExpiry(t *testing.T) {
	c := New(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "q=london", models.WeatherSnapshot{Name: "London"})
	got, ok := c.Get(ctx, "q=london")
	if !ok || got.Name != "London" {
		t.Fatalf("expected hit, got %v %+v", ok, got)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(ctx, "q=london"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if n := c.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept entry, got %d", n)
	}
}

func TestMemoryMiss(t *testing.T) {
	c := New(time.Minute)
	if _, ok := c.Get(context.Background(), "missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestRedisUnavailableIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	c := NewRedis(rdb, time.Minute)

	ctx := context.Background()
	c.Set(ctx, "q=London", models.WeatherSnapshot{Name: "London"})
	if _, ok := c.Get(ctx, "q=London"); ok {
		t.Fatalf("expected miss when redis is unreachable")
	}
}
