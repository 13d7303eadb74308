package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"weather-app/internal/models"
)

// Redis shares the snapshot cache between app instances.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis { return &Redis{rdb: rdb, ttl: ttl} }

func redisKey(k string) string { return "weather:snapshot:" + k }

func (c *Redis) Get(ctx context.Context, key string) (models.WeatherSnapshot, bool) {
	b, err := c.rdb.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return models.WeatherSnapshot{}, false
	}
	if err != nil {
		slog.Warn("snapshot cache read failed", "key", key, "error", err)
		return models.WeatherSnapshot{}, false
	}
	var snap models.WeatherSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		slog.Warn("snapshot cache entry unreadable", "key", key, "error", err)
		return models.WeatherSnapshot{}, false
	}
	return snap, true
}

func (c *Redis) Set(ctx context.Context, key string, data models.WeatherSnapshot) {
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, redisKey(key), b, c.ttl).Err(); err != nil {
		slog.Warn("snapshot cache write failed", "key", key, "error", err)
	}
}
