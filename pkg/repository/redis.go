package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/opticstore/pkg/config"
	"github.com/example/opticstore/pkg/models"
)

const (
	storeConfigKey = "store:config"
	storeConfigTTL = 10 * time.Minute
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg *config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
	}
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// CacheStoreConfig caches the singleton config read by every checkout.
func (r *RedisCache) CacheStoreConfig(ctx context.Context, cfg *models.StoreConfig) error {
	return r.SetJSON(ctx, storeConfigKey, cfg, storeConfigTTL)
}

// GetStoreConfig returns the cached config, or redis.Nil on a miss.
func (r *RedisCache) GetStoreConfig(ctx context.Context) (*models.StoreConfig, error) {
	var cfg models.StoreConfig
	if err := r.GetJSON(ctx, storeConfigKey, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InvalidateStoreConfig drops the cached config after an admin write.
func (r *RedisCache) InvalidateStoreConfig(ctx context.Context) error {
	return r.Del(ctx, storeConfigKey)
}
