package services

import (
	"context"
	"errors"
	"time"

	"forum/internal/config"
	"forum/internal/utils"

	"github.com/redis/go-redis/v9"
)

// CacheStore 字符串键值缓存
type CacheStore interface {
	// Get 未命中时返回 ("", false, nil)
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCacheStore 基于 Redis 的缓存
type RedisCacheStore struct {
	client *redis.Client
}

// NewRedisCacheStore 通过依赖注入接收 Redis 客户端
func NewRedisCacheStore(client *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{client: client}
}

// Get 读取缓存
func (s *RedisCacheStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set 写入缓存
func (s *RedisCacheStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Delete 删除缓存
func (s *RedisCacheStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// MemoryCacheStore 进程内缓存，单实例部署或 Redis 未启用时使用
type MemoryCacheStore struct {
	cache *utils.MemoryCache
}

// NewMemoryCacheStore 创建进程内缓存
func NewMemoryCacheStore(cache *utils.MemoryCache) *MemoryCacheStore {
	return &MemoryCacheStore{cache: cache}
}

// Get 读取缓存
func (s *MemoryCacheStore) Get(_ context.Context, key string) (string, bool, error) {
	val, ok := s.cache.Get(key)
	return val, ok, nil
}

// Set 写入缓存
func (s *MemoryCacheStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

// Delete 删除缓存
func (s *MemoryCacheStore) Delete(_ context.Context, keys ...string) error {
	s.cache.Delete(keys...)
	return nil
}

// NewRedisClient 创建 Redis 客户端，未启用时返回 nil
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	utils.GetLogger().Info("Redis 连接成功", "addr", cfg.Addr, "db", cfg.DB)
	return client, nil
}
