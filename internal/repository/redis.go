package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"resbook/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisCounterCache держит счетчики непрочитанных уведомлений и
// лимиты попыток входа в Redis.
type RedisCounterCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisCounterCache(client *redis.Client, ttl time.Duration) *RedisCounterCache {
	return &RedisCounterCache{
		client: client,
		ttl:    ttl,
	}
}

func unreadKey(userID int64) string {
	return fmt.Sprintf("unread:%d", userID)
}

func (r *RedisCounterCache) GetUnreadCount(ctx context.Context, userID int64) (int64, bool, error) {
	if r.client == nil {
		return 0, false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, unreadKey(userID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get unread count from redis: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse unread count: %w", err)
	}
	return count, true, nil
}

func (r *RedisCounterCache) SetUnreadCount(ctx context.Context, userID int64, count int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Set(ctx, unreadKey(userID), count, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set unread count in redis: %w", err)
	}
	return nil
}

func (r *RedisCounterCache) InvalidateUnreadCount(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, unreadKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete unread count from redis: %w", err)
	}
	return nil
}

// CheckRateLimit counts hits for the key inside a fixed window. The
// first INCR creates the key and starts the window.
func (r *RedisCounterCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	redisKey := "rate_limit:" + key
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return count <= int64(limit), nil
}
