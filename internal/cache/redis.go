// Redis 기반 집계 결과 캐시
//
// 환경변수:
//   - REDIS_ADDR: host:port (비어 있으면 캐시 비활성)
//   - REDIS_PASSWORD
//   - REDIS_DB (default: 0)
//   - SUMMARY_CACHE_TTL (default: 30s)
//
// 캐시 실패는 조회 실패로 이어지지 않는다 (miss로 처리하고 DB에서 다시 조회)

package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/wellybot/wgvpn-admin/internal/config"
)

const keyPrefix = "wgvpn:"

// RedisCache - JSON 직렬화 캐시
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache - Addr가 없거나 연결에 실패하면 nil 반환 (캐시 없이 동작)
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) *RedisCache {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis not available, summary cache disabled: %v", err)
		_ = client.Close()
		return nil
	}

	log.Printf("Redis connected (addr=%s, ttl=%s)", cfg.Addr, cfg.TTL)
	return NewRedisCacheWithClient(client, cfg.TTL)
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get - 캐시 hit이면 dest에 디코딩하고 true
func (c *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Cache] Failed to get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[Cache] Failed to decode %s: %v", key, err)
		return false
	}
	return true
}

// Set - TTL 동안 value 저장
func (c *RedisCache) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[Cache] Failed to encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		log.Printf("[Cache] Failed to set %s: %v", key, err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
