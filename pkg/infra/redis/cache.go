package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// resultKeyPrefix 可行性结果缓存键前缀
const resultKeyPrefix = "feasibility:cache:"

// ResultCache 可行性报告缓存（按请求内容哈希）
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache 创建缓存；ttl <= 0 时 Get 总是未命中、Set 不写入
func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Enabled 是否启用
func (c *ResultCache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Key 请求的缓存键（请求需可确定性序列化）
func Key(request interface{}) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return resultKeyPrefix + hex.EncodeToString(sum[:]), nil
}

// Get 读取缓存，未命中返回 nil, nil
func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached result: %w", err)
	}
	return data, nil
}

// Set 写入缓存
func (c *ResultCache) Set(ctx context.Context, key string, result []byte) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Set(ctx, key, result, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}
