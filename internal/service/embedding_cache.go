package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// EmbeddingCache 关键词向量缓存
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vec []float32)
}

type RedisEmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEmbeddingCache(client *redis.Client, ttl time.Duration) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{client: client, ttl: ttl}
}

func embeddingCacheKey(embedder, keyword string) string {
	return "intent:emb:" + embedder + ":" + keyword
}

func (c *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (c *RedisEmbeddingCache) Set(ctx context.Context, key string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, c.ttl)
}
