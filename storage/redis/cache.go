package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sumulas-rag/logic/retrieval"
)

var _ retrieval.QueryCache = (*QueryCache)(nil)

const queryPrefix = "selfquery:"

// QueryCache 自查询结果缓存，同一问题不重复调用 LLM
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient 创建 Redis 客户端并 Ping
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewQueryCache ttl <= 0 表示不过期
func NewQueryCache(client *redis.Client, ttl time.Duration) *QueryCache {
	return &QueryCache{client: client, ttl: ttl}
}

func key(question string) string {
	sum := sha1.Sum([]byte(question))
	return queryPrefix + hex.EncodeToString(sum[:])
}

// Get 未命中返回 (nil, false, nil)
func (c *QueryCache) Get(ctx context.Context, question string) (*retrieval.StructuredQuery, bool, error) {
	data, err := c.client.Get(ctx, key(question)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get structured query: %w", err)
	}

	var q retrieval.StructuredQuery
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal structured query: %w", err)
	}
	return &q, true, nil
}

func (c *QueryCache) Set(ctx context.Context, question string, q *retrieval.StructuredQuery) error {
	if q == nil {
		return nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal structured query: %w", err)
	}
	if err := c.client.Set(ctx, key(question), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save structured query: %w", err)
	}
	return nil
}
