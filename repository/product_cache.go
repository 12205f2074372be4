package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pos-service/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ProductCache holds product snapshots read on the AddItem hot path. A miss is
// (nil, nil); callers fall back to the catalog.
type ProductCache interface {
	Get(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	Set(ctx context.Context, p *models.Product) error
	Invalidate(ctx context.Context, tenantID, productID uuid.UUID) error
}

const productCachePrefix = "pos:product:"

// RedisProductCache implements ProductCache on Redis.
type RedisProductCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisProductCache{redis: client, ttl: ttl}
}

func productCacheKey(tenantID, productID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", productCachePrefix, tenantID, productID)
}

func (c *RedisProductCache) Get(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	raw, err := c.redis.Get(ctx, productCacheKey(tenantID, productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("product cache get: %w", err)
	}

	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("product cache decode: %w", err)
	}
	return &p, nil
}

func (c *RedisProductCache) Set(ctx context.Context, p *models.Product) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("product cache encode: %w", err)
	}
	return c.redis.Set(ctx, productCacheKey(p.TenantID, p.ID), raw, c.ttl).Err()
}

func (c *RedisProductCache) Invalidate(ctx context.Context, tenantID, productID uuid.UUID) error {
	return c.redis.Del(ctx, productCacheKey(tenantID, productID)).Err()
}
