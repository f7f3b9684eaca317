package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wopiproxy/config"
	"wopiproxy/internal/model"
	"wopiproxy/internal/ports"
)

// CachedTenantRegistry decorates a ports.TenantRegistry with a short-lived
// Redis cache, so hot-path WOPI requests don't hit Postgres for tenant
// lookups on every call.
type CachedTenantRegistry struct {
	inner ports.TenantRegistry
	redis *config.RedisClient
	ttl   time.Duration
}

func NewCachedTenantRegistry(inner ports.TenantRegistry, redis *config.RedisClient, ttl time.Duration) *CachedTenantRegistry {
	return &CachedTenantRegistry{inner: inner, redis: redis, ttl: ttl}
}

func tenantCacheKey(id string) string { return fmt.Sprintf("tenant:%s", id) }

func (c *CachedTenantRegistry) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	key := tenantCacheKey(id)

	if cached, err := c.redis.Client.Get(ctx, key).Result(); err == nil {
		var t model.Tenant
		if jsonErr := json.Unmarshal([]byte(cached), &t); jsonErr == nil {
			return &t, nil
		}
	}

	t, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(t); err == nil {
		c.redis.Client.Set(ctx, key, encoded, c.ttl)
	}
	return t, nil
}

// GetByAPIToken is not cached: the raw token never appears in the cache key
// space, and the underlying lookup compares against bcrypt hashes anyway.
func (c *CachedTenantRegistry) GetByAPIToken(ctx context.Context, rawToken string) (*model.Tenant, error) {
	return c.inner.GetByAPIToken(ctx, rawToken)
}

func (c *CachedTenantRegistry) Create(ctx context.Context, t *model.Tenant) error {
	return c.inner.Create(ctx, t)
}

func (c *CachedTenantRegistry) List(ctx context.Context) ([]*model.Tenant, error) {
	return c.inner.List(ctx)
}

func (c *CachedTenantRegistry) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.redis.Client.Del(ctx, tenantCacheKey(id))
	return nil
}

// CachedStorageRegistry mirrors CachedTenantRegistry for storage lookups.
type CachedStorageRegistry struct {
	inner ports.StorageRegistry
	redis *config.RedisClient
	ttl   time.Duration
}

func NewCachedStorageRegistry(inner ports.StorageRegistry, redis *config.RedisClient, ttl time.Duration) *CachedStorageRegistry {
	return &CachedStorageRegistry{inner: inner, redis: redis, ttl: ttl}
}

func storageCacheKey(tenantID, storageID string) string {
	return fmt.Sprintf("storage:%s:%s", tenantID, storageID)
}

func (c *CachedStorageRegistry) GetByID(ctx context.Context, tenantID, storageID string) (*model.Storage, error) {
	key := storageCacheKey(tenantID, storageID)

	if cached, err := c.redis.Client.Get(ctx, key).Result(); err == nil {
		var s model.Storage
		if jsonErr := json.Unmarshal([]byte(cached), &s); jsonErr == nil {
			return &s, nil
		}
	}

	s, err := c.inner.GetByID(ctx, tenantID, storageID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(s); err == nil {
		c.redis.Client.Set(ctx, key, encoded, c.ttl)
	}
	return s, nil
}

func (c *CachedStorageRegistry) List(ctx context.Context, tenantID string) ([]*model.Storage, error) {
	return c.inner.List(ctx, tenantID)
}

func (c *CachedStorageRegistry) Create(ctx context.Context, s *model.Storage) error {
	return c.inner.Create(ctx, s)
}

func (c *CachedStorageRegistry) Delete(ctx context.Context, tenantID, storageID string) error {
	if err := c.inner.Delete(ctx, tenantID, storageID); err != nil {
		return err
	}
	c.redis.Client.Del(ctx, storageCacheKey(tenantID, storageID))
	return nil
}
