package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wopiproxy/config"
	"wopiproxy/internal/model"
	"wopiproxy/internal/repository"
)

type mockTenantRegistry struct{ mock.Mock }

func (m *mockTenantRegistry) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tenant), args.Error(1)
}
func (m *mockTenantRegistry) GetByAPIToken(ctx context.Context, token string) (*model.Tenant, error) {
	return nil, model.ErrNotFound
}
func (m *mockTenantRegistry) Create(ctx context.Context, t *model.Tenant) error { return nil }
func (m *mockTenantRegistry) List(ctx context.Context) ([]*model.Tenant, error) { return nil, nil }
func (m *mockTenantRegistry) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// newTestRedisClient connects to a local Redis instance. The registry cache
// is a thin decorator over go-redis, so exercising it meaningfully requires
// a real server; tests skip rather than fail when none is reachable.
func newTestRedisClient(t *testing.T) *config.RedisClient {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping: no local redis reachable: %v", err)
	}
	return &config.RedisClient{Client: client}
}

func TestCachedTenantRegistry_CachesAfterFirstLookup(t *testing.T) {
	redisClient := newTestRedisClient(t)
	defer redisClient.Client.Del(context.Background(), "tenant:tenant-1")

	inner := new(mockTenantRegistry)
	inner.On("GetByID", mock.Anything, "tenant-1").
		Return(&model.Tenant{ID: "tenant-1", Name: "acme"}, nil).Once()

	cache := repository.NewCachedTenantRegistry(inner, redisClient, time.Minute)

	got, err := cache.GetByID(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)

	got, err = cache.GetByID(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)

	inner.AssertExpectations(t)
}

func TestCachedTenantRegistry_DeleteInvalidatesCache(t *testing.T) {
	redisClient := newTestRedisClient(t)
	defer redisClient.Client.Del(context.Background(), "tenant:tenant-2")

	inner := new(mockTenantRegistry)
	inner.On("GetByID", mock.Anything, "tenant-2").
		Return(&model.Tenant{ID: "tenant-2", Name: "before"}, nil).Once()
	inner.On("Delete", mock.Anything, "tenant-2").Return(nil).Once()
	inner.On("GetByID", mock.Anything, "tenant-2").
		Return(&model.Tenant{ID: "tenant-2", Name: "after"}, nil).Once()

	cache := repository.NewCachedTenantRegistry(inner, redisClient, time.Minute)

	_, err := cache.GetByID(context.Background(), "tenant-2")
	require.NoError(t, err)

	require.NoError(t, cache.Delete(context.Background(), "tenant-2"))

	got, err := cache.GetByID(context.Background(), "tenant-2")
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)

	inner.AssertExpectations(t)
}
