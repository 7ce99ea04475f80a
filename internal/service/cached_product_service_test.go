package service

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository/memory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupCachedService needs a redis at REDIS_ADDR (default localhost:6379)
// and skips otherwise.
func setupCachedService(t *testing.T) (CachedProductService, *memory.Store) {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	prefix := fmt.Sprintf("test:%s:%d:", t.Name(), time.Now().UnixNano())
	t.Cleanup(func() {
		var cursor uint64
		for {
			keys, next, err := client.Scan(ctx, cursor, prefix+"*", 100).Result()
			if err != nil {
				break
			}
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
			if cursor = next; cursor == 0 {
				break
			}
		}
		client.Close()
	})

	store := memory.New()
	opts := Options{DefaultLimit: 20, MaxLimit: 100}
	base := NewProductService(store, store, nil, zap.NewNop(), opts)
	return NewCachedProductService(base, opts, client, prefix, time.Minute, zap.NewNop()), store
}

func TestCachedQueryServesFromCache(t *testing.T) {
	svc, store := setupCachedService(t)
	ctx := context.Background()

	require.NoError(t, store.CreateProduct(ctx, &domain.Product{ID: "a", Name: "A", CreatedAt: time.Now()}))

	q := domain.ProductQuery{Page: 1, Limit: 12}
	first, err := svc.QueryProducts(ctx, q)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)

	// A write that bypasses the service is invisible until invalidation.
	require.NoError(t, store.CreateProduct(ctx, &domain.Product{ID: "b", Name: "B", CreatedAt: time.Now()}))

	cached, err := svc.QueryProducts(ctx, q)
	require.NoError(t, err)
	assert.Len(t, cached.Items, 1)

	require.NoError(t, svc.Invalidate(ctx))

	fresh, err := svc.QueryProducts(ctx, q)
	require.NoError(t, err)
	assert.Len(t, fresh.Items, 2)
	assert.Equal(t, 1, fresh.Pages)
}

func TestCachedWritesInvalidate(t *testing.T) {
	svc, _ := setupCachedService(t)
	ctx := context.Background()

	grouped, err := svc.ProductsByCategory(ctx)
	require.NoError(t, err)
	assert.Empty(t, grouped)

	_, err = svc.CreateProduct(ctx, domain.CreateProductRequest{Name: "Lotion", Category: "Skincare", ImageURL: "/x", Description: "d"})
	require.NoError(t, err)

	grouped, err = svc.ProductsByCategory(ctx)
	require.NoError(t, err)
	assert.Len(t, grouped["Skincare"], 1)
}

func TestCachedNotFoundIsNotCached(t *testing.T) {
	svc, store := setupCachedService(t)
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, "late")
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, store.CreateProduct(ctx, &domain.Product{ID: "late", Name: "Late"}))

	p, err := svc.GetProduct(ctx, "late")
	require.NoError(t, err)
	assert.Equal(t, "Late", p.Name)
}

func TestQueryKeyUsesNormalizedQuery(t *testing.T) {
	opts := Options{DefaultLimit: 20, MaxLimit: 100}
	want := queryKey(domain.ProductQuery{Page: 1, Limit: 20, Sort: domain.SortNewest, Search: "lotion"}, opts)

	for _, q := range []domain.ProductQuery{
		{Search: "lotion"},
		{Page: 0, Limit: -1, Sort: "bogus", Category: domain.AllCategories, Search: "  lotion "},
		{Page: -3, Limit: 0, Category: domain.AllCategories, Search: "lotion"},
	} {
		assert.Equal(t, want, queryKey(q, opts), "%+v", q)
	}

	assert.NotEqual(t, want, queryKey(domain.ProductQuery{Page: 2, Search: "lotion"}, opts))
	assert.Equal(t, queryKey(domain.ProductQuery{Limit: 100}, opts), queryKey(domain.ProductQuery{Limit: 500}, opts))
}

func TestCachedQueryEquivalentQueriesShareEntry(t *testing.T) {
	svc, store := setupCachedService(t)
	ctx := context.Background()

	require.NoError(t, store.CreateProduct(ctx, &domain.Product{ID: "a", Name: "Lotion", Category: "Skincare", CreatedAt: time.Now()}))

	first, err := svc.QueryProducts(ctx, domain.ProductQuery{Page: 1, Limit: 20, Search: "lotion"})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)

	require.NoError(t, store.CreateProduct(ctx, &domain.Product{ID: "b", Name: "Lotion Two", Category: "Skincare", CreatedAt: time.Now()}))

	cached, err := svc.QueryProducts(ctx, domain.ProductQuery{Page: 0, Limit: -1, Category: domain.AllCategories, Search: " lotion "})
	require.NoError(t, err)
	assert.Len(t, cached.Items, 1)
}
