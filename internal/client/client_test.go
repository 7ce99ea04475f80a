package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/feed"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/handler"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository/memory"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupServer(t *testing.T) (*Client, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	svc := service.NewProductService(store, store, nil, zap.NewNop(), service.Options{DefaultLimit: 20, MaxLimit: 100})
	srv := httptest.NewServer(handler.NewRouter(svc, zap.NewNop()))
	t.Cleanup(srv.Close)

	return New(srv.URL, srv.Client(), zap.NewNop()), store
}

func seed(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, store.CreateProduct(context.Background(), &domain.Product{
			ID:        fmt.Sprintf("p%02d", i),
			Name:      fmt.Sprintf("Product %d", i),
			Category:  "Skincare",
			Price:     20,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestFetchPage(t *testing.T) {
	c, store := setupServer(t)
	seed(t, store, 25)

	page, err := c.FetchPage(context.Background(), feed.Params{Category: "Skincare", Sort: domain.SortOldest}, 3, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 3, page.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p24", page.Items[0].ID)
}

func TestFetchPageEmpty(t *testing.T) {
	c, _ := setupServer(t)

	page, err := c.FetchPage(context.Background(), feed.Params{Search: "nothing"}, 1, 12)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Pages)
}

func TestFeedScrollsThroughCatalog(t *testing.T) {
	c, store := setupServer(t)
	seed(t, store, 25)
	ctx := context.Background()

	f := feed.New(c, feed.Params{Category: "Skincare"})
	f.Start(ctx)
	f.Wait()

	st := f.Snapshot()
	require.NoError(t, st.Err)
	assert.Len(t, st.Items, 12)
	assert.Equal(t, 3, st.Pages)

	require.True(t, f.ReachedBottom(ctx))
	f.Wait()
	assert.Len(t, f.Snapshot().Items, 24)

	require.NoError(t, f.LoadMore(ctx))
	f.Wait()

	assert.False(t, f.ReachedBottom(ctx))
	assert.ErrorIs(t, f.LoadMore(ctx), feed.ErrNoMorePages)

	st = f.Snapshot()
	require.NoError(t, st.Err)
	require.Len(t, st.Items, 25)
	assert.Equal(t, 3, st.Page)
	assert.Equal(t, "p24", st.Items[0].ID)
	assert.Equal(t, "p00", st.Items[24].ID)

	seen := map[string]bool{}
	for _, p := range st.Items {
		assert.False(t, seen[p.ID], p.ID)
		seen[p.ID] = true
	}
}

func TestFeedFailsWhenServiceErrors(t *testing.T) {
	c, store := setupServer(t)
	store.FailWith(errors.New("disk full"))

	f := feed.New(c, feed.Params{})
	f.Start(context.Background())
	f.Wait()

	st := f.Snapshot()
	assert.Equal(t, feed.StatusFailed, st.Status())

	var apiErr *APIError
	require.ErrorAs(t, st.Err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, apiErr.Message, "disk full")
}

func TestGetProduct(t *testing.T) {
	c, store := setupServer(t)
	seed(t, store, 1)
	ctx := context.Background()

	p, err := c.GetProduct(ctx, "p00")
	require.NoError(t, err)
	assert.Equal(t, "Product 0", p.Name)

	_, err = c.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateAndDelete(t *testing.T) {
	c, _ := setupServer(t)
	ctx := context.Background()

	discount, price := 25.0, 40.0
	p, err := c.CreateProduct(ctx, domain.CreateProductRequest{
		Name:               "Serum",
		Category:           "Skincare",
		Price:              &price,
		DiscountPercentage: &discount,
		ImageURL:           "/uploads/serum.png",
		Description:        "vitamin c",
	})
	require.NoError(t, err)
	require.NotNil(t, p.DiscountPercentage)
	assert.Equal(t, 25.0, *p.DiscountPercentage)
	assert.Equal(t, 40.0, p.Price)

	grouped, err := c.ProductsByCategory(ctx)
	require.NoError(t, err)
	assert.Len(t, grouped["Skincare"], 1)

	require.NoError(t, c.DeleteProduct(ctx, p.ID))
	_, err = c.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestValidationErrorIsAPIError(t *testing.T) {
	c, _ := setupServer(t)

	price := 1.0
	_, err := c.CreateProduct(context.Background(), domain.CreateProductRequest{Price: &price})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "is required")
}

func TestCategories(t *testing.T) {
	c, _ := setupServer(t)
	ctx := context.Background()

	cat, err := c.CreateCategory(ctx, "Hair")
	require.NoError(t, err)
	assert.Equal(t, "Hair", cat.Name)

	_, err = c.CreateCategory(ctx, "Hair")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	categories, err := c.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c, _ := setupServer(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := c.CreateProduct(ctx, domain.CreateProductRequest{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	c, store := setupServer(t)
	store.FailWith(errors.New("down"))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.FetchPage(ctx, feed.Params{}, 1, 12)
		require.Error(t, err)
	}

	_, err := c.FetchPage(ctx, feed.Params{}, 1, 12)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil)
	_, err := c.FetchPage(context.Background(), feed.Params{}, 1, 12)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Message)
}
