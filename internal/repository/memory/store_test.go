package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryProductsPageSizes(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()
	for i := 0; i < 25; i++ {
		require.NoError(t, s.CreateProduct(ctx, &domain.Product{
			ID:        fmt.Sprintf("p%02d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	for _, limit := range []int{1, 7, 12, 25, 40} {
		for page := 1; page <= 5; page++ {
			q := domain.ProductQuery{Page: page, Limit: limit, Sort: domain.SortNewest}
			items, total, err := s.QueryProducts(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, int64(25), total)

			want := 25 - (page-1)*limit
			if want > limit {
				want = limit
			}
			if want < 0 {
				want = 0
			}
			assert.Len(t, items, want, "page=%d limit=%d", page, limit)
		}
	}
}

func TestDuplicatesAndMissing(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateProduct(ctx, &domain.Product{ID: "a"}))
	assert.ErrorIs(t, s.CreateProduct(ctx, &domain.Product{ID: "a"}), repository.ErrProductExists)
	assert.ErrorIs(t, s.DeleteProduct(ctx, "b"), repository.ErrProductNotFound)

	_, err := s.GetProduct(ctx, "b")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	require.NoError(t, s.CreateCategory(ctx, &domain.Category{Name: "Hair"}))
	assert.ErrorIs(t, s.CreateCategory(ctx, &domain.Category{Name: "Hair"}), repository.ErrCategoryExists)
}

func TestFailWith(t *testing.T) {
	s := New()
	boom := errors.New("store unavailable")
	s.FailWith(boom)

	_, _, err := s.QueryProducts(context.Background(), domain.ProductQuery{Page: 1, Limit: 1})
	assert.ErrorIs(t, err, boom)

	s.FailWith(nil)
	_, _, err = s.QueryProducts(context.Background(), domain.ProductQuery{Page: 1, Limit: 1})
	assert.NoError(t, err)
}
