package repository

import (
	"context"
	"errors"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
	ErrCategoryExists  = errors.New("category already exists")
)

// ProductStore is a document collection of products.
type ProductStore interface {
	// QueryProducts returns one sorted page of matches and the total match count.
	QueryProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, int64, error)
	// ListProducts returns every product in the given order.
	ListProducts(ctx context.Context, order domain.SortOrder) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
}
