package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/events"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/pricing"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
	ErrCategoryExists  = errors.New("category already exists")
)

// ProductsPerCategory bounds each group of the home feed.
const ProductsPerCategory = 8

type ProductService interface {
	QueryProducts(ctx context.Context, q domain.ProductQuery) (*domain.Page, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ProductsByCategory(ctx context.Context) (map[string][]domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error)
}

type Options struct {
	DefaultLimit int
	MaxLimit     int
}

type productService struct {
	productRepo  repository.ProductStore
	categoryRepo repository.CategoryStore
	publisher    events.Publisher
	logger       *zap.Logger
	opts         Options
	now          func() time.Time
}

func NewProductService(
	productRepo repository.ProductStore,
	categoryRepo repository.CategoryStore,
	publisher events.Publisher,
	logger *zap.Logger,
	opts Options,
) ProductService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		publisher:    publisher,
		logger:       logger,
		opts:         opts,
		now:          time.Now,
	}
}

// QueryProducts runs one paginated listing. Bad numbers were already
// defaulted by Normalize, so the only error is a store failure.
func (s *productService) QueryProducts(ctx context.Context, q domain.ProductQuery) (*domain.Page, error) {
	q = q.Normalize(s.opts.DefaultLimit, s.opts.MaxLimit)

	items, total, err := s.productRepo.QueryProducts(ctx, q)
	if err != nil {
		s.logger.Error("Failed to query products",
			zap.Int("page", q.Page),
			zap.Int("limit", q.Limit),
			zap.String("search", q.Search),
			zap.String("category", q.Category),
			zap.String("sort", string(q.Sort)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	page := domain.NewPage(pricing.NormalizeProducts(items), total, q)
	return &page, nil
}

func (s *productService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to get product",
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, err
	}

	p := pricing.NormalizeProduct(*product)
	return &p, nil
}

// ProductsByCategory groups the newest products by category label, keeping
// at most ProductsPerCategory in each group.
func (s *productService) ProductsByCategory(ctx context.Context) (map[string][]domain.Product, error) {
	products, err := s.productRepo.ListProducts(ctx, domain.SortNewest)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	grouped := make(map[string][]domain.Product)
	for _, p := range products {
		if len(grouped[p.Category]) < ProductsPerCategory {
			grouped[p.Category] = append(grouped[p.Category], pricing.NormalizeProduct(p))
		}
	}
	return grouped, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

func (s *productService) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	now := s.now().UTC()

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}
	var price float64
	if req.Price != nil {
		price = *req.Price
	}

	product := &domain.Product{
		ID:                 uuid.NewString(),
		Name:               req.Name,
		Category:           req.Category,
		Price:              price,
		DiscountPercentage: pricing.Normalize(req.DiscountPercentage),
		ImageURL:           req.ImageURL,
		Description:        req.Description,
		InStock:            &inStock,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductExists) {
			return nil, ErrProductExists
		}
		s.logger.Error("Failed to save product",
			zap.String("product_id", product.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created successfully",
		zap.String("product_id", product.ID),
		zap.String("category", product.Category))

	s.publish(ctx, events.NewCatalogEvent(events.ProductCreated, product.ID, product.Category))
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.productRepo.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		s.logger.Error("Failed to delete product",
			zap.String("product_id", productID),
			zap.Error(err))
		return err
	}

	s.logger.Info("Product deleted", zap.String("product_id", productID))
	s.publish(ctx, events.NewCatalogEvent(events.ProductDeleted, productID, ""))
	return nil
}

func (s *productService) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error) {
	now := s.now().UTC()
	category := &domain.Category{
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categoryRepo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryExists) {
			return nil, ErrCategoryExists
		}
		s.logger.Error("Failed to save category",
			zap.String("category", req.Name),
			zap.Error(err))
		return nil, err
	}

	s.publish(ctx, events.NewCatalogEvent(events.CategoryCreated, "", category.Name))
	return category, nil
}

// publish never fails the write; the store is already updated.
func (s *productService) publish(ctx context.Context, event events.CatalogEvent) {
	event.RequestID = middleware.RequestIDFromContext(ctx)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish catalog event",
			zap.String("event_id", event.EventID),
			zap.String("type", string(event.Type)),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}
