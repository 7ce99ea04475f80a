package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// cachedProductService is a read-through redis layer over ProductService.
// Every key embeds a generation number; Invalidate bumps it so all cached
// listings go stale at once and age out by TTL.
type cachedProductService struct {
	next        ProductService
	opts        Options
	redisClient *redis.Client
	prefix      string
	cacheTTL    time.Duration
	logger      *zap.Logger
}

type CachedProductService interface {
	ProductService
	Invalidate(ctx context.Context) error
}

// opts must match the wrapped service so equivalent queries share a key.
func NewCachedProductService(next ProductService, opts Options, redisClient *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) CachedProductService {
	return &cachedProductService{
		next:        next,
		opts:        opts,
		redisClient: redisClient,
		prefix:      prefix,
		cacheTTL:    ttl,
		logger:      logger,
	}
}

func (s *cachedProductService) genKey() string {
	return s.prefix + "gen"
}

func (s *cachedProductService) generation(ctx context.Context) (int64, error) {
	gen, err := s.redisClient.Get(ctx, s.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *cachedProductService) key(ctx context.Context, parts string) (string, bool) {
	gen, err := s.generation(ctx)
	if err != nil {
		s.logger.Warn("Cache unavailable, bypassing", zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("%s%d:%s", s.prefix, gen, parts), true
}

func (s *cachedProductService) get(ctx context.Context, key string, dest any) bool {
	data, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("Cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *cachedProductService) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *cachedProductService) Invalidate(ctx context.Context) error {
	if err := s.redisClient.Incr(ctx, s.genKey()).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

func (s *cachedProductService) invalidate(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
}

// queryKey is built from the normalized query: page=0 and page=1, or
// category "all" and no category, read the same entry.
func queryKey(q domain.ProductQuery, opts Options) string {
	q = q.Normalize(opts.DefaultLimit, opts.MaxLimit)
	return fmt.Sprintf("products:%d:%d:%s:%q:%q", q.Page, q.Limit, q.Sort, q.Category, q.Search)
}

func (s *cachedProductService) QueryProducts(ctx context.Context, q domain.ProductQuery) (*domain.Page, error) {
	key, ok := s.key(ctx, queryKey(q, s.opts))
	if ok {
		var page domain.Page
		if s.get(ctx, key, &page) {
			return &page, nil
		}
	}

	page, err := s.next.QueryProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	if ok {
		s.set(ctx, key, page)
	}
	return page, nil
}

func (s *cachedProductService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	key, ok := s.key(ctx, "product:"+productID)
	if ok {
		var product domain.Product
		if s.get(ctx, key, &product) {
			return &product, nil
		}
	}

	product, err := s.next.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if ok {
		s.set(ctx, key, product)
	}
	return product, nil
}

func (s *cachedProductService) ProductsByCategory(ctx context.Context) (map[string][]domain.Product, error) {
	key, ok := s.key(ctx, "by-category")
	if ok {
		var grouped map[string][]domain.Product
		if s.get(ctx, key, &grouped) {
			return grouped, nil
		}
	}

	grouped, err := s.next.ProductsByCategory(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		s.set(ctx, key, grouped)
	}
	return grouped, nil
}

func (s *cachedProductService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	key, ok := s.key(ctx, "categories")
	if ok {
		var categories []domain.Category
		if s.get(ctx, key, &categories) {
			return categories, nil
		}
	}

	categories, err := s.next.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		s.set(ctx, key, categories)
	}
	return categories, nil
}

func (s *cachedProductService) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	product, err := s.next.CreateProduct(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *cachedProductService) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.next.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *cachedProductService) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error) {
	category, err := s.next.CreateCategory(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return category, nil
}
