// Package memory keeps the catalog in process memory. It backs LOCAL_MODE
// and the tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
)

type Store struct {
	mu         sync.RWMutex
	products   map[string]domain.Product
	categories map[string]domain.Category

	// err, when set, fails every call.
	err error
}

func New() *Store {
	return &Store{
		products:   make(map[string]domain.Product),
		categories: make(map[string]domain.Category),
	}
}

// FailWith makes every following call return err; nil restores normal behavior.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) QueryProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, 0, s.err
	}

	var matched []domain.Product
	for _, p := range s.products {
		if q.Matches(p) {
			matched = append(matched, p)
		}
	}
	domain.SortProducts(matched, q.Sort)

	page := domain.Paginate(matched, q)
	out := make([]domain.Product, len(page))
	copy(out, page)
	return out, int64(len(matched)), nil
}

func (s *Store) ListProducts(ctx context.Context, order domain.SortOrder) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	domain.SortProducts(out, order)
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	p, ok := s.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	if _, ok := s.products[product.ID]; ok {
		return repository.ErrProductExists
	}
	s.products[product.ID] = *product
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	if _, ok := s.products[productID]; !ok {
		return repository.ErrProductNotFound
	}
	delete(s.products, productID)
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	if _, ok := s.categories[category.Name]; ok {
		return repository.ErrCategoryExists
	}
	s.categories[category.Name] = *category
	return nil
}
