// Package client talks to the catalog HTTP API. A Client is also a
// feed.Source, so a Feed can page through a remote catalog.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/feed"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxBodySize = 4 << 20

var ErrProductNotFound = errors.New("product not found")

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx answer or an envelope with success=false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d message=%s", e.Status, e.Message)
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Client struct {
	doer    Doer
	baseURL string
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ feed.Source = (*Client)(nil)

// New builds a Client for baseURL (e.g. http://localhost:8080). A nil doer
// uses an http.Client with a 15s timeout.
func New(baseURL string, doer Doer, logger *zap.Logger) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        "CatalogService",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		// 4xx answers mean the service is up.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		doer:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		cb:      gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// FetchPage runs one paginated listing query.
func (c *Client) FetchPage(ctx context.Context, params feed.Params, page, limit int) (*domain.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.Sort != "" {
		q.Set("sort", string(params.Sort))
	}

	var resp domain.ProductListResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", q, nil, &resp); err != nil {
		return nil, err
	}

	items := resp.Data
	if items == nil {
		items = []domain.Product{}
	}
	return &domain.Page{
		Items: items,
		Total: resp.Total,
		Page:  resp.Page,
		Limit: limit,
		Pages: resp.Pages,
	}, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var resp domain.ProductResponse
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, ErrProductNotFound
	}
	return resp.Data, nil
}

func (c *Client) ProductsByCategory(ctx context.Context) (map[string][]domain.Product, error) {
	var resp domain.ProductsByCategoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/products-by-category", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	var resp domain.ProductResponse
	if err := c.do(ctx, http.MethodPost, "/api/products", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	var resp envelope
	return c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil, &resp)
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var resp domain.CategoryListResponse
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	var resp domain.CategoryResponse
	req := domain.CreateCategoryRequest{Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/categories", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, query, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("Circuit breaker rejected request",
			zap.String("method", method),
			zap.String("path", path))
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.doer.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if res.StatusCode >= 300 {
			return &APIError{Status: res.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if res.StatusCode >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return &APIError{Status: res.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
