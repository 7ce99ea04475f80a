// Package feed drives a paginated product listing the way an infinite-scroll
// storefront does: it fetches page after page, accumulates the items, and
// drops any response that a newer request has superseded.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrNoMorePages = errors.New("no more pages")
	ErrBusy        = errors.New("fetch in progress")
)

const (
	DefaultLimit   = 12
	DefaultTimeout = 10 * time.Second
)

// Params are the listing filters. Changing any of them restarts the feed.
type Params struct {
	Search   string
	Category string
	Sort     domain.SortOrder
}

// Source is the paginated query contract, usually reached over HTTP.
type Source interface {
	FetchPage(ctx context.Context, params Params, page, limit int) (*domain.Page, error)
}

// BottomSignal fires whenever the viewport reaches the end of the content.
type BottomSignal interface {
	Reached() <-chan struct{}
}

type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFetching:
		return "fetching"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State is a copy of the feed at one point in time. Version grows with every
// transition, so observers can drop snapshots that arrive out of order.
type State struct {
	Params  Params
	Items   []domain.Product
	Page    int
	Pages   int
	Loading bool
	Err     error
	Version uint64
}

func (s State) Status() Status {
	switch {
	case s.Loading:
		return StatusFetching
	case s.Err != nil:
		return StatusFailed
	default:
		return StatusIdle
	}
}

// CanAdvance reports whether a next page may be requested.
func (s State) CanAdvance() bool {
	return !s.Loading && s.Page < s.Pages
}

type Option func(*Feed)

func WithLimit(limit int) Option {
	return func(f *Feed) {
		if limit > 0 {
			f.limit = limit
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Feed) { f.logger = logger }
}

// WithOnChange registers a callback run after every transition, outside the
// feed's lock. Callbacks from different fetches may run concurrently.
func WithOnChange(fn func(State)) Option {
	return func(f *Feed) { f.onChange = fn }
}

type Feed struct {
	source   Source
	limit    int
	timeout  time.Duration
	logger   *zap.Logger
	onChange func(State)

	mu      sync.Mutex
	seq     uint64 // highest issued request
	version uint64
	params  Params
	items   []domain.Product
	page    int
	pages   int
	loading bool
	err     error

	inflight sync.WaitGroup
}

func New(source Source, params Params, opts ...Option) *Feed {
	f := &Feed{
		source:  source,
		limit:   DefaultLimit,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		params:  params,
		page:    1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start loads the first page for the current params.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	st := f.resetLocked(ctx)
	f.mu.Unlock()
	f.notify(st)
}

// SetParams discards everything accumulated so far and fetches page 1 for
// the new params. Responses still in flight for older params are ignored.
func (f *Feed) SetParams(ctx context.Context, params Params) {
	f.mu.Lock()
	f.params = params
	st := f.resetLocked(ctx)
	f.mu.Unlock()
	f.notify(st)
}

// Retry restarts from page 1 with the current params.
func (f *Feed) Retry(ctx context.Context) {
	f.Start(ctx)
}

// LoadMore requests the next page. It is the explicit "load more" action.
func (f *Feed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.page >= f.pages {
		f.mu.Unlock()
		return ErrNoMorePages
	}
	st := f.issueLocked(ctx, f.page+1)
	f.mu.Unlock()
	f.notify(st)
	return nil
}

// ReachedBottom is the scroll trigger. Signals that arrive while a fetch is
// running, or after the last page, are dropped.
func (f *Feed) ReachedBottom(ctx context.Context) bool {
	return f.LoadMore(ctx) == nil
}

// Watch feeds bottom signals into ReachedBottom until ctx is done or the
// signal channel closes.
func (f *Feed) Watch(ctx context.Context, signal BottomSignal) {
	reached := signal.Reached()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-reached:
			if !ok {
				return
			}
			f.ReachedBottom(ctx)
		}
	}
}

func (f *Feed) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Wait blocks until every issued fetch has resolved, stale ones included.
func (f *Feed) Wait() {
	f.inflight.Wait()
}

func (f *Feed) resetLocked(ctx context.Context) State {
	f.items = nil
	f.pages = 0
	return f.issueLocked(ctx, 1)
}

func (f *Feed) issueLocked(ctx context.Context, page int) State {
	f.seq++
	seq := f.seq
	params := f.params

	f.page = page
	f.loading = true
	f.err = nil
	f.version++

	f.logger.Debug("Fetching page",
		zap.Uint64("seq", seq),
		zap.Int("page", page),
		zap.String("search", params.Search),
		zap.String("category", params.Category))

	f.inflight.Add(1)
	go f.fetch(ctx, seq, params, page)

	return f.snapshotLocked()
}

type fetchResult struct {
	page *domain.Page
	err  error
}

func (f *Feed) fetch(ctx context.Context, seq uint64, params Params, page int) {
	defer f.inflight.Done()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// A source that ignores ctx still cannot hold the feed in Fetching
	// past the timeout.
	done := make(chan fetchResult, 1)
	go func() {
		p, err := f.source.FetchPage(ctx, params, page, f.limit)
		done <- fetchResult{page: p, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = fetchResult{err: ctx.Err()}
	}
	if res.err == nil && res.page == nil {
		res.err = errors.New("empty response")
	}

	f.resolve(seq, page, res)
}

func (f *Feed) resolve(seq uint64, page int, res fetchResult) {
	f.mu.Lock()
	if seq != f.seq {
		f.mu.Unlock()
		f.logger.Debug("Discarding stale response",
			zap.Uint64("seq", seq),
			zap.Int("page", page))
		return
	}

	f.loading = false
	f.version++

	if res.err != nil {
		f.items = nil
		f.page = 1
		f.pages = 0
		f.err = res.err
		f.logger.Warn("Failed to fetch products",
			zap.Uint64("seq", seq),
			zap.Int("page", page),
			zap.Error(res.err))
	} else {
		if page == 1 {
			f.items = append([]domain.Product(nil), res.page.Items...)
		} else {
			f.items = append(f.items, res.page.Items...)
		}
		f.pages = res.page.Pages
		f.err = nil
	}

	st := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(st)
}

func (f *Feed) snapshotLocked() State {
	items := make([]domain.Product, len(f.items))
	copy(items, f.items)
	return State{
		Params:  f.params,
		Items:   items,
		Page:    f.page,
		Pages:   f.pages,
		Loading: f.loading,
		Err:     f.err,
		Version: f.version,
	}
}

func (f *Feed) notify(st State) {
	if f.onChange != nil {
		f.onChange(st)
	}
}
