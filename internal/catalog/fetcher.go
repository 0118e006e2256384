// Package catalog implements the paginated list retrieval used by product
// listing, category browsing, and search. One Fetcher owns one logical list
// view: its current page, its filter/sort spec, and its free-text query.
//
// Result ordering is entirely server-determined. The fetcher never re-sorts
// items locally, whether or not a sort filter is active.
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
)

var listFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_list_fetches_total",
		Help: "Total number of product list fetches by endpoint and outcome",
	},
	[]string{"endpoint", "outcome"},
)

// ListPage is one page of results as served by the backend. Replaced
// wholesale on every successful fetch; never partially merged.
type ListPage struct {
	Items       []api.Product `json:"items"`
	CurrentPage int           `json:"current_page"`
	TotalPages  int           `json:"total_pages"`
}

// Source is the subset of the backend API the fetcher needs.
type Source interface {
	GetProducts(ctx context.Context, page int) (api.ProductPage, error)
	SearchProducts(ctx context.Context, query string, page int, filters api.SearchFilters) (api.ProductPage, error)
}

// Fetcher retrieves pages of a product list. It serializes its own state
// behind a mutex and stamps every request with a monotonic generation
// number: a response is applied only if it belongs to the latest request
// issued, so a slow stale response can never overwrite newer results.
// Superseded in-flight requests are additionally cancelled.
type Fetcher struct {
	source Source
	logger *slog.Logger

	mu      sync.Mutex
	page    ListPage
	filters api.SearchFilters
	query   string
	lastErr error
	gen     uint64
	cancel  context.CancelFunc
}

// NewFetcher creates a fetcher with an empty page and no filters.
func NewFetcher(source Source, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		logger: logger,
		page:   ListPage{CurrentPage: 1},
	}
}

// Page returns a snapshot of the current page.
func (f *Fetcher) Page() ListPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// Filters returns the active filter spec.
func (f *Fetcher) Filters() api.SearchFilters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters
}

// Query returns the active free-text query.
func (f *Fetcher) Query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

// Err returns the error from the most recent failed fetch, or nil after a
// success. The stale page remains readable either way.
func (f *Fetcher) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// FetchPage issues one read-only request for the given page with the
// current filters and query. On failure the previous page is retained and
// the error is recorded for the view to render; there is no automatic retry.
func (f *Fetcher) FetchPage(ctx context.Context, page int) error {
	if page < 1 {
		return apperrors.InvalidInput("page must be at least 1")
	}

	f.mu.Lock()
	f.gen++
	myGen := f.gen
	if f.cancel != nil {
		f.cancel() // supersede any in-flight request
	}
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	query, filters := f.query, f.filters
	f.mu.Unlock()

	// Once load returns this request is over either way; release its context.
	defer cancel()

	result, endpoint, err := f.load(reqCtx, page, query, filters)

	f.mu.Lock()
	defer f.mu.Unlock()

	if myGen != f.gen {
		// A newer request has been issued; this response is stale and must
		// not overwrite it, success or failure.
		listFetchesTotal.WithLabelValues(endpoint, "superseded").Inc()
		return nil
	}

	if err != nil {
		listFetchesTotal.WithLabelValues(endpoint, "error").Inc()
		f.lastErr = err
		f.logger.WarnContext(ctx, "list fetch failed",
			slog.String("endpoint", endpoint),
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return err
	}

	listFetchesTotal.WithLabelValues(endpoint, "ok").Inc()
	f.lastErr = nil
	f.page = ListPage{
		Items:       result.Products,
		CurrentPage: page,
		TotalPages:  result.TotalPages,
	}
	return nil
}

// load picks the listing endpoint when no query and no filters are active,
// and the search endpoint otherwise.
func (f *Fetcher) load(ctx context.Context, page int, query string, filters api.SearchFilters) (api.ProductPage, string, error) {
	if query == "" && filters.Equal(api.SearchFilters{}) {
		result, err := f.source.GetProducts(ctx, page)
		return result, "list", err
	}
	result, err := f.source.SearchProducts(ctx, query, page, filters)
	return result, "search", err
}

// ChangePage re-fetches with the same filters and the new page number.
// Out-of-range pages are rejected without issuing a request, leaving the
// current page untouched.
func (f *Fetcher) ChangePage(ctx context.Context, page int) error {
	f.mu.Lock()
	totalPages := f.page.TotalPages
	f.mu.Unlock()

	if page < 1 || (totalPages > 0 && page > totalPages) {
		return apperrors.InvalidInput("page out of range")
	}

	return f.FetchPage(ctx, page)
}

// SetQuery replaces the free-text query. Any change resets the page to 1
// before re-fetching, since the old page number is meaningless against a
// changed result set.
func (f *Fetcher) SetQuery(ctx context.Context, query string) error {
	f.mu.Lock()
	if f.query == query {
		f.mu.Unlock()
		return nil
	}
	f.query = query
	f.mu.Unlock()

	return f.FetchPage(ctx, 1)
}

// SetFilters replaces the filter spec. Any change resets the page to 1
// before re-fetching.
func (f *Fetcher) SetFilters(ctx context.Context, filters api.SearchFilters) error {
	f.mu.Lock()
	if f.filters.Equal(filters) {
		f.mu.Unlock()
		return nil
	}
	f.filters = filters
	f.mu.Unlock()

	return f.FetchPage(ctx, 1)
}

// Refresh re-fetches the current page with the current filters and query.
func (f *Fetcher) Refresh(ctx context.Context) error {
	f.mu.Lock()
	page := f.page.CurrentPage
	f.mu.Unlock()
	return f.FetchPage(ctx, page)
}
