package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	"github.com/revant7/trezora-frontend-sub000/internal/catalog"
	"github.com/revant7/trezora-frontend-sub000/pkg/httputil"
)

// CatalogService is the catalog surface the handler needs.
type CatalogService interface {
	FetchPage(ctx context.Context, page int) error
	ChangePage(ctx context.Context, page int) error
	SetQuery(ctx context.Context, query string) error
	SetFilters(ctx context.Context, filters api.SearchFilters) error
	Refresh(ctx context.Context) error
	Page() catalog.ListPage
	Autocomplete(ctx context.Context, query string) ([]api.Suggestion, error)
}

// CatalogHandler handles HTTP requests for product listing and search.
type CatalogHandler struct {
	service CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: svc, logger: logger}
}

// ListProducts handles GET /api/v1/products?page=N. A page change against
// an already-loaded list goes through the bounds check; the first load does
// not, since no bounds are known yet. refresh=1 forces a round trip even
// when the requested page is already loaded.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parsePage(q.Get("page"))

	if err := h.service.SetQuery(r.Context(), ""); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := h.service.SetFilters(r.Context(), api.SearchFilters{}); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.fetch(r.Context(), page, q.Get("refresh") == "1"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.Page()})
}

// Search handles GET /api/v1/search. The query and filters come from the
// URL; a change to either resets the fetcher to page 1, so an explicit
// page parameter only matters when it targets the same result set.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parsePage(q.Get("page"))

	sortBy := q.Get("sort")
	if !api.IsValidSort(sortBy) {
		sortBy = ""
	}
	filters := api.SearchFilters{
		SortBy:    sortBy,
		PriceMin:  api.ParseNumber(q.Get("min_price")),
		PriceMax:  api.ParseNumber(q.Get("max_price")),
		Category:  q.Get("category"),
		MinRating: api.ParseNumber(q.Get("min_rating")),
	}

	if err := h.service.SetQuery(r.Context(), q.Get("q")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := h.service.SetFilters(r.Context(), filters); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.fetch(r.Context(), page, q.Get("refresh") == "1"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.Page()})
}

// fetch navigates to the requested page, skipping the round trip when the
// fetcher already sits on it with a loaded result unless a refresh is
// forced.
func (h *CatalogHandler) fetch(ctx context.Context, page int, force bool) error {
	current := h.service.Page()
	if current.CurrentPage == page && len(current.Items) > 0 {
		if force {
			return h.service.Refresh(ctx)
		}
		return nil
	}
	if current.TotalPages > 0 {
		return h.service.ChangePage(ctx, page)
	}
	return h.service.FetchPage(ctx, page)
}

// Autocomplete handles GET /api/v1/autocomplete?q=prefix. An empty query
// returns an empty list without a backend call.
func (h *CatalogHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: []api.Suggestion{}})
		return
	}

	suggestions, err := h.service.Autocomplete(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if suggestions == nil {
		suggestions = []api.Suggestion{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: suggestions})
}

// parsePage coerces the page parameter, defaulting to 1 on anything
// unparseable.
func parsePage(s string) int {
	if s == "" {
		return 1
	}
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
