package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	"github.com/revant7/trezora-frontend-sub000/pkg/httputil"
)

// WishlistService is the wishlist surface the handler needs.
type WishlistService interface {
	Refresh(ctx context.Context) ([]api.WishlistItem, error)
	Toggle(ctx context.Context, productID string) (bool, error)
}

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{service: svc, logger: logger}
}

// ToggleResponse reports the settled membership after a toggle.
type ToggleResponse struct {
	ProductID string `json:"product_id"`
	InList    bool   `json:"in_list"`
}

// List handles GET /api/v1/wishlist.
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Refresh(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if items == nil {
		items = []api.WishlistItem{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: items})
}

// Toggle handles POST /api/v1/wishlist/{productID}/toggle. On failure the
// local membership has already been rolled back, so the error response and
// the next membership read are consistent.
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product ID is required"},
		})
		return
	}

	inList, err := h.service.Toggle(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ToggleResponse{ProductID: productID, InList: inList}})
}
