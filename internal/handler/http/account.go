package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	"github.com/revant7/trezora-frontend-sub000/pkg/httputil"
)

// AccountService is the account surface the handler needs.
type AccountService interface {
	Profile(ctx context.Context) (api.Profile, error)
	UpdateProfile(ctx context.Context, update api.ProfileUpdate) (api.Profile, error)
	Orders(ctx context.Context) ([]api.Order, error)
	Checkout(ctx context.Context, order api.OrderInput) (api.Order, error)
}

// AccountHandler handles HTTP requests for profile and order endpoints.
type AccountHandler struct {
	service AccountService
	logger  *slog.Logger
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(svc AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{service: svc, logger: logger}
}

// GetProfile handles GET /api/v1/profile.
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}

// UpdateProfile handles PATCH /api/v1/profile. Absent fields stay untouched;
// backend validation messages pass through unchanged.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update api.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), update)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}

// ListOrders handles GET /api/v1/orders.
func (h *AccountHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Orders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if orders == nil {
		orders = []api.Order{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: orders})
}

// Checkout handles POST /api/v1/orders.
func (h *AccountHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var input api.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	order, err := h.service.Checkout(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}
