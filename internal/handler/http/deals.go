package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	"github.com/revant7/trezora-frontend-sub000/pkg/httputil"
)

// DealsService is the deals surface the handler needs.
type DealsService interface {
	Deals(ctx context.Context) ([]api.Deal, error)
}

// DealsHandler handles HTTP requests for the daily-deals strip.
type DealsHandler struct {
	service DealsService
	logger  *slog.Logger
}

// NewDealsHandler creates a new deals HTTP handler.
func NewDealsHandler(svc DealsService, logger *slog.Logger) *DealsHandler {
	return &DealsHandler{service: svc, logger: logger}
}

// Daily handles GET /api/v1/deals. Stale snapshots are served as-is; the
// refresh happens off the request path.
func (h *DealsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	deals, err := h.service.Deals(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if deals == nil {
		deals = []api.Deal{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: deals})
}
