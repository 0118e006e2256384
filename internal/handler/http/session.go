package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	"github.com/revant7/trezora-frontend-sub000/internal/session"
	"github.com/revant7/trezora-frontend-sub000/pkg/httputil"
	"github.com/revant7/trezora-frontend-sub000/pkg/validator"
)

// SessionService is the session surface the handler needs.
type SessionService interface {
	Initialize(ctx context.Context) session.State
	State() session.State
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context)
	Register(ctx context.Context, input api.RegisterInput) error
}

// SessionHandler handles HTTP requests for session endpoints.
type SessionHandler struct {
	service SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(svc SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: svc, logger: logger}
}

// SignInRequest is the JSON request body for signing in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StateResponse describes the session to the view layer.
type StateResponse struct {
	State         string `json:"state"`
	Authenticated bool   `json:"authenticated"`
}

func stateResponse(s session.State) StateResponse {
	return StateResponse{
		State:         s.String(),
		Authenticated: s == session.StateAuthenticated,
	}
}

// State handles GET /api/v1/session. The first call after startup resolves
// the persisted token; later calls report the settled state.
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	state := h.service.Initialize(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateResponse(state)})
}

// SignIn handles POST /api/v1/session/sign-in.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.service.SignIn(r.Context(), req.Email, req.Password); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateResponse(h.service.State())})
}

// SignOut handles POST /api/v1/session/sign-out. Always succeeds.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.service.SignOut(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateResponse(h.service.State())})
}

// Register handles POST /api/v1/session/register. Registration does not
// sign the account in; the view routes to sign-in afterwards.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.service.Register(r.Context(), req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]string{"status": "registered"}})
}
