// Package account covers the signed-in account surface: profile details,
// profile updates, order history, and checkout.
package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
	"github.com/revant7/trezora-frontend-sub000/pkg/validator"
)

// Backend is the subset of the API client the service needs.
type Backend interface {
	GetProfile(ctx context.Context) (api.Profile, error)
	UpdateProfile(ctx context.Context, update api.ProfileUpdate) (api.Profile, error)
	GetOrders(ctx context.Context) ([]api.Order, error)
	PostOrder(ctx context.Context, order api.OrderInput) (api.Order, error)
}

// Session gates account access on authentication.
type Session interface {
	RequireAuth() error
	Invalidate(ctx context.Context)
}

// CartReconciler is notified after checkout so the cart count reflects the
// server having emptied the cart. Failures here are logged, not returned:
// the order is already placed.
type CartReconciler interface {
	RefreshCount(ctx context.Context) (int, error)
}

// Service exposes profile and order operations.
type Service struct {
	backend Backend
	session Session
	cart    CartReconciler
	logger  *slog.Logger
}

// NewService creates an account service.
func NewService(backend Backend, session Session, cart CartReconciler, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		session: session,
		cart:    cart,
		logger:  logger,
	}
}

// Profile fetches the account's profile details.
func (s *Service) Profile(ctx context.Context) (api.Profile, error) {
	if err := s.session.RequireAuth(); err != nil {
		return api.Profile{}, err
	}
	profile, err := s.backend.GetProfile(ctx)
	if err != nil {
		return api.Profile{}, s.checkAuth(ctx, err)
	}
	return profile, nil
}

// UpdateProfile sends a partial profile update. Only the fields present in
// the update are sent; the backend validates them and its rejection
// messages are passed through unchanged for the view to display.
func (s *Service) UpdateProfile(ctx context.Context, update api.ProfileUpdate) (api.Profile, error) {
	if err := s.session.RequireAuth(); err != nil {
		return api.Profile{}, err
	}
	if err := validator.Validate(update); err != nil {
		return api.Profile{}, err
	}
	profile, err := s.backend.UpdateProfile(ctx, update)
	if err != nil {
		return api.Profile{}, s.checkAuth(ctx, err)
	}
	return profile, nil
}

// Orders fetches the account's order history. An empty history is a valid
// result, not an error.
func (s *Service) Orders(ctx context.Context) ([]api.Order, error) {
	if err := s.session.RequireAuth(); err != nil {
		return nil, err
	}
	orders, err := s.backend.GetOrders(ctx)
	if err != nil {
		return nil, s.checkAuth(ctx, err)
	}
	return orders, nil
}

// Checkout places an order and then reconciles the cart count, since a
// successful checkout empties the server-side cart.
func (s *Service) Checkout(ctx context.Context, order api.OrderInput) (api.Order, error) {
	if err := s.session.RequireAuth(); err != nil {
		return api.Order{}, err
	}
	if err := validator.Validate(order); err != nil {
		return api.Order{}, err
	}

	placed, err := s.backend.PostOrder(ctx, order)
	if err != nil {
		return api.Order{}, s.checkAuth(ctx, err)
	}

	if _, err := s.cart.RefreshCount(ctx); err != nil {
		s.logger.WarnContext(ctx, "cart count reconciliation failed after checkout",
			slog.String("order_id", placed.ID),
			slog.String("error", err.Error()),
		)
	}
	return placed, nil
}

func (s *Service) checkAuth(ctx context.Context, err error) error {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		s.session.Invalidate(ctx)
	}
	return err
}
