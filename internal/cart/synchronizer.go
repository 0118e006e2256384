// Package cart keeps the local cart view consistent with the backend. The
// backend owns cart state; this package never computes a count or a total
// locally after a mutation, it always re-fetches.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
)

var cartMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Total number of cart mutations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// Backend is the subset of the API client the synchronizer needs.
type Backend interface {
	GetCartItems(ctx context.Context) ([]api.CartItem, error)
	GetCartItemsCount(ctx context.Context) (int, error)
	AddItemToCart(ctx context.Context, productID string, quantity int) error
	RemoveItemFromCart(ctx context.Context, productID string) error
}

// Session gates cart access on authentication and is told when the backend
// rejects our credentials.
type Session interface {
	RequireAuth() error
	Invalidate(ctx context.Context)
}

// Summary is the locally cached cart view.
type Summary struct {
	Items []api.CartItem `json:"items"`
	Count int            `json:"count"`
}

// Synchronizer mirrors the server-side cart. All mutations go through the
// backend and are followed by a count re-fetch; the local count is a cache
// of the server's answer, never an arithmetic result.
type Synchronizer struct {
	backend Backend
	session Session
	logger  *slog.Logger

	mu      sync.Mutex
	summary Summary
	loaded  bool
}

// NewSynchronizer creates a synchronizer with an empty summary.
func NewSynchronizer(backend Backend, session Session, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{backend: backend, session: session, logger: logger}
}

// Summary returns the cached cart view. Count 0 with loaded false means the
// cart has not been fetched yet this session.
func (s *Synchronizer) Summary() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, s.loaded
}

// Count returns the cached item count.
func (s *Synchronizer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary.Count
}

// Refresh re-fetches the full cart from the backend.
func (s *Synchronizer) Refresh(ctx context.Context) (Summary, error) {
	if err := s.session.RequireAuth(); err != nil {
		return Summary{}, err
	}

	items, err := s.backend.GetCartItems(ctx)
	if err != nil {
		return Summary{}, s.checkAuth(ctx, err)
	}

	// Count is the number of cart lines, matching the count endpoint, not
	// the sum of line quantities.
	s.mu.Lock()
	s.summary = Summary{Items: items, Count: len(items)}
	s.loaded = true
	summary := s.summary
	s.mu.Unlock()

	return summary, nil
}

// RefreshCount re-fetches only the item count.
func (s *Synchronizer) RefreshCount(ctx context.Context) (int, error) {
	if err := s.session.RequireAuth(); err != nil {
		return 0, err
	}

	count, err := s.backend.GetCartItemsCount(ctx)
	if err != nil {
		return 0, s.checkAuth(ctx, err)
	}

	s.mu.Lock()
	s.summary.Count = count
	s.loaded = true
	s.mu.Unlock()

	return count, nil
}

// Add adds quantity units of a product to the server-side cart and then
// reconciles the local count by re-fetching it. If the mutation succeeds but
// the count re-fetch fails, the mutation stands and the count error is
// reported so the view can refresh later.
func (s *Synchronizer) Add(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	if err := s.session.RequireAuth(); err != nil {
		return err
	}

	if err := s.backend.AddItemToCart(ctx, productID, quantity); err != nil {
		cartMutationsTotal.WithLabelValues("add", "error").Inc()
		return s.checkAuth(ctx, err)
	}
	cartMutationsTotal.WithLabelValues("add", "ok").Inc()

	if _, err := s.RefreshCount(ctx); err != nil {
		s.logger.WarnContext(ctx, "cart count reconciliation failed after add",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// Remove removes a product from the server-side cart and reconciles the
// local count by re-fetching it.
func (s *Synchronizer) Remove(ctx context.Context, productID string) error {
	if err := s.session.RequireAuth(); err != nil {
		return err
	}

	if err := s.backend.RemoveItemFromCart(ctx, productID); err != nil {
		cartMutationsTotal.WithLabelValues("remove", "error").Inc()
		return s.checkAuth(ctx, err)
	}
	cartMutationsTotal.WithLabelValues("remove", "ok").Inc()

	if _, err := s.RefreshCount(ctx); err != nil {
		s.logger.WarnContext(ctx, "cart count reconciliation failed after remove",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// Reset drops the cached cart view. Wired to session sign-out so a signed
// out session never shows the previous account's cart.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	s.summary = Summary{}
	s.loaded = false
	s.mu.Unlock()
}

// checkAuth invalidates the session when the backend no longer accepts our
// token, so the next operation fails closed instead of retrying with dead
// credentials.
func (s *Synchronizer) checkAuth(ctx context.Context, err error) error {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		s.session.Invalidate(ctx)
	}
	return err
}
