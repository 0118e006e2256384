// Package wishlist maintains the local wishlist membership view. Unlike the
// cart, wishlist toggles are applied optimistically and rolled back when the
// backend rejects them.
package wishlist

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

var wishlistRollbacksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "storefront_wishlist_rollbacks_total",
		Help: "Total number of optimistic wishlist toggles rolled back after a backend rejection",
	},
)

// Backend is the subset of the API client the manager needs.
type Backend interface {
	GetWishlist(ctx context.Context) ([]api.WishlistItem, error)
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
}

// Session gates wishlist access on authentication.
type Session interface {
	RequireAuth() error
	Invalidate(ctx context.Context)
}

// Manager tracks which products are on the wishlist. Membership is a set
// keyed by product ID, derived from the backend's full list and adjusted
// optimistically on toggles.
type Manager struct {
	backend Backend
	session Session
	logger  *slog.Logger

	mu      sync.Mutex
	items   []api.WishlistItem
	members map[string]bool
	loaded  bool
}

// NewManager creates a manager with no cached wishlist.
func NewManager(backend Backend, session Session, logger *slog.Logger) *Manager {
	return &Manager{
		backend: backend,
		session: session,
		logger:  logger,
		members: make(map[string]bool),
	}
}

// Items returns the cached wishlist entries.
func (m *Manager) Items() ([]api.WishlistItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]api.WishlistItem, len(m.items))
	copy(items, m.items)
	return items, m.loaded
}

// Contains reports whether the product is on the wishlist, per the local
// membership view.
func (m *Manager) Contains(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[productID]
}

// Refresh re-fetches the full wishlist and rebuilds the membership set.
// Membership is determined by scanning the full list; the backend has no
// per-product lookup.
func (m *Manager) Refresh(ctx context.Context) ([]api.WishlistItem, error) {
	if err := m.session.RequireAuth(); err != nil {
		return nil, err
	}

	items, err := m.backend.GetWishlist(ctx)
	if err != nil {
		return nil, m.checkAuth(ctx, err)
	}

	members := make(map[string]bool, len(items))
	for _, item := range items {
		members[item.Product.ID] = true
	}

	m.mu.Lock()
	m.items = items
	m.members = members
	m.loaded = true
	m.mu.Unlock()

	return items, nil
}

// Toggle flips a product's wishlist membership. The local set is updated
// first so the view responds immediately; if the backend then rejects the
// mutation the flip is undone and the error returned. Returns the product's
// membership after the toggle settles.
func (m *Manager) Toggle(ctx context.Context, productID string) (bool, error) {
	if err := m.session.RequireAuth(); err != nil {
		return false, err
	}

	m.mu.Lock()
	wasMember := m.members[productID]
	m.members[productID] = !wasMember
	m.mu.Unlock()

	var err error
	if wasMember {
		err = m.backend.RemoveFromWishlist(ctx, productID)
	} else {
		err = m.backend.AddToWishlist(ctx, productID)
	}

	if err != nil {
		m.mu.Lock()
		m.members[productID] = wasMember
		m.mu.Unlock()
		wishlistRollbacksTotal.Inc()
		m.logger.WarnContext(ctx, "wishlist toggle rolled back",
			slog.String("product_id", productID),
			slog.Bool("was_member", wasMember),
			slog.String("error", err.Error()),
		)
		return wasMember, m.checkAuth(ctx, err)
	}

	return !wasMember, nil
}

// Reset drops the cached wishlist. Wired to session sign-out.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.items = nil
	m.members = make(map[string]bool)
	m.loaded = false
	m.mu.Unlock()
}

func (m *Manager) checkAuth(ctx context.Context, err error) error {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		m.session.Invalidate(ctx)
	}
	return err
}
