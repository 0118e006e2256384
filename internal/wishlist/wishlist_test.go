package wishlist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) GetWishlist(ctx context.Context) ([]api.WishlistItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.WishlistItem), args.Error(1)
}

func (m *mockBackend) AddToWishlist(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *mockBackend) RemoveFromWishlist(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

type fakeSession struct {
	authErr     error
	invalidated bool
}

func (s *fakeSession) RequireAuth() error           { return s.authErr }
func (s *fakeSession) Invalidate(_ context.Context) { s.invalidated = true }

func newTestManager(backend Backend, session Session) *Manager {
	return NewManager(backend, session, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRefresh_BuildsMembershipFromFullList(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GetWishlist", mock.Anything).Return([]api.WishlistItem{
		{ID: "1", Product: api.Product{ID: "p-10", Name: "keyboard"}},
		{ID: "2", Product: api.Product{ID: "p-20", Name: "mouse"}},
	}, nil)

	m := newTestManager(backend, &fakeSession{})
	items, err := m.Refresh(context.Background())

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.True(t, m.Contains("p-10"))
	assert.True(t, m.Contains("p-20"))
	assert.False(t, m.Contains("p-30"))
}

func TestToggle_AddsWhenNotMember(t *testing.T) {
	backend := new(mockBackend)
	backend.On("AddToWishlist", mock.Anything, "p-10").Return(nil)

	m := newTestManager(backend, &fakeSession{})
	member, err := m.Toggle(context.Background(), "p-10")

	require.NoError(t, err)
	assert.True(t, member)
	assert.True(t, m.Contains("p-10"))
	backend.AssertNotCalled(t, "RemoveFromWishlist")
}

func TestToggle_RemovesWhenMember(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GetWishlist", mock.Anything).Return([]api.WishlistItem{
		{ID: "1", Product: api.Product{ID: "p-10"}},
	}, nil)
	backend.On("RemoveFromWishlist", mock.Anything, "p-10").Return(nil)

	m := newTestManager(backend, &fakeSession{})
	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	member, err := m.Toggle(context.Background(), "p-10")
	require.NoError(t, err)
	assert.False(t, member)
	assert.False(t, m.Contains("p-10"))
}

func TestToggle_RollsBackOnBackendRejection(t *testing.T) {
	backend := new(mockBackend)
	backend.On("AddToWishlist", mock.Anything, "p-10").
		Return(apperrors.Backend(400, "Product no longer available."))

	m := newTestManager(backend, &fakeSession{})
	member, err := m.Toggle(context.Background(), "p-10")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Product no longer available.")
	assert.False(t, member, "membership is restored to its pre-toggle value")
	assert.False(t, m.Contains("p-10"))
}

func TestToggle_RollbackRestoresMembershipOnFailedRemove(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GetWishlist", mock.Anything).Return([]api.WishlistItem{
		{ID: "1", Product: api.Product{ID: "p-10"}},
	}, nil)
	backend.On("RemoveFromWishlist", mock.Anything, "p-10").
		Return(errors.New("connection refused"))

	m := newTestManager(backend, &fakeSession{})
	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	member, err := m.Toggle(context.Background(), "p-10")
	require.Error(t, err)
	assert.True(t, member)
	assert.True(t, m.Contains("p-10"), "a failed remove leaves the product on the wishlist")
}

func TestToggle_RequiresAuthentication(t *testing.T) {
	backend := new(mockBackend)
	session := &fakeSession{authErr: apperrors.Unauthorized("sign in required")}

	m := newTestManager(backend, session)
	_, err := m.Toggle(context.Background(), "p-10")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	backend.AssertNotCalled(t, "AddToWishlist")
}

func TestToggle_UnauthorizedInvalidatesSession(t *testing.T) {
	backend := new(mockBackend)
	backend.On("AddToWishlist", mock.Anything, "p-10").
		Return(apperrors.Unauthorized("token expired"))

	session := &fakeSession{}
	m := newTestManager(backend, session)

	_, err := m.Toggle(context.Background(), "p-10")
	require.Error(t, err)
	assert.True(t, session.invalidated)
}

func TestReset_DropsMembership(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GetWishlist", mock.Anything).Return([]api.WishlistItem{
		{ID: "1", Product: api.Product{ID: "p-10"}},
	}, nil)

	m := newTestManager(backend, &fakeSession{})
	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	m.Reset()

	assert.False(t, m.Contains("p-10"))
	items, loaded := m.Items()
	assert.False(t, loaded)
	assert.Empty(t, items)
}
