package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
)

// --- Mock backend ---

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) IssueToken(ctx context.Context, email, password string) (api.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(api.TokenPair), args.Error(1)
}

func (m *mockBackend) VerifyToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockBackend) Register(ctx context.Context, input api.RegisterInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManagerWithToken(t *testing.T, backend *mockBackend, access string) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	if access != "" {
		require.NoError(t, store.Save(context.Background(), StoredTokens{Access: access, Refresh: "r"}))
	}
	return NewManager(store, backend, testLogger()), store
}

// signedJWT returns a JWT with the given expiry. The signature is never
// checked by the manager's local pre-check, so any key works.
func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "shopper",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// --- Initialize ---

func TestInitialize_NoToken(t *testing.T) {
	backend := new(mockBackend)
	m, _ := newManagerWithToken(t, backend, "")

	state := m.Initialize(context.Background())

	assert.Equal(t, StateUnauthenticated, state)
	assert.True(t, m.Validated())
	assert.False(t, m.IsAuthenticated())
	backend.AssertNotCalled(t, "VerifyToken", mock.Anything, mock.Anything)
}

func TestInitialize_ValidToken(t *testing.T) {
	backend := new(mockBackend)
	backend.On("VerifyToken", mock.Anything, "tok-valid").Return(nil)
	m, _ := newManagerWithToken(t, backend, "tok-valid")

	state := m.Initialize(context.Background())

	assert.Equal(t, StateAuthenticated, state)
	assert.True(t, m.IsAuthenticated())

	token, ok := m.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-valid", token)
}

func TestInitialize_RejectedTokenFailsClosed(t *testing.T) {
	backend := new(mockBackend)
	backend.On("VerifyToken", mock.Anything, "tok-bad").Return(apperrors.Unauthorized("token is invalid or expired"))
	m, store := newManagerWithToken(t, backend, "tok-bad")

	state := m.Initialize(context.Background())

	assert.Equal(t, StateUnauthenticated, state)
	assert.False(t, m.IsAuthenticated())

	_, ok := m.Token()
	assert.False(t, ok, "token must be absent after failed verification")

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoToken, "persisted token must be cleared")
}

func TestInitialize_NetworkErrorFailsClosed(t *testing.T) {
	backend := new(mockBackend)
	backend.On("VerifyToken", mock.Anything, "tok").Return(apperrors.Unavailable(errors.New("connection refused")))
	m, store := newManagerWithToken(t, backend, "tok")

	state := m.Initialize(context.Background())

	assert.Equal(t, StateUnauthenticated, state)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestInitialize_LocallyExpiredJWTSkipsVerification(t *testing.T) {
	backend := new(mockBackend)
	expired := signedJWT(t, time.Now().Add(-time.Hour))
	m, store := newManagerWithToken(t, backend, expired)

	state := m.Initialize(context.Background())

	assert.Equal(t, StateUnauthenticated, state)
	backend.AssertNotCalled(t, "VerifyToken", mock.Anything, mock.Anything)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestInitialize_UnexpiredJWTStillVerified(t *testing.T) {
	backend := new(mockBackend)
	fresh := signedJWT(t, time.Now().Add(time.Hour))
	backend.On("VerifyToken", mock.Anything, fresh).Return(nil)
	m, _ := newManagerWithToken(t, backend, fresh)

	state := m.Initialize(context.Background())

	assert.Equal(t, StateAuthenticated, state)
	backend.AssertCalled(t, "VerifyToken", mock.Anything, fresh)
}

func TestInitialize_ConcurrentCallsShareOneValidation(t *testing.T) {
	backend := new(mockBackend)
	backend.On("VerifyToken", mock.Anything, "tok").
		After(50*time.Millisecond).
		Return(nil).
		Once() // A second verification call would fail the mock expectations.
	m, _ := newManagerWithToken(t, backend, "tok")

	var wg sync.WaitGroup
	states := make([]State, 8)
	for i := range states {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i] = m.Initialize(context.Background())
		}(i)
	}
	wg.Wait()

	for _, s := range states {
		assert.Equal(t, StateAuthenticated, s)
	}
	backend.AssertExpectations(t)
}

// --- SignIn / SignOut ---

func TestSignIn_PersistsTokenPair(t *testing.T) {
	backend := new(mockBackend)
	backend.On("IssueToken", mock.Anything, "shopper@example.com", "pw").
		Return(api.TokenPair{Access: "acc-1", Refresh: "ref-1"}, nil)
	m, store := newManagerWithToken(t, backend, "")

	require.NoError(t, m.SignIn(context.Background(), "shopper@example.com", "pw"))

	assert.True(t, m.IsAuthenticated())

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", stored.Access)
	assert.Equal(t, "ref-1", stored.Refresh)
}

func TestSignIn_FailureLeavesStateUntouched(t *testing.T) {
	backend := new(mockBackend)
	backend.On("IssueToken", mock.Anything, "shopper@example.com", "wrong").
		Return(api.TokenPair{}, apperrors.Unauthorized("no active account found with the given credentials"))
	m, store := newManagerWithToken(t, backend, "")
	m.Initialize(context.Background())

	err := m.SignIn(context.Background(), "shopper@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active account found")

	assert.False(t, m.IsAuthenticated())
	_, loadErr := store.Load(context.Background())
	assert.ErrorIs(t, loadErr, ErrNoToken)
}

func TestSignOut_ClearsTokenAndNotifies(t *testing.T) {
	backend := new(mockBackend)
	backend.On("VerifyToken", mock.Anything, "tok").Return(nil)
	m, store := newManagerWithToken(t, backend, "tok")

	var notified bool
	m.OnSignOut(func() { notified = true })

	m.Initialize(context.Background())
	require.True(t, m.IsAuthenticated())

	m.SignOut(context.Background())

	assert.False(t, m.IsAuthenticated())
	assert.True(t, notified)

	_, ok := m.Token()
	assert.False(t, ok)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestInvalidate_OnlyWhenAuthenticated(t *testing.T) {
	backend := new(mockBackend)
	backend.On("VerifyToken", mock.Anything, "tok").Return(nil)
	m, _ := newManagerWithToken(t, backend, "tok")

	var notifications int
	m.OnSignOut(func() { notifications++ })

	// Not yet authenticated: a no-op.
	m.Invalidate(context.Background())
	assert.Equal(t, 0, notifications)

	m.Initialize(context.Background())
	m.Invalidate(context.Background())
	assert.Equal(t, 1, notifications)
	assert.False(t, m.IsAuthenticated())

	// Already unauthenticated: no second notification.
	m.Invalidate(context.Background())
	assert.Equal(t, 1, notifications)
}

func TestRequireAuth(t *testing.T) {
	backend := new(mockBackend)
	m, _ := newManagerWithToken(t, backend, "")
	m.Initialize(context.Background())

	err := m.RequireAuth()
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	backend.On("IssueToken", mock.Anything, "a@b.c", "pw").Return(api.TokenPair{Access: "t"}, nil)
	require.NoError(t, m.SignIn(context.Background(), "a@b.c", "pw"))
	assert.NoError(t, m.RequireAuth())
}

// The invariant: IsAuthenticated must never be true without a held token.
func TestAuthenticatedImpliesTokenPresent(t *testing.T) {
	backend := new(mockBackend)
	backend.On("VerifyToken", mock.Anything, mock.Anything).Return(nil)
	backend.On("IssueToken", mock.Anything, mock.Anything, mock.Anything).Return(api.TokenPair{Access: "t2"}, nil)

	m, _ := newManagerWithToken(t, backend, "t1")

	checkInvariant := func() {
		if m.IsAuthenticated() {
			_, ok := m.Token()
			assert.True(t, ok, "authenticated session must hold a token")
		}
	}

	checkInvariant()
	m.Initialize(context.Background())
	checkInvariant()
	m.SignOut(context.Background())
	checkInvariant()
	_ = m.SignIn(context.Background(), "a@b.c", "pw")
	checkInvariant()
	m.Invalidate(context.Background())
	checkInvariant()
}

func TestRegister_DelegatesToBackend(t *testing.T) {
	backend := new(mockBackend)
	input := api.RegisterInput{Email: "new@example.com", Password: "longenough"}
	backend.On("Register", mock.Anything, input).Return(nil)

	m, _ := newManagerWithToken(t, backend, "")
	assert.NoError(t, m.Register(context.Background(), input))
	assert.False(t, m.IsAuthenticated(), "registration does not sign in")
}
