// Package session owns the authentication token lifecycle: persistence,
// validation against the backend, and propagation of the signed-in state to
// every consumer. All session state lives behind a single mutex; nothing
// else in the process writes the token or the authenticated flag.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
)

// State is the session lifecycle state.
type State int

const (
	// StateUnknown is the state before Initialize has been called.
	StateUnknown State = iota
	// StateValidating means a token was found and is being verified.
	StateValidating
	// StateAuthenticated means the held token passed verification.
	StateAuthenticated
	// StateUnauthenticated is terminal until a fresh SignIn.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

var sessionStateGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "storefront_session_state",
	Help: "Current session state (0=unknown, 1=validating, 2=authenticated, 3=unauthenticated)",
})

// Authenticator is the subset of the backend API the session manager needs.
type Authenticator interface {
	IssueToken(ctx context.Context, email, password string) (api.TokenPair, error)
	VerifyToken(ctx context.Context, token string) error
	Register(ctx context.Context, input api.RegisterInput) error
}

// Manager owns the session state machine:
//
//	UNKNOWN -> VALIDATING -> {AUTHENTICATED, UNAUTHENTICATED}
//
// AUTHENTICATED falls back to UNAUTHENTICATED on sign-out or when any
// downstream call reports an authorization failure. The only way out of
// UNAUTHENTICATED is a fresh SignIn.
type Manager struct {
	store   TokenStore
	backend Authenticator
	logger  *slog.Logger

	mu     sync.Mutex
	state  State
	tokens StoredTokens

	group     singleflight.Group
	onSignOut []func()
	now       func() time.Time
}

// NewManager creates a session manager. Initialize must be called before the
// authenticated state is meaningful.
func NewManager(store TokenStore, backend Authenticator, logger *slog.Logger) *Manager {
	m := &Manager{
		store:   store,
		backend: backend,
		logger:  logger,
		state:   StateUnknown,
		now:     time.Now,
	}
	sessionStateGauge.Set(float64(StateUnknown))
	return m
}

// OnSignOut registers a callback invoked whenever the session transitions to
// unauthenticated (explicit sign-out or downstream invalidation). Used by
// the cart synchronizer to reset its summary. Must be called during wiring,
// before concurrent use.
func (m *Manager) OnSignOut(fn func()) {
	m.onSignOut = append(m.onSignOut, fn)
}

// setState records the state transition and updates the metric gauge.
func (m *Manager) setState(s State, tokens StoredTokens) {
	m.mu.Lock()
	m.state = s
	m.tokens = tokens
	m.mu.Unlock()
	sessionStateGauge.Set(float64(s))
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether the session holds a verified token.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// Validated reports whether initialization has reached a terminal state.
func (m *Manager) Validated() bool {
	s := m.State()
	return s == StateAuthenticated || s == StateUnauthenticated
}

// Token implements api.TokenProvider. It returns the access token whenever
// one is held, including while a validation is still in flight, so that the
// validation call itself can use it.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.Access, m.tokens.Access != ""
}

// Initialize loads the persisted token and verifies it against the backend.
// Any verification failure is fail-closed: the token is cleared and the
// session ends unauthenticated, never retried. Concurrent calls share one
// in-flight validation.
func (m *Manager) Initialize(ctx context.Context) State {
	result, _, _ := m.group.Do("validate", func() (any, error) {
		return m.validate(ctx), nil
	})
	return result.(State)
}

func (m *Manager) validate(ctx context.Context) State {
	tokens, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			m.logger.WarnContext(ctx, "token store unreadable, failing closed",
				slog.String("error", err.Error()),
			)
		}
		m.setState(StateUnauthenticated, StoredTokens{})
		return StateUnauthenticated
	}

	m.setState(StateValidating, tokens)

	// Local expiry pre-check: a JWT whose exp is already in the past cannot
	// pass verification, so skip the round-trip. Opaque tokens fall through
	// to the backend check.
	if expiredLocally(tokens.Access, m.now()) {
		m.logger.InfoContext(ctx, "persisted token already expired")
		m.failClosed(ctx)
		return StateUnauthenticated
	}

	if err := m.backend.VerifyToken(ctx, tokens.Access); err != nil {
		m.logger.InfoContext(ctx, "token verification failed",
			slog.String("error", err.Error()),
		)
		m.failClosed(ctx)
		return StateUnauthenticated
	}

	m.setState(StateAuthenticated, tokens)
	m.logger.InfoContext(ctx, "session validated")
	return StateAuthenticated
}

// failClosed clears the persisted token and marks the session
// unauthenticated.
func (m *Manager) failClosed(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to clear token store",
			slog.String("error", err.Error()),
		)
	}
	m.setState(StateUnauthenticated, StoredTokens{})
}

// expiredLocally reports whether the token is a JWT with an exp claim in the
// past. Unparseable tokens are not judged locally.
func expiredLocally(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}

// SignIn exchanges credentials for a token pair, persists it, and marks the
// session authenticated. On failure the backend-provided message is
// preserved in the returned error and the session state is untouched.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	pair, err := m.backend.IssueToken(ctx, email, password)
	if err != nil {
		return err
	}

	tokens := StoredTokens{Access: pair.Access, Refresh: pair.Refresh}
	if err := m.store.Save(ctx, tokens); err != nil {
		return apperrors.Wrap(err, "persist session token")
	}

	m.setState(StateAuthenticated, tokens)
	m.logger.InfoContext(ctx, "signed in")
	return nil
}

// Register creates a new account. The session state is unchanged; the
// caller signs in separately.
func (m *Manager) Register(ctx context.Context, input api.RegisterInput) error {
	return m.backend.Register(ctx, input)
}

// SignOut clears the persisted token and marks the session unauthenticated.
// It always succeeds locally; no backend call is made.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to clear token store on sign-out",
			slog.String("error", err.Error()),
		)
	}
	m.setState(StateUnauthenticated, StoredTokens{})
	m.logger.InfoContext(ctx, "signed out")

	for _, fn := range m.onSignOut {
		fn()
	}
}

// Invalidate is the hook for downstream components observing an
// authorization failure from an authenticated call. It behaves like
// SignOut: fail closed, notify listeners.
func (m *Manager) Invalidate(ctx context.Context) {
	if !m.IsAuthenticated() {
		return
	}
	m.logger.WarnContext(ctx, "session invalidated by downstream authorization failure")
	m.SignOut(ctx)
}

// RequireAuth is the guard for protected operations. It returns an
// unauthorized error when the session is not authenticated; the caller must
// redirect to sign-in instead of proceeding.
func (m *Manager) RequireAuth() error {
	if !m.IsAuthenticated() {
		return apperrors.Unauthorized("sign in required")
	}
	return nil
}
