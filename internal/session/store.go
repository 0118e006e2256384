package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoToken is returned by a TokenStore when no token is persisted.
var ErrNoToken = errors.New("no token stored")

// StoredTokens is the persisted token pair. The access token is the bearer
// credential for every authenticated call; the refresh token is stored
// alongside it for a future token-refresh flow.
type StoredTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenStore persists the session token pair. Implementations must treat the
// pair as a single unit: Save replaces both values, Clear removes both.
type TokenStore interface {
	Load(ctx context.Context) (StoredTokens, error)
	Save(ctx context.Context, tokens StoredTokens) error
	Clear(ctx context.Context) error
}

// FileStore persists tokens as a JSON file in the user's data directory.
// This is the client-local persistent key-value storage of a single-user
// storefront installation.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed token store at the given path. Parent
// directories are created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted token pair. Returns ErrNoToken when the file does
// not exist or holds no access token.
func (s *FileStore) Load(ctx context.Context) (StoredTokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return StoredTokens{}, ErrNoToken
		}
		return StoredTokens{}, fmt.Errorf("read token file: %w", err)
	}

	var tokens StoredTokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		// A corrupt token file is treated the same as no token; the session
		// fails closed and a fresh sign-in rewrites it.
		return StoredTokens{}, ErrNoToken
	}
	if tokens.Access == "" {
		return StoredTokens{}, ErrNoToken
	}
	return tokens, nil
}

// Save writes the token pair with owner-only permissions.
func (s *FileStore) Save(ctx context.Context, tokens StoredTokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the persisted token pair. Clearing an absent file succeeds.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory TokenStore for tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.Mutex
	tokens StoredTokens
	held   bool
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (StoredTokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.held {
		return StoredTokens{}, ErrNoToken
	}
	return s.tokens, nil
}

func (s *MemoryStore) Save(ctx context.Context, tokens StoredTokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	s.held = true
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = StoredTokens{}
	s.held = false
	return nil
}
