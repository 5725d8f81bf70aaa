// Package tokens holds the access/refresh credential pair on top of a durable
// storage.Store.
package tokens

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-partner-portal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Pair is the stored credential pair. Both fields are set or both are empty.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Valid reports whether both halves are present.
func (p Pair) Valid() bool {
	return p.Access != "" && p.Refresh != ""
}

// Store is the process-wide token store. Storage failures never reach callers:
// failed reads behave like an absent value and failed writes are logged.
type Store struct {
	backend storage.Store
	logger  zerolog.Logger

	// mu serializes writes so the conditional updates below see a stable pair.
	mu sync.Mutex
}

type StoreOption func(*Store)

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(backend storage.Store, options ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "tokens").Logger()
	return s
}

// Access returns the stored access token.
func (s *Store) Access(ctx context.Context) (string, bool) {
	return s.read(ctx, storage.KeyAccessToken)
}

// Refresh returns the stored refresh token.
func (s *Store) Refresh(ctx context.Context) (string, bool) {
	return s.read(ctx, storage.KeyRefreshToken)
}

// Pair returns both tokens, or false when either half is missing.
func (s *Store) Pair(ctx context.Context) (Pair, bool) {
	access, ok := s.Access(ctx)
	if !ok {
		return Pair{}, false
	}
	refresh, ok := s.Refresh(ctx)
	if !ok {
		return Pair{}, false
	}
	return Pair{Access: access, Refresh: refresh}, true
}

// Set writes both tokens in one storage call. A pair with an empty half is
// not stored; the store is cleared instead.
func (s *Store) Set(ctx context.Context, access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(ctx, access, refresh)
}

func (s *Store) setLocked(ctx context.Context, access, refresh string) {
	if access == "" || refresh == "" {
		s.logger.Warn().Bool("access", access != "").Bool("refresh", refresh != "").
			Msg("incomplete token pair, clearing store")
		s.clearLocked(ctx)
		return
	}
	err := s.backend.Set(ctx, map[string]string{
		storage.KeyAccessToken:  access,
		storage.KeyRefreshToken: refresh,
	})
	if err != nil {
		s.logger.Err(err).Msg("failed to persist token pair")
	}
}

// Clear removes both tokens.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

// ClearIf removes both tokens only while the store still holds pair. It
// reports whether anything was cleared.
func (s *Store) ClearIf(ctx context.Context, pair Pair) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.Pair(ctx)
	if !ok || current != pair {
		return false
	}
	s.clearLocked(ctx)
	return true
}

// ReplaceAccess stores a new access token alongside refresh, provided refresh
// is still the stored refresh token. It reports whether the write happened.
func (s *Store) ReplaceAccess(ctx context.Context, refresh, access string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.Refresh(ctx)
	if !ok || current != refresh {
		return false
	}
	s.setLocked(ctx, access, refresh)
	return true
}

func (s *Store) clearLocked(ctx context.Context) {
	if err := s.backend.Delete(ctx, storage.KeyAccessToken, storage.KeyRefreshToken); err != nil {
		s.logger.Err(err).Msg("failed to clear token pair")
	}
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Err(err).Str("key", key).Msg("token read failed, treating as absent")
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
