package tokens_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-partner-portal/storage"
	"github.com/jrsteele09/go-partner-portal/storage/memory"
	"github.com/jrsteele09/go-partner-portal/tokens"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every call.
type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) Get(context.Context, string) (string, bool, error) { return "", false, errBroken }
func (brokenStore) Set(context.Context, map[string]string) error      { return errBroken }
func (brokenStore) Delete(context.Context, ...string) error           { return errBroken }

func newStore() (*tokens.Store, *memory.Store) {
	backend := memory.New()
	return tokens.NewStore(backend, tokens.WithLogger(zerolog.Nop())), backend
}

func TestStore_SetThenRead(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()

	pairs := []tokens.Pair{
		{Access: "A1", Refresh: "R1"},
		{Access: "A2", Refresh: "R1"},
		{Access: "A3", Refresh: "R3"},
	}
	for _, p := range pairs {
		s.Set(ctx, p.Access, p.Refresh)

		access, ok := s.Access(ctx)
		require.True(t, ok)
		require.Equal(t, p.Access, access)

		refresh, ok := s.Refresh(ctx)
		require.True(t, ok)
		require.Equal(t, p.Refresh, refresh)

		got, ok := s.Pair(ctx)
		require.True(t, ok)
		require.Equal(t, p, got)
	}
}

func TestStore_ClearFromAnyState(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		s, _ := newStore()
		s.Clear(ctx)
		_, ok := s.Access(ctx)
		require.False(t, ok)
		_, ok = s.Refresh(ctx)
		require.False(t, ok)
	})

	t.Run("populated", func(t *testing.T) {
		s, backend := newStore()
		require.NoError(t, backend.Set(ctx, map[string]string{storage.KeyLocale: "fr"}))
		s.Set(ctx, "A1", "R1")
		s.Clear(ctx)

		_, ok := s.Access(ctx)
		require.False(t, ok)
		_, ok = s.Refresh(ctx)
		require.False(t, ok)
		_, ok = s.Pair(ctx)
		require.False(t, ok)

		// Preferences live beside the tokens and survive a clear.
		locale, ok, err := backend.Get(ctx, storage.KeyLocale)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "fr", locale)
	})
}

func TestStore_IncompletePairClears(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore()
	s.Set(ctx, "A1", "R1")

	s.Set(ctx, "A2", "")

	_, ok := s.Access(ctx)
	require.False(t, ok)
	require.Zero(t, backend.Len())
}

func TestStore_ClearIf(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()

	require.False(t, s.ClearIf(ctx, tokens.Pair{Access: "A1", Refresh: "R1"}))

	s.Set(ctx, "A2", "R2")
	require.False(t, s.ClearIf(ctx, tokens.Pair{Access: "A1", Refresh: "R1"}))
	got, ok := s.Pair(ctx)
	require.True(t, ok)
	require.Equal(t, tokens.Pair{Access: "A2", Refresh: "R2"}, got)

	require.True(t, s.ClearIf(ctx, got))
	_, ok = s.Pair(ctx)
	require.False(t, ok)
}

func TestStore_ReplaceAccess(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()

	require.False(t, s.ReplaceAccess(ctx, "R1", "A2"))
	_, ok := s.Access(ctx)
	require.False(t, ok)

	s.Set(ctx, "A1", "R1")
	require.True(t, s.ReplaceAccess(ctx, "R1", "A2"))
	got, _ := s.Pair(ctx)
	require.Equal(t, tokens.Pair{Access: "A2", Refresh: "R1"}, got)

	s.Set(ctx, "A3", "R3")
	require.False(t, s.ReplaceAccess(ctx, "R1", "A4"))
	got, _ = s.Pair(ctx)
	require.Equal(t, tokens.Pair{Access: "A3", Refresh: "R3"}, got)
}

func TestStore_BackendFailuresLookAbsent(t *testing.T) {
	ctx := context.Background()
	s := tokens.NewStore(brokenStore{}, tokens.WithLogger(zerolog.Nop()))

	require.NotPanics(t, func() {
		s.Set(ctx, "A1", "R1")
		s.Clear(ctx)
	})
	_, ok := s.Access(ctx)
	require.False(t, ok)
}

func TestExpiryAndOAuth2(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, err := tokens.Expiry(signed)
	require.NoError(t, err)
	require.True(t, exp.Equal(got))

	tok := tokens.OAuth2(signed)
	require.True(t, exp.Equal(tok.Expiry))

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)
	tok.SetAuthHeader(req)
	require.Equal(t, "Bearer "+signed, req.Header.Get("Authorization"))

	_, err = tokens.Expiry("opaque-token")
	require.Error(t, err)
	require.True(t, tokens.OAuth2("opaque-token").Expiry.IsZero())
}
