package preferences_test

import (
	"context"
	"errors"
	"testing"

	portalerrors "github.com/jrsteele09/go-partner-portal/internal/errors"
	"github.com/jrsteele09/go-partner-portal/preferences"
	"github.com/jrsteele09/go-partner-portal/storage"
	"github.com/jrsteele09/go-partner-portal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) Get(context.Context, string) (string, bool, error) { return "", false, errBroken }
func (brokenStore) Set(context.Context, map[string]string) error      { return errBroken }
func (brokenStore) Delete(context.Context, ...string) error           { return errBroken }

func TestLocale_Default(t *testing.T) {
	p := preferences.New(memory.New(), preferences.WithLogger(zerolog.Nop()))
	require.Equal(t, "en", p.Locale(context.Background()))
}

func TestSetLocale(t *testing.T) {
	tests := []struct {
		tag    string
		stored string
		err    error
	}{
		{tag: "de", stored: "de"},
		{tag: "fr-CA", stored: "fr"},
		{tag: " pt-BR ", stored: "pt"},
		{tag: "en-GB", stored: "en"},
		{tag: "", err: portalerrors.ErrInvalidLocale},
		{tag: "not a locale", err: portalerrors.ErrInvalidLocale},
		{tag: "ja", err: portalerrors.ErrInvalidLocale},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			ctx := context.Background()
			backend := memory.New()
			p := preferences.New(backend, preferences.WithLogger(zerolog.Nop()))

			got, err := p.SetLocale(ctx, tt.tag)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				require.Equal(t, "en", p.Locale(ctx))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.stored, got)
			require.Equal(t, tt.stored, p.Locale(ctx))

			raw, ok, err := backend.Get(ctx, storage.KeyLocale)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tt.stored, raw)
		})
	}
}

func TestResetLocale(t *testing.T) {
	ctx := context.Background()
	p := preferences.New(memory.New(), preferences.WithLogger(zerolog.Nop()))
	_, err := p.SetLocale(ctx, "it")
	require.NoError(t, err)

	require.NoError(t, p.ResetLocale(ctx))
	require.Equal(t, "en", p.Locale(ctx))
}

func TestLocale_SurvivesTokenClear(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	p := preferences.New(backend, preferences.WithLogger(zerolog.Nop()))
	_, err := p.SetLocale(ctx, "es")
	require.NoError(t, err)

	require.NoError(t, backend.Delete(ctx, storage.KeyAccessToken, storage.KeyRefreshToken))
	require.Equal(t, "es", p.Locale(ctx))
}

func TestLocale_BrokenStore(t *testing.T) {
	ctx := context.Background()
	p := preferences.New(brokenStore{}, preferences.WithLogger(zerolog.Nop()))

	require.Equal(t, "en", p.Locale(ctx))
	_, err := p.SetLocale(ctx, "de")
	require.ErrorIs(t, err, errBroken)
	require.ErrorIs(t, p.ResetLocale(ctx), errBroken)
}

func TestLocale_MalformedStoredValue(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	require.NoError(t, backend.Set(ctx, map[string]string{storage.KeyLocale: "!!"}))

	p := preferences.New(backend, preferences.WithLogger(zerolog.Nop()))
	require.Equal(t, "en", p.Locale(ctx))
}
