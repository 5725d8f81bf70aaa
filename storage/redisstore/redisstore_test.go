package redisstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-partner-portal/storage"
	"github.com/jrsteele09/go-partner-portal/storage/redisstore"
	"github.com/stretchr/testify/require"
)

// Integration tests are enabled when PORTAL_REDIS_URL is set.

func TestRedisStore_RoundTrip(t *testing.T) {
	url := os.Getenv("PORTAL_REDIS_URL")
	if url == "" {
		t.Skip("PORTAL_REDIS_URL is not set; skipping redis integration test")
	}

	ctx := context.Background()
	s, err := redisstore.Open(ctx, url, "test-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Delete(ctx, storage.KeyAccessToken, storage.KeyRefreshToken)
		_ = s.Close()
	})

	_, ok, err := s.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, map[string]string{
		storage.KeyAccessToken:  "A1",
		storage.KeyRefreshToken: "R1",
	}))
	v, ok, err := s.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "A1", v)

	require.NoError(t, s.Delete(ctx, storage.KeyAccessToken, storage.KeyRefreshToken))
	_, ok, err = s.Get(ctx, storage.KeyRefreshToken)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpen_BadURL(t *testing.T) {
	_, err := redisstore.Open(context.Background(), "not a url", "x")
	require.Error(t, err)
}
