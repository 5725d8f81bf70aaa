package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/go-partner-portal/fakebackend"
	"github.com/jrsteele09/go-partner-portal/internal/config"
	"github.com/jrsteele09/go-partner-portal/storage/filestore"
	"github.com/jrsteele09/go-partner-portal/storage/memory"
	"github.com/jrsteele09/go-partner-portal/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupApp(t *testing.T) (*app, *bytes.Buffer, *fakebackend.Server) {
	t.Helper()

	backend := fakebackend.New(fakebackend.WithLogger(zerolog.Nop()), fakebackend.WithPasswordCost(bcrypt.MinCost))
	_, err := backend.SeedUser(users.User{
		Email:     "a@x.com",
		FirstName: "Ada",
		Partner:   &users.Partner{CompanyName: "Acme", Status: "active"},
	}, "secret123456")
	require.NoError(t, err)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "state.json"))

	var out bytes.Buffer
	a, err := newApp(context.Background(), config.New(), &out)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, &out, backend
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Setenv("STORE_DRIVER", "memory")
	s, closer, err := openStore(ctx, config.New())
	require.NoError(t, err)
	require.Nil(t, closer)
	require.IsType(t, &memory.Store{}, s)

	path := filepath.Join(t.TempDir(), "state.json")
	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("STORE_PATH", path)
	s, _, err = openStore(ctx, config.New())
	require.NoError(t, err)
	require.Equal(t, path, s.(*filestore.Store).Path())

	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "not a url")
	_, _, err = openStore(ctx, config.New())
	require.Error(t, err)
}

func TestCommands_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	a, out, _ := setupApp(t)

	require.NoError(t, whoamiCmd(ctx, a, nil))
	require.Contains(t, out.String(), "not signed in")

	out.Reset()
	require.NoError(t, loginCmd(ctx, a, []string{"-email", "a@x.com", "-password", "secret123456"}))
	require.Contains(t, out.String(), "Ada")
	require.Contains(t, out.String(), "partner account active")

	out.Reset()
	require.NoError(t, whoamiCmd(ctx, a, nil))
	require.Contains(t, out.String(), "a@x.com")

	require.Error(t, loginCmd(ctx, a, []string{"-email", "a@x.com", "-password", "wrong-password"}))

	out.Reset()
	require.NoError(t, logoutCmd(ctx, a, nil))
	require.NoError(t, whoamiCmd(ctx, a, nil))
	require.Contains(t, out.String(), "not signed in")
}

func TestCommands_LoginPromptsForPassword(t *testing.T) {
	ctx := context.Background()
	t.Setenv("PORTAL_PASSWORD", "")
	a, out, _ := setupApp(t)
	a.in = strings.NewReader("secret123456\n")

	require.NoError(t, loginCmd(ctx, a, []string{"-email", "a@x.com"}))
	require.Contains(t, out.String(), "password: ")
	require.Contains(t, out.String(), "Ada")
	require.NotContains(t, out.String(), "secret123456")
}

func TestCommands_Resources(t *testing.T) {
	ctx := context.Background()
	a, out, backend := setupApp(t)
	require.NoError(t, loginCmd(ctx, a, []string{"-email", "a@x.com", "-password", "secret123456"}))

	file := filepath.Join(t.TempDir(), "passport.txt")
	require.NoError(t, os.WriteFile(file, []byte("id"), 0o600))

	out.Reset()
	require.NoError(t, uploadCmd(ctx, a, []string{"-applicant", "3", file}))
	require.Contains(t, out.String(), "uploaded passport.txt as document 1")

	out.Reset()
	require.NoError(t, listCmd(ctx, a, []string{"-all", "-q", "applicant=3", "documents"}))
	require.Contains(t, out.String(), "1 item(s)")
	require.Contains(t, out.String(), `"name": "passport.txt"`)

	out.Reset()
	require.NoError(t, getCmd(ctx, a, []string{"/api/documents/1/"}))
	require.Contains(t, out.String(), `"applicant": 3`)

	backend.RevokeAccessTokens()
	backend.FailRefresh(true)
	err := getCmd(ctx, a, []string{"/api/documents/1/"})
	require.ErrorContains(t, err, "portal login")
}

func TestCommands_Export(t *testing.T) {
	ctx := context.Background()
	a, _, _ := setupApp(t)
	require.NoError(t, loginCmd(ctx, a, []string{"-email", "a@x.com", "-password", "secret123456"}))
	require.NoError(t, a.client.Post(ctx, "/api/referrals/", map[string]string{"name": "Bob"}, nil))

	target := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, exportCmd(ctx, a, []string{"-o", target, "referrals"}))
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(content), "id,created_at,name")
}

func TestCommands_Locale(t *testing.T) {
	ctx := context.Background()
	a, out, _ := setupApp(t)

	require.NoError(t, localeCmd(ctx, a, nil))
	require.Equal(t, "en\n", out.String())

	out.Reset()
	require.NoError(t, localeCmd(ctx, a, []string{"de-AT"}))
	require.Contains(t, out.String(), "locale set to de")

	require.Error(t, localeCmd(ctx, a, []string{"??"}))
	require.Error(t, localeCmd(ctx, a, []string{"a", "b"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	require.Error(t, run(nil))
	require.ErrorContains(t, run([]string{"frobnicate"}), "unknown command")
}
