package resources_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/go-partner-portal/apiclient"
	"github.com/jrsteele09/go-partner-portal/fakebackend"
	"github.com/jrsteele09/go-partner-portal/resources"
	"github.com/jrsteele09/go-partner-portal/storage/memory"
	"github.com/jrsteele09/go-partner-portal/tokens"
	"github.com/jrsteele09/go-partner-portal/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testFixture struct {
	backend *fakebackend.Server
	portal  *resources.Portal
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	ctx := context.Background()

	backend := fakebackend.New(fakebackend.WithLogger(zerolog.Nop()), fakebackend.WithPasswordCost(bcrypt.MinCost))
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	_, err := backend.SeedUser(users.User{Email: "a@x.com"}, "secret123456")
	require.NoError(t, err)

	store := tokens.NewStore(memory.New(), tokens.WithLogger(zerolog.Nop()))
	client, err := apiclient.New(srv.URL, store, apiclient.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	_, err = client.Login(ctx, "a@x.com", "secret123456")
	require.NoError(t, err)

	return &testFixture{backend: backend, portal: resources.New(client)}
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	applicants := f.portal.Applicants

	created, err := applicants.Create(ctx, resources.Applicant{FirstName: "Ada", LastName: "Lovelace", Status: "new"})
	require.NoError(t, err)
	require.Equal(t, 1, created.ID)
	require.NotEmpty(t, created.CreatedAt)

	got, err := applicants.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	updated, err := applicants.Update(ctx, created.ID, map[string]string{"status": "approved"})
	require.NoError(t, err)
	require.Equal(t, "approved", updated.Status)
	require.Equal(t, "Ada", updated.FirstName)

	replaced, err := applicants.Replace(ctx, created.ID, resources.Applicant{FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)
	require.Equal(t, "Grace", replaced.FirstName)
	require.Empty(t, replaced.Status)

	list, err := applicants.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, applicants.Delete(ctx, created.ID))
	_, err = applicants.Get(ctx, created.ID)
	require.ErrorIs(t, err, apiclient.ErrRequestFailed)
	require.Equal(t, 404, apiclient.Status(err))
}

func TestCollection_AllAndFilters(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	for i := 0; i < 45; i++ {
		status := "open"
		if i%3 == 0 {
			status = "closed"
		}
		_, err := f.portal.Tickets.Create(ctx, resources.Ticket{Subject: "help", Status: status})
		require.NoError(t, err)
	}

	first, err := f.portal.Tickets.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, first, 20)

	all, err := f.portal.Tickets.All(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 45)

	closed, err := f.portal.Tickets.All(ctx, url.Values{"status": {"closed"}})
	require.NoError(t, err)
	require.Len(t, closed, 15)
}

func TestNewCollection_AddsTrailingSlash(t *testing.T) {
	c := resources.NewCollection[resources.Referral](nil, "/api/referrals")
	require.Equal(t, "/api/referrals/", c.Path)
}

func TestDocuments_UploadDownload(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	doc, err := f.portal.Documents.Upload(ctx, 12, "contract.pdf", strings.NewReader("%PDF-1.7 contract"))
	require.NoError(t, err)
	require.Equal(t, 12, doc.Applicant)
	require.Equal(t, "contract.pdf", doc.Name)
	require.Equal(t, "application/pdf", doc.ContentType)
	require.EqualValues(t, len("%PDF-1.7 contract"), doc.Size)

	docs, err := f.portal.Documents.List(ctx, url.Values{"applicant": {"12"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	d, err := f.portal.Documents.Download(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7 contract", string(d.Body))
	require.Equal(t, "contract.pdf", d.Filename)
}

func TestReports_Export(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	for _, amount := range []float64{120.5, 80} {
		_, err := f.portal.Commissions.Create(ctx, resources.Commission{Amount: amount, Status: "due"})
		require.NoError(t, err)
	}
	_, err := f.portal.Commissions.Create(ctx, resources.Commission{Amount: 10, Status: "paid"})
	require.NoError(t, err)

	d, err := f.portal.Reports.Export(ctx, "commissions", url.Values{"status": {"due"}})
	require.NoError(t, err)
	require.Equal(t, "commissions.csv", d.Filename)

	lines := strings.Split(strings.TrimSpace(string(d.Body)), "\n")
	require.Equal(t, "id,amount,created_at,status", lines[0])
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "1,120.5,"))
}
