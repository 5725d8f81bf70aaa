package apiclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-partner-portal/apiclient"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

func TestToList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []item
		wantErr error
	}{
		{name: "bare array", raw: `[{"id":1},{"id":2}]`, want: []item{{ID: 1}, {ID: 2}}},
		{name: "results envelope", raw: `{"count":2,"next":null,"results":[{"id":1},{"id":2}]}`, want: []item{{ID: 1}, {ID: 2}}},
		{name: "empty array", raw: `[]`, want: []item{}},
		{name: "null results", raw: `{"results":null}`, want: []item{}},
		{name: "empty body", raw: ``, want: []item{}},
		{name: "null body", raw: `null`, want: []item{}},
		{name: "object without results", raw: `{"id":1}`, wantErr: apiclient.ErrUnexpectedShape},
		{name: "scalar", raw: `42`, wantErr: apiclient.ErrUnexpectedShape},
		{name: "string", raw: `"nope"`, wantErr: apiclient.ErrUnexpectedShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := apiclient.ToList[item](json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("malformed items", func(t *testing.T) {
		_, err := apiclient.ToList[item](json.RawMessage(`[{"id":"one"}]`))
		require.Error(t, err)
		require.NotErrorIs(t, err, apiclient.ErrUnexpectedShape)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.login(t)

	for i := 1; i <= 25; i++ {
		status := "new"
		if i%2 == 0 {
			status = "approved"
		}
		require.NoError(t, f.client.Post(ctx, apiclient.EndpointApplicants, map[string]any{"name": fmt.Sprintf("applicant %d", i), "status": status}, nil))
	}

	first, err := apiclient.List[item](ctx, f.client, apiclient.EndpointApplicants, nil)
	require.NoError(t, err)
	require.Len(t, first, 20)
	require.Equal(t, 1, first[0].ID)

	approved, err := apiclient.List[item](ctx, f.client, apiclient.EndpointApplicants, url.Values{"status": {"approved"}})
	require.NoError(t, err)
	require.Len(t, approved, 12)

	all, err := apiclient.ListAll[item](ctx, f.client, apiclient.EndpointApplicants, url.Values{"page_size": {"10"}})
	require.NoError(t, err)
	require.Len(t, all, 25)
	require.Equal(t, 25, all[24].ID)
	require.Equal(t, "applicant 25", all[24].Name)
}

func TestListAll_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1},{"id":2},{"id":3}]`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, newTokenStore())
	all, err := apiclient.ListAll[item](context.Background(), c, "/api/workflows/", nil)
	require.NoError(t, err)
	require.Equal(t, []item{{ID: 1}, {ID: 2}, {ID: 3}}, all)
}

func TestListAll_ForeignNextLinkCarriesNoToken(t *testing.T) {
	ctx := context.Background()

	var foreignAuth string
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"count":3,"next":null,"results":[{"id":3}]}`))
	}))
	defer foreign.Close()

	var localAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		localAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":   3,
			"next":    foreign.URL + "/steal",
			"results": []item{{ID: 1}, {ID: 2}},
		})
	}))
	defer srv.Close()

	store := newTokenStore()
	store.Set(ctx, "SECRET-ACCESS", "R1")
	c := newClient(t, srv.URL, store)

	all, err := apiclient.ListAll[item](ctx, c, apiclient.EndpointApplicants, nil)
	require.NoError(t, err)
	require.Equal(t, []item{{ID: 1}, {ID: 2}, {ID: 3}}, all)
	require.Equal(t, "Bearer SECRET-ACCESS", localAuth)
	require.Empty(t, foreignAuth)
}
