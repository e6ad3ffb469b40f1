package forge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "softforge/softaculous-plugin", "test-token")
	require.NoError(t, err)
	return c
}

func TestForge_CreateRelease(t *testing.T) {
	t.Parallel()

	var got Release
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/repos/softforge/softaculous-plugin/releases", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.CreateRelease(context.Background(), Release{
		Tag:   "v2.3.1",
		Title: "Release v2.3.1",
		Notes: "Release v2.3.1",
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer test-token", auth)
	require.Equal(t, "v2.3.1", got.Tag)
	require.Equal(t, "Release v2.3.1", got.Title)
}

func TestForge_CreateRelease_DuplicateTag(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	err := c.CreateRelease(context.Background(), Release{Tag: "v1.0.0"})
	require.ErrorIs(t, err, ErrDuplicateTag)
}

func TestForge_CreateRelease_AuthFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := c.CreateRelease(context.Background(), Release{Tag: "v1.0.0"})
	require.ErrorIs(t, err, ErrAuth)
}

func TestForge_TagExists(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path == "/repos/softforge/softaculous-plugin/releases/tags/v1.0.0" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	exists, err := c.TagExists(context.Background(), "v1.0.0")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = c.TagExists(context.Background(), "v9.9.9")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestForge_NewClient_RequiresToken(t *testing.T) {
	t.Parallel()

	_, err := NewClient("https://forge.example", "softforge/plugin", "")
	require.ErrorIs(t, err, ErrAuth)
}
