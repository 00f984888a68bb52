package handles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umd-lib/plastron-go/internal/merrors"
)

func TestFindHandleDoesNotExist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/handles/exists", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"exists": false})
	}))
	defer srv.Close()

	c := NewHandleServiceClient(srv.URL, "TOKEN")

	handle, err := c.FindHandle(context.Background(), "http://example.com/foobar")
	require.NoError(t, err)
	assert.False(t, handle.Exists)
}

func TestFindHandleExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"exists": true, "prefix": "1903.1", "suffix": "123", "url": "http://example.com/foobar",
		})
	}))
	defer srv.Close()

	c := NewHandleServiceClient(srv.URL, "TOKEN")

	handle, err := c.FindHandle(context.Background(), "http://example.com/foobar")
	require.NoError(t, err)
	assert.Equal(t, "1903.1", handle.Prefix)
	assert.Equal(t, "123", handle.Suffix)
	assert.Equal(t, "http://example.com/foobar", handle.URL)
	assert.Equal(t, "hdl:1903.1/123", handle.HdlURI())
	assert.Equal(t, "1903.1/123", handle.String())
}

func TestFindHandleErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHandleServiceClient(srv.URL, "TOKEN")

	_, err := c.FindHandle(context.Background(), "http://example.com/foobar")
	require.Error(t, err)

	var regErr merrors.HandleRegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, http.StatusBadRequest, regErr.StatusCode)
}

func TestCreateHandleSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/handles", r.URL.Path)
		assert.Equal(t, "Bearer TOKEN", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"suffix": "123",
			"request": map[string]any{
				"url": "http://example.com/foobar", "prefix": "1903.1",
			},
		})
	}))
	defer srv.Close()

	c := NewHandleServiceClient(srv.URL, "TOKEN")

	handle, err := c.CreateHandle(context.Background(), "http://localhost/fcrepo/foobar", "http://example.com/foobar")
	require.NoError(t, err)
	assert.Equal(t, "1903.1", handle.Prefix)
	assert.Equal(t, "123", handle.Suffix)
	assert.Equal(t, "http://example.com/foobar", handle.URL)
}

func TestCreateHandleError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHandleServiceClient(srv.URL, "TOKEN")

	_, err := c.CreateHandle(context.Background(), "http://localhost/fcrepo/foobar", "http://example.com/foobar")
	require.Error(t, err)
}

func TestUpdateHandle(t *testing.T) {
	var body map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/handles/1903.1/123", r.URL.Path)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		json.NewEncoder(w).Encode(map[string]any{
			"suffix": "123",
			"request": map[string]any{
				"url": "http://example.com/new-url", "prefix": "1903.1",
				"repo": "fcrepo", "repo_id": "http://localhost/fcrepo/foobar",
			},
		})
	}))
	defer srv.Close()

	c := NewHandleServiceClient(srv.URL, "TOKEN")

	updated, err := c.UpdateHandle(context.Background(), HandleInfo{Exists: true, Prefix: "1903.1", Suffix: "123", URL: "http://example.com/foobar"}, map[string]string{
		"url": "http://example.com/new-url", "repo": "fcrepo", "repo_id": "http://localhost/fcrepo/foobar",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/new-url", updated.URL)
	assert.Equal(t, "fcrepo", updated.Repo)
	assert.Equal(t, "http://localhost/fcrepo/foobar", updated.RepoID)
	assert.Equal(t, map[string]string{"url": "http://example.com/new-url", "repo": "fcrepo", "repo_id": "http://localhost/fcrepo/foobar"}, body)
}

func TestUpdateHandleError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHandleServiceClient(srv.URL, "TOKEN")

	_, err := c.UpdateHandle(context.Background(), HandleInfo{Prefix: "1903.1", Suffix: "123"}, map[string]string{"url": "http://example.com/new-url"})
	require.Error(t, err)
}
