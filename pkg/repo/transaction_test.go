package repo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(NewEndpoint(srv.URL, "/", ""), Flat, nil)
	require.NoError(t, err)

	return c, srv
}

func TestTransactionKeepAliveRefreshesPeriodically(t *testing.T) {
	var maintainCount atomic.Int64
	var txnURI string

	mux := http.NewServeMux()
	mux.HandleFunc("/fcr:tx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", txnURI)
		w.WriteHeader(http.StatusCreated)
	})

	c, srv := newTestClient(t, mux)
	txnURI = srv.URL + "/tx123"

	mux.HandleFunc("/tx123", func(w http.ResponseWriter, r *http.Request) {
		maintainCount.Add(1)
		w.Header().Set("Expires", time.Now().Add(3*time.Minute).Format(http.TimeFormat))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/tx123/fcr:tx/fcr:commit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c.KeepAliveInterval = 200 * time.Millisecond

	ctx := context.Background()
	tc, err := Begin(ctx, c)
	require.NoError(t, err)
	assert.True(t, tc.Active())

	time.Sleep(900 * time.Millisecond)

	assert.GreaterOrEqual(t, maintainCount.Load(), int64(3))

	require.NoError(t, tc.Commit(ctx))
	assert.False(t, tc.Active())
}

func TestTransactionKeepAliveFailureMarksInactive(t *testing.T) {
	var txnURI string

	mux := http.NewServeMux()
	mux.HandleFunc("/fcr:tx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", txnURI)
		w.WriteHeader(http.StatusCreated)
	})

	c, srv := newTestClient(t, mux)
	txnURI = srv.URL + "/tx456"

	mux.HandleFunc("/tx456", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c.KeepAliveInterval = 100 * time.Millisecond

	ctx := context.Background()
	tc, err := Begin(ctx, c)
	require.NoError(t, err)

	time.Sleep(400 * time.Millisecond)

	assert.False(t, tc.Active())
}

func TestTransactionInsertAndRemoveURIRoundTrip(t *testing.T) {
	c, err := NewClient(NewEndpoint("http://repo.example.org/rest", "/", ""), Flat, nil)
	require.NoError(t, err)

	tc := &TransactionClient{Client: c, txnURI: "http://repo.example.org/rest/tx123"}

	inserted := tc.InsertTransactionURI("http://repo.example.org/rest/a/b")
	assert.Equal(t, "http://repo.example.org/rest/tx123/a/b", inserted)

	removed := tc.RemoveTransactionURI(inserted)
	assert.Equal(t, "http://repo.example.org/rest/a/b", removed)

	other := "http://repo.example.org/rest/other"
	assert.Equal(t, other, tc.RemoveTransactionURI(tc.InsertTransactionURI(other)))
}

func TestTransactionRequestRewritesLocationHeader(t *testing.T) {
	var txnURI string

	mux := http.NewServeMux()
	mux.HandleFunc("/fcr:tx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", txnURI)
		w.WriteHeader(http.StatusCreated)
	})

	c, srv := newTestClient(t, mux)
	txnURI = srv.URL + "/tx789"

	var seenPath string
	mux.HandleFunc("/tx789/a/new", func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		w.Header().Set("Location", txnURI+"/a/new")
		w.WriteHeader(http.StatusCreated)
	})

	c.KeepAliveInterval = time.Hour

	ctx := context.Background()
	tc, err := Begin(ctx, c)
	require.NoError(t, err)
	defer tc.Rollback(ctx)

	resp, err := tc.Put(ctx, srv.URL+"/a/new", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "/tx789/a/new", seenPath)
	assert.Equal(t, srv.URL+"/a/new", resp.Header.Get("Location"))
}
