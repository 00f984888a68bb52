package batch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umd-lib/plastron-go/pkg/rdf"
	"github.com/umd-lib/plastron-go/pkg/repo"
)

func tenItems() []Item {
	items := make([]Item, 10)
	for i := range items {
		items[i] = Item{Path: fmt.Sprintf("item-%d.xml", i)}
	}

	return items
}

func newEngineTestClient(t *testing.T, postCount *atomic.Int64) *repo.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postCount.Add(1)
		w.Header().Set("Location", r.URL.String())
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	c, err := repo.NewClient(repo.NewEndpoint(srv.URL, "/", ""), repo.Flat, nil)
	require.NoError(t, err)

	return c
}

func TestRunResumesFromCompletedLogWithoutReposting(t *testing.T) {
	var postCount atomic.Int64
	client := newEngineTestClient(t, &postCount)

	dir := t.TempDir()

	completed, err := OpenItemLog(filepath.Join(dir, "completed.csv"), fieldnamesForEngine, "path", true, nil)
	require.NoError(t, err)
	defer completed.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, completed.Append(Row{"path": fmt.Sprintf("item-%d.xml", i)}))
	}

	skipped, err := OpenItemLog(filepath.Join(dir, "skipped.csv"), fieldnamesForEngine, "path", true, nil)
	require.NoError(t, err)
	defer skipped.Close()

	load := func(ctx context.Context, c repo.RequestClient, item Item, extra *rdf.Graph) (string, error) {
		resp, err := c.Post(ctx, client.Repo.URI(), nil, nil)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		loc, _ := c.GetLocation(resp)
		return loc, nil
	}

	result, err := Run(context.Background(), tenItems(), Options{
		Client:    client,
		Completed: completed,
		Skipped:   skipped,
		Load:      load,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(6), postCount.Load())
	assert.Equal(t, 6, result.Loaded)
	assert.Equal(t, 0, skipped.Len())
	assert.Equal(t, 10, completed.Len())
}

func TestRunRespectsLimit(t *testing.T) {
	var postCount atomic.Int64
	client := newEngineTestClient(t, &postCount)

	completed, err := OpenItemLog(filepath.Join(t.TempDir(), "completed.csv"), fieldnamesForEngine, "path", true, nil)
	require.NoError(t, err)
	defer completed.Close()

	load := func(ctx context.Context, c repo.RequestClient, item Item, extra *rdf.Graph) (string, error) {
		resp, err := c.Post(ctx, client.Repo.URI(), nil, nil)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		return "", nil
	}

	result, err := Run(context.Background(), tenItems(), Options{
		Client:    client,
		Completed: completed,
		Limit:     3,
		Load:      load,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Loaded)
	assert.Equal(t, int64(3), postCount.Load())
}

func TestRunSkipsIgnoredItems(t *testing.T) {
	var postCount atomic.Int64
	client := newEngineTestClient(t, &postCount)

	dir := t.TempDir()
	completed, err := OpenItemLog(filepath.Join(dir, "completed.csv"), fieldnamesForEngine, "path", true, nil)
	require.NoError(t, err)
	defer completed.Close()

	ignored, err := OpenItemLog(filepath.Join(dir, "ignored.csv"), fieldnamesForEngine, "path", true, nil)
	require.NoError(t, err)
	require.NoError(t, ignored.Append(Row{"path": "item-0.xml"}))
	require.NoError(t, ignored.Append(Row{"path": "item-1.xml"}))
	defer ignored.Close()

	load := func(ctx context.Context, c repo.RequestClient, item Item, extra *rdf.Graph) (string, error) {
		resp, err := c.Post(ctx, client.Repo.URI(), nil, nil)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		return "", nil
	}

	result, err := Run(context.Background(), tenItems(), Options{
		Client:    client,
		Completed: completed,
		Ignored:   ignored,
		Load:      load,
	})

	require.NoError(t, err)
	assert.Equal(t, 8, result.Loaded)
	assert.Equal(t, 2, result.Ignored)
	assert.Equal(t, int64(8), postCount.Load())
}

func TestRunTransactionRollsBackOnLoadFailure(t *testing.T) {
	mux := http.NewServeMux()
	var txnURI string

	mux.HandleFunc("/fcr:tx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", txnURI)
		w.WriteHeader(http.StatusCreated)
	})

	var rolledBack atomic.Bool

	srv := httptest.NewServer(mux)
	defer srv.Close()
	txnURI = srv.URL + "/tx1"

	mux.HandleFunc("/tx1/fcr:tx/fcr:rollback", func(w http.ResponseWriter, r *http.Request) {
		rolledBack.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/tx1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	client, err := repo.NewClient(repo.NewEndpoint(srv.URL, "/", ""), repo.Flat, nil)
	require.NoError(t, err)

	completed, err := OpenItemLog(filepath.Join(t.TempDir(), "completed.csv"), fieldnamesForEngine, "path", true, nil)
	require.NoError(t, err)
	defer completed.Close()

	skipped, err := OpenItemLog(filepath.Join(t.TempDir(), "skipped.csv"), fieldnamesForEngine, "path", true, nil)
	require.NoError(t, err)
	defer skipped.Close()

	load := func(ctx context.Context, c repo.RequestClient, item Item, extra *rdf.Graph) (string, error) {
		return "", fmt.Errorf("read failed for %s", item.Path)
	}

	result, err := Run(context.Background(), []Item{{Path: "bad.xml"}}, Options{
		Client:          client,
		UseTransactions: true,
		Completed:       completed,
		Skipped:         skipped,
		Load:            load,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.True(t, rolledBack.Load())
	assert.Equal(t, 1, skipped.Len())
}

var fieldnamesForEngine = []string{"number", "timestamp", "title", "path", "uri"}
