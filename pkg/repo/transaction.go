package repo

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/umd-lib/plastron-go/internal/merrors"
	"github.com/umd-lib/plastron-go/pkg/rdf"
)

// keepAliveInterval is how often a transaction's keep-alive ticks. Fedora's
// default transaction timeout is three minutes; ticking well under that
// keeps the transaction alive with margin.
const keepAliveInterval = 30 * time.Second

// TransactionClient wraps a Client, scoping every request to one Fedora
// transaction: outgoing URIs are rewritten into the transaction's
// namespace, and URIs coming back in response bodies/headers are rewritten
// back out to the repository's own namespace.
//
// Grounded on TransactionClient in plastron/client.py.
type TransactionClient struct {
	*Client

	txnURI     string
	supervisor *Supervisor
	active     atomic.Bool
}

// Begin starts a new transaction against c's repository and returns a
// TransactionClient scoped to it, with its keep-alive supervisor already
// running.
//
// Grounded on Client.transaction / TransactionClient.begin.
func Begin(ctx context.Context, c *Client) (*TransactionClient, error) {
	resp, err := c.Post(ctx, c.Repo.TransactionEndpoint(), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return nil, merrors.TransactionError{Op: "begin", Err: merrors.ClientError{
			Method: http.MethodPost, URL: c.Repo.TransactionEndpoint(), StatusCode: resp.StatusCode, Body: string(data),
		}}
	}

	txnURI, ok := c.GetLocation(resp)
	if !ok {
		return nil, merrors.TransactionError{Op: "begin", Err: merrors.NetworkError{URL: c.Repo.TransactionEndpoint()}}
	}

	tc := &TransactionClient{Client: c, txnURI: txnURI}
	tc.active.Store(true)

	interval := c.KeepAliveInterval
	if interval <= 0 {
		interval = keepAliveInterval
	}

	tc.supervisor = NewSupervisor(interval, tc.maintainCtx, c.Logger)
	tc.supervisor.Start(ctx)

	return tc, nil
}

func (tc *TransactionClient) maintainCtx(ctx context.Context) error {
	return tc.Maintain(ctx)
}

// URI returns the transaction's own URI (under fcr:tx).
func (tc *TransactionClient) URI() string { return tc.txnURI }

// Active reports whether the transaction is still open: it has not been
// committed, rolled back, or lost to a failed keep-alive.
//
// Grounded on TransactionClient.active.
func (tc *TransactionClient) Active() bool {
	return tc.active.Load() && !tc.supervisor.Failed()
}

// Maintain sends a keep-alive POST to the transaction's maintenance URI.
//
// Grounded on TransactionClient.maintain.
func (tc *TransactionClient) Maintain(ctx context.Context) error {
	resp, err := tc.Client.Post(ctx, tc.txnURI, nil, nil)
	if err != nil {
		return merrors.TransactionError{TransactionURI: tc.txnURI, Op: "maintain", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return merrors.TransactionError{TransactionURI: tc.txnURI, Op: "maintain", Err: merrors.ClientError{
			Method: http.MethodPost, URL: tc.txnURI, StatusCode: resp.StatusCode,
		}}
	}

	return nil
}

// Commit commits the transaction and stops its keep-alive supervisor.
//
// Grounded on TransactionClient.commit.
func (tc *TransactionClient) Commit(ctx context.Context) error {
	defer tc.supervisor.Stop()

	resp, err := tc.Client.Post(ctx, tc.txnURI+"/fcr:tx/fcr:commit", nil, nil)
	if err != nil {
		return merrors.TransactionError{TransactionURI: tc.txnURI, Op: "commit", Err: err}
	}
	defer resp.Body.Close()

	tc.active.Store(false)

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return merrors.TransactionError{TransactionURI: tc.txnURI, Op: "commit", Err: merrors.ClientError{
			Method: http.MethodPost, URL: tc.txnURI, StatusCode: resp.StatusCode, Body: string(data),
		}}
	}

	return nil
}

// Rollback rolls back the transaction and stops its keep-alive supervisor.
//
// Grounded on TransactionClient.rollback.
func (tc *TransactionClient) Rollback(ctx context.Context) error {
	defer tc.supervisor.Stop()

	resp, err := tc.Client.Post(ctx, tc.txnURI+"/fcr:tx/fcr:rollback", nil, nil)

	tc.active.Store(false)

	if err != nil {
		return merrors.TransactionError{TransactionURI: tc.txnURI, Op: "rollback", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return merrors.TransactionError{TransactionURI: tc.txnURI, Op: "rollback", Err: merrors.ClientError{
			Method: http.MethodPost, URL: tc.txnURI, StatusCode: resp.StatusCode,
		}}
	}

	return nil
}

// InsertTransactionURI rewrites a repository URI into this transaction's
// namespace: <repo-base>/<tail> becomes <txn-uri>/<tail>.
//
// Grounded on TransactionClient.insert_transaction_uri.
func (tc *TransactionClient) InsertTransactionURI(uri string) string {
	if strings.HasPrefix(uri, tc.txnURI) {
		return uri
	}

	if strings.HasPrefix(uri, tc.Repo.Base) {
		return tc.txnURI + strings.TrimPrefix(uri, tc.Repo.Base)
	}

	return uri
}

// RemoveTransactionURI rewrites a transaction-scoped URI back to the
// repository's own namespace: <txn-uri>/<tail> becomes
// <repo-base>/<tail>.
//
// Grounded on TransactionClient.remove_transaction_uri.
func (tc *TransactionClient) RemoveTransactionURI(uri string) string {
	if strings.HasPrefix(uri, tc.txnURI) {
		return tc.Repo.Base + strings.TrimPrefix(uri, tc.txnURI)
	}

	return uri
}

// InsertTransactionURIForGraph rewrites every subject/predicate/object in
// g from the repository's namespace into the transaction's, in place.
//
// Grounded on TransactionClient.insert_transaction_uri_for_graph.
func (tc *TransactionClient) InsertTransactionURIForGraph(g *rdf.Graph) {
	g.ChangeURI(tc.Repo.Base, tc.txnURI)
}

// Post, Put, Patch, Head, Get, Delete, and Request all rewrite the target
// URI into the transaction's namespace before delegating to the embedded
// Client, and rewrite the Location header (if present) back out.
//
// Grounded on TransactionClient.request.
func (tc *TransactionClient) Request(ctx context.Context, method, uri string, body io.Reader, headers map[string]string) (*http.Response, error) {
	if tc.supervisor.Failed() {
		return nil, merrors.TransactionError{TransactionURI: tc.txnURI, Op: method, Err: tc.supervisor.Err()}
	}

	resp, err := tc.Client.request(ctx, method, tc.InsertTransactionURI(uri), body, headers)
	if err != nil {
		return nil, err
	}

	if loc := resp.Header.Get("Location"); loc != "" {
		resp.Header.Set("Location", tc.RemoveTransactionURI(loc))
	}

	return resp, nil
}

func (tc *TransactionClient) Post(ctx context.Context, uri string, body io.Reader, headers map[string]string) (*http.Response, error) {
	return tc.Request(ctx, http.MethodPost, uri, body, headers)
}

func (tc *TransactionClient) Put(ctx context.Context, uri string, body io.Reader, headers map[string]string) (*http.Response, error) {
	return tc.Request(ctx, http.MethodPut, uri, body, headers)
}

func (tc *TransactionClient) Patch(ctx context.Context, uri string, body io.Reader, headers map[string]string) (*http.Response, error) {
	return tc.Request(ctx, http.MethodPatch, uri, body, headers)
}

func (tc *TransactionClient) Head(ctx context.Context, uri string, headers map[string]string) (*http.Response, error) {
	return tc.Request(ctx, http.MethodHead, uri, nil, headers)
}

func (tc *TransactionClient) Get(ctx context.Context, uri string, headers map[string]string) (*http.Response, error) {
	return tc.Request(ctx, http.MethodGet, uri, nil, headers)
}

func (tc *TransactionClient) Delete(ctx context.Context, uri string, headers map[string]string) (*http.Response, error) {
	return tc.Request(ctx, http.MethodDelete, uri, nil, headers)
}

// GetDescriptionURI rewrites uri into the transaction before delegating,
// and rewrites the result back out.
func (tc *TransactionClient) GetDescriptionURI(ctx context.Context, uri string, resp *http.Response) (string, error) {
	descURI, err := tc.Client.GetDescriptionURI(ctx, tc.InsertTransactionURI(uri), resp)
	if err != nil {
		return "", err
	}

	return tc.RemoveTransactionURI(descURI), nil
}

// GetDescription fetches uri's RDF description through the transaction's
// own Get/GetDescriptionURI (not the embedded Client's), so the request
// stays scoped to the transaction.
//
// Grounded on Client.get_description; reimplemented rather than inherited
// because Go's method promotion would otherwise call the embedded
// Client's Get directly, silently skipping transaction URI rewriting.
func (tc *TransactionClient) GetDescription(ctx context.Context, uri string, includeServerManaged bool) (ResourceURI, string, error) {
	descURI, err := tc.GetDescriptionURI(ctx, uri, nil)
	if err != nil {
		return ResourceURI{}, "", err
	}

	headers := map[string]string{"Accept": "application/n-triples"}
	if !includeServerManaged {
		headers["Prefer"] = omitServerManaged
	}

	resp, err := tc.Get(ctx, descURI, headers)
	if err != nil {
		return ResourceURI{}, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResourceURI{}, "", merrors.NetworkError{URL: descURI, Err: err}
	}

	if resp.StatusCode >= 300 {
		return ResourceURI{}, "", merrors.ClientError{Method: http.MethodGet, URL: descURI, StatusCode: resp.StatusCode, Body: string(data)}
	}

	return ResourceURI{URI: uri, DescriptionURI: descURI}, string(data), nil
}

// GetGraph fetches and parses uri's RDF description, scoped to the
// transaction.
func (tc *TransactionClient) GetGraph(ctx context.Context, uri string, includeServerManaged bool) (ResourceURI, *rdf.Graph, error) {
	resource, text, err := tc.GetDescription(ctx, uri, includeServerManaged)
	if err != nil {
		return ResourceURI{}, nil, err
	}

	g, err := rdf.DecodeNTriples(strings.NewReader(text))
	if err != nil {
		return ResourceURI{}, nil, merrors.DataReadError{Path: uri, Err: err}
	}

	return resource, g, nil
}

// Create creates a new resource per opts, scoped to the transaction.
func (tc *TransactionClient) Create(ctx context.Context, opts CreateOptions) (ResourceURI, error) {
	var (
		resp *http.Response
		err  error
	)

	switch {
	case opts.URL != "":
		resp, err = tc.Put(ctx, opts.URL, opts.Body, opts.Headers)
	case opts.Path != "":
		resp, err = tc.Put(ctx, tc.Repo.Base+opts.Path, opts.Body, opts.Headers)
	default:
		containerPath := opts.ContainerPath
		if containerPath == "" {
			containerPath = tc.Repo.Relpath
		}

		resp, err = tc.Post(ctx, tc.Repo.Base+containerPath, opts.Body, opts.Headers)
	}

	if err != nil {
		return ResourceURI{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return ResourceURI{}, merrors.ClientError{Method: "PUT/POST", URL: opts.URL, StatusCode: resp.StatusCode, Body: string(data)}
	}

	createdURI, ok := tc.GetLocation(resp)
	if !ok {
		createdURI = opts.URL
	}

	descURI, err := tc.GetDescriptionURI(ctx, createdURI, resp)
	if err != nil {
		return ResourceURI{}, err
	}

	return ResourceURI{URI: createdURI, DescriptionURI: descURI}, nil
}
