// Package handles implements a client for the external handle-minting
// service that assigns persistent hdl: identifiers to published
// repository resources.
package handles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/umd-lib/plastron-go/internal/merrors"
)

// HandleInfo describes one handle record, whether or not it has been
// minted yet.
//
// Grounded on HandleInfo in plastron/handles.py (via test_handles.py).
type HandleInfo struct {
	Exists bool
	Prefix string
	Suffix string
	URL    string
	Repo   string
	RepoID string
}

// HdlURI renders the handle as an hdl: URI.
func (h HandleInfo) HdlURI() string {
	return fmt.Sprintf("hdl:%s/%s", h.Prefix, h.Suffix)
}

func (h HandleInfo) String() string {
	return fmt.Sprintf("%s/%s", h.Prefix, h.Suffix)
}

// HandleServiceClient talks to the handle-minting service's REST API.
//
// Grounded on HandleServiceClient in plastron/handles.py.
type HandleServiceClient struct {
	Endpoint string
	JWTToken string
	HTTP     *http.Client
}

// NewHandleServiceClient constructs a client for the handle service at
// endpoint, authenticating with a bearer JWT.
func NewHandleServiceClient(endpoint, jwtToken string) *HandleServiceClient {
	return &HandleServiceClient{
		Endpoint: strings.TrimRight(endpoint, "/"),
		JWTToken: jwtToken,
		HTTP:     &http.Client{},
	}
}

type existsResponse struct {
	Exists bool   `json:"exists"`
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
	URL    string `json:"url"`
	Repo   string `json:"repo"`
	RepoID string `json:"repo_id"`
}

type mintResponse struct {
	Suffix  string `json:"suffix"`
	Request struct {
		URL    string `json:"url"`
		Prefix string `json:"prefix"`
		Repo   string `json:"repo"`
		RepoID string `json:"repo_id"`
	} `json:"request"`
}

func (c *HandleServiceClient) do(ctx context.Context, method, uri string, body any) (*http.Response, error) {
	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, merrors.HandleRegistryError{Op: method, Err: err}
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, merrors.HandleRegistryError{Op: method, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.JWTToken)

	var resp *http.Response

	op := func() error {
		var doErr error
		resp, doErr = c.HTTP.Do(req)
		return doErr
	}

	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)); err != nil {
		return nil, merrors.HandleRegistryError{Op: method, Err: err}
	}

	return resp, nil
}

// FindHandle looks up the handle (if any) registered for url.
//
// Grounded on HandleServiceClient.find_handle.
func (c *HandleServiceClient) FindHandle(ctx context.Context, targetURL string) (HandleInfo, error) {
	q := url.Values{"url": {targetURL}}
	uri := c.Endpoint + "/handles/exists?" + q.Encode()

	resp, err := c.do(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return HandleInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HandleInfo{}, merrors.HandleRegistryError{Op: "find_handle", StatusCode: resp.StatusCode}
	}

	var parsed existsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return HandleInfo{}, merrors.HandleRegistryError{Op: "find_handle", Err: err}
	}

	return HandleInfo{Exists: parsed.Exists, Prefix: parsed.Prefix, Suffix: parsed.Suffix, URL: parsed.URL, Repo: parsed.Repo, RepoID: parsed.RepoID}, nil
}

// GetInfo fetches the current registration for an existing prefix/suffix
// pair, e.g. to confirm what a handle embedded in a repository resource
// actually resolves to before deciding whether it needs updating.
//
// Grounded on HandleServiceClient.get_info, used from
// plastron-repo/src/plastron/repo/publish.py's PublishableResource.publish.
func (c *HandleServiceClient) GetInfo(ctx context.Context, prefix, suffix string) (HandleInfo, error) {
	uri := fmt.Sprintf("%s/handles/%s/%s", c.Endpoint, prefix, suffix)

	resp, err := c.do(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return HandleInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HandleInfo{}, merrors.HandleRegistryError{Op: "get_info", StatusCode: resp.StatusCode}
	}

	var parsed existsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return HandleInfo{}, merrors.HandleRegistryError{Op: "get_info", Err: err}
	}

	return HandleInfo{Exists: parsed.Exists, Prefix: parsed.Prefix, Suffix: parsed.Suffix, URL: parsed.URL, Repo: parsed.Repo, RepoID: parsed.RepoID}, nil
}

// CreateHandle mints a new handle for repoID pointing at targetURL.
//
// Grounded on HandleServiceClient.create_handle.
func (c *HandleServiceClient) CreateHandle(ctx context.Context, repoID, targetURL string) (HandleInfo, error) {
	uri := c.Endpoint + "/handles"

	resp, err := c.do(ctx, http.MethodPost, uri, map[string]string{"repo_id": repoID, "url": targetURL})
	if err != nil {
		return HandleInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return HandleInfo{}, merrors.HandleRegistryError{Op: "create_handle", StatusCode: resp.StatusCode}
	}

	var parsed mintResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return HandleInfo{}, merrors.HandleRegistryError{Op: "create_handle", Err: err}
	}

	return HandleInfo{Exists: true, Prefix: parsed.Request.Prefix, Suffix: parsed.Suffix, URL: parsed.Request.URL, Repo: parsed.Request.Repo, RepoID: parsed.Request.RepoID}, nil
}

// UpdateHandle applies updates (any of "url", "repo", "repo_id") to an
// existing handle.
//
// Grounded on HandleServiceClient.update_handle, called from
// PublishableResource.publish with whichever of url/repo/repo_id were
// found to be out of date.
func (c *HandleServiceClient) UpdateHandle(ctx context.Context, handle HandleInfo, updates map[string]string) (HandleInfo, error) {
	uri := fmt.Sprintf("%s/handles/%s/%s", c.Endpoint, handle.Prefix, handle.Suffix)

	resp, err := c.do(ctx, http.MethodPatch, uri, updates)
	if err != nil {
		return HandleInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HandleInfo{}, merrors.HandleRegistryError{Op: "update_handle", StatusCode: resp.StatusCode}
	}

	var parsed mintResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return HandleInfo{}, merrors.HandleRegistryError{Op: "update_handle", Err: err}
	}

	return HandleInfo{Exists: true, Prefix: handle.Prefix, Suffix: parsed.Suffix, URL: parsed.Request.URL, Repo: parsed.Request.Repo, RepoID: parsed.Request.RepoID}, nil
}
