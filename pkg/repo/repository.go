package repo

import (
	"context"
	"strings"

	"github.com/umd-lib/plastron-go/internal/mlog"
	"github.com/umd-lib/plastron-go/pkg/config"
	"github.com/umd-lib/plastron-go/pkg/rdf"
)

// Repository is the top-level facade applications use to talk to one
// LDP/Fedora repository: it owns a Client and knows how to resolve a
// resource identifier (full URI, repository-relative path, or
// fragment-qualified URI) into a fetched graph.
//
// Grounded on the Repository class in plastron/repo/__init__.py.
type Repository struct {
	Client *Client
}

// FromConfig builds a Repository from a parsed Repository config section.
//
// Grounded on Repository.from_config.
func FromConfig(cfg config.Repository, logger mlog.Logger) (*Repository, error) {
	structure := Flat
	if strings.EqualFold(cfg.Structure, "hierarchical") {
		structure = Hierarchical
	}

	endpoint := NewEndpoint(cfg.RESTEndpoint, cfg.Relpath, cfg.RepoExternalURL)
	auth := GetAuthenticator(cfg)

	opts := []ClientOption{}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}

	c, err := NewClient(endpoint, structure, auth, opts...)
	if err != nil {
		return nil, err
	}

	return &Repository{Client: c}, nil
}

// Resolve splits a resource identifier into its absolute base URI (a
// repository-relative path is resolved against the endpoint's base) and,
// if present, its fragment identifier.
//
// Grounded on the fragment-splitting logic behind Repository.__getitem__.
func (r *Repository) Resolve(uriOrPath string) (base string, fragment string) {
	full := uriOrPath
	if !strings.Contains(full, "://") {
		full = r.Client.Repo.Base + ensureLeadingSlash(full)
	}

	if idx := strings.IndexByte(full, '#'); idx >= 0 {
		return full[:idx], full[idx+1:]
	}

	return full, ""
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}

	return "/" + path
}

// Get fetches the resource named by uriOrPath (a full URI, a
// repository-relative path, or a fragment-qualified form of either) and
// returns its base ResourceURI, the full (possibly multi-resource) graph
// fetched from the repository, and the fragment identifier if the caller
// asked for a specific embedded resource.
func (r *Repository) Get(ctx context.Context, uriOrPath string) (ResourceURI, *rdf.Graph, string, error) {
	base, fragment := r.Resolve(uriOrPath)

	resource, graph, err := r.Client.GetGraph(ctx, base, false)
	if err != nil {
		return ResourceURI{}, nil, "", err
	}

	return resource, graph, fragment, nil
}

// ResourceAt loads the resource found at uriOrPath as an rdf.Resource of
// the given type name and schema. If a fragment was present, the returned
// Resource's URI is the fragment-qualified one and it shares the parent
// graph.
func (r *Repository) ResourceAt(ctx context.Context, uriOrPath, typ string, schema rdf.Schema) (*rdf.Resource, error) {
	resource, graph, fragment, err := r.Get(ctx, uriOrPath)
	if err != nil {
		return nil, err
	}

	uri := resource.URI
	if fragment != "" {
		uri = resource.URI + "#" + fragment
	}

	res := rdf.NewResource(typ, schema, uri, graph)
	res.ApplyChanges()

	return res, nil
}
