package repo

import (
	"context"
	"errors"
	"net/http"

	"github.com/umd-lib/plastron-go/internal/merrors"
	"github.com/umd-lib/plastron-go/pkg/rdf"
)

// WalkOptions configures Walk.
type WalkOptions struct {
	// Traverse lists the predicates whose object URIs are followed to
	// discover child resources (e.g. pcdm:hasMember, pcdm:hasFile).
	Traverse []rdf.Term
	// MinDepth excludes resources above this depth from being yielded;
	// zero yields starting at the root.
	MinDepth int
	// MaxDepth bounds recursion: resources are yielded only while depth <
	// MaxDepth. Zero means unbounded.
	MaxDepth int
	// IncludeTombstones controls whether a deleted (410 Gone) resource is
	// wrapped as a Tombstone and yielded, rather than silently dropped.
	IncludeTombstones bool
}

// Tombstone describes a resource found deleted during a walk.
//
// Grounded on the Tombstone class in plastron/repo/__init__.py and
// test_walk_include_tombstones in plastron-repo/tests/repo/test_repo.py.
type Tombstone struct {
	URI string
}

// VisitFunc is called once per resource discovered by Walk, in depth-first
// order. For a deleted resource surfaced because WalkOptions.IncludeTombstones
// is set, tombstone is non-nil and graph is nil. Returning an error aborts
// the walk.
type VisitFunc func(resource ResourceURI, graph *rdf.Graph, depth int, tombstone *Tombstone) error

// Walk performs a depth-first traversal of startURI and its descendants,
// following opts.Traverse predicates, with cycle detection (a URI is
// visited at most once). A 410 is surfaced as a Tombstone when
// opts.IncludeTombstones is set, and otherwise dropped; a 404 is logged and
// skipped without aborting the rest of the walk.
//
// Grounded on Client.recursive_get in plastron/client.py,
// ResourceList.process in plastron/repo/__init__.py, and spec.md §4.G.
func Walk(ctx context.Context, repo *Repository, startURI string, opts WalkOptions, visit VisitFunc) error {
	visited := make(map[string]bool)
	return walk(ctx, repo, startURI, opts, visit, visited, 0)
}

func walk(ctx context.Context, repo *Repository, uri string, opts WalkOptions, visit VisitFunc, visited map[string]bool, depth int) error {
	if visited[uri] {
		return nil
	}
	visited[uri] = true

	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return nil
	}

	resource, graph, err := repo.Client.GetGraph(ctx, uri, false)
	if err != nil {
		if isGone(err) {
			if opts.IncludeTombstones && depth >= opts.MinDepth {
				if err := visit(ResourceURI{URI: uri}, nil, depth, &Tombstone{URI: uri}); err != nil {
					return err
				}
			}

			return nil
		}

		if isNotFound(err) {
			repo.Client.Logger.Warnf("404 during walk, skipping %s", uri)
			return nil
		}

		return err
	}

	if depth >= opts.MinDepth {
		if err := visit(resource, graph, depth, nil); err != nil {
			return err
		}
	}

	subjectURI := rdf.URI(resource.URI)

	for _, predicate := range opts.Traverse {
		for _, t := range graph.Match(&subjectURI, &predicate) {
			if !t.Object.IsURI() {
				continue
			}

			if err := walk(ctx, repo, t.Object.Value(), opts, visit, visited, depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}

func isGone(err error) bool {
	var clientErr merrors.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode == http.StatusGone
	}

	return false
}

func isNotFound(err error) bool {
	var clientErr merrors.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode == http.StatusNotFound
	}

	return false
}
