// Package publish implements the publish/unpublish state-machine that
// mints or reconciles a resource's persistent handle and flips its
// Published/Hidden access classes.
package publish

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/umd-lib/plastron-go/internal/merrors"
	"github.com/umd-lib/plastron-go/internal/mlog"
	"github.com/umd-lib/plastron-go/pkg/handles"
	"github.com/umd-lib/plastron-go/pkg/rdf"
	"github.com/umd-lib/plastron-go/pkg/repo"
)

// Access class and handle-literal datatype URIs.
//
// Grounded on the umdaccess/umdtype namespaces used throughout
// plastron-repo/src/plastron/repo/publish.py and plastron/handles.py.
const (
	Published       = "http://vocab.lib.umd.edu/access#Published"
	Hidden          = "http://vocab.lib.umd.edu/access#Hidden"
	HandleProperty  = "Handle"
	handleDatatype  = "http://vocab.lib.umd.edu/datatype#handle"
)

// HandleSchema is the property declaration a Resource needs to carry a
// handle literal; merge it into a type's own schema to make that type
// handle-bearing.
//
// Grounded on HandleBearingResource in plastron/handles.py.
var HandleSchema = rdf.Schema{
	{
		Name:       HandleProperty,
		Predicate:  rdf.URI("http://vocab.lib.umd.edu/access#handle"),
		Required:   false,
		Repeatable: false,
		Kind:       rdf.DataProperty,
		Datatype:   handleDatatype,
	},
}

// Status reports a resource's publication state, derived from its
// Published/Hidden rdf:type membership.
//
// Grounded on get_publication_status in publish.py.
func Status(res *rdf.Resource) string {
	published := res.HasRDFType(Published)
	hidden := res.HasRDFType(Hidden)

	switch {
	case published && hidden:
		return "PublishedHidden"
	case published:
		return "Published"
	case hidden:
		return "UnpublishedHidden"
	default:
		return "Unpublished"
	}
}

// Handle returns the resource's embedded handle literal, if any.
func Handle(res *rdf.Resource) (string, bool) {
	t, ok := res.Property(HandleProperty).Value()
	if !ok {
		return "", false
	}

	return t.Value(), true
}

func setHandle(res *rdf.Resource, hdlURI string) {
	prop := res.Property(HandleProperty)
	prop.Clear()
	prop.Add(rdf.TypedLiteral(hdlURI, handleDatatype))
}

// ParseHandleString splits an "hdl:<prefix>/<suffix>" URI into its parts.
func ParseHandleString(hdlURI string) (prefix, suffix string) {
	s := strings.TrimPrefix(hdlURI, "hdl:")

	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}

	return s, ""
}

// Publish finds or mints a handle for res pointing at publicURL, sets the
// Published (and optionally Hidden) access classes, and commits the
// change to the repository via client.
//
// If the repository commit fails after the handle registry has already
// been updated, the registry update is NOT rolled back: this matches
// publish.py, which has no cross-system transaction between the handle
// service and the repository and simply lets the next publish attempt
// reconcile them (see Status and the handle-URL comparison below).
//
// Grounded on PublishableResource.publish in publish.py.
func Publish(ctx context.Context, client repo.RequestClient, handleClient *handles.HandleServiceClient, res *rdf.Resource, publicURL, defaultRepo string, forceHidden, forceVisible bool, logger mlog.Logger) (handles.HandleInfo, error) {
	if logger == nil {
		logger = &mlog.NoneLogger{}
	}

	var handleInfo handles.HandleInfo

	if existing, ok := Handle(res); ok {
		prefix, suffix := ParseHandleString(existing)

		info, err := handleClient.GetInfo(ctx, prefix, suffix)
		if err != nil {
			return handles.HandleInfo{}, err
		}

		if !info.Exists {
			return handles.HandleInfo{}, merrors.HandleRegistryError{Op: "publish", Err: errNotFound(existing, res.URI())}
		}

		handleInfo = info

		updates := map[string]string{}

		if info.URL != publicURL {
			logger.Warnf("current target URL (%s) does not match expected URL (%s); updating", info.URL, publicURL)
			updates["url"] = publicURL
		}

		if defaultRepo != "" && info.Repo != defaultRepo {
			logger.Warnf("current repo (%s) does not match expected value (%s); updating", info.Repo, defaultRepo)
			updates["repo"] = defaultRepo
		}

		if info.RepoID != res.URI() {
			logger.Warnf("current repo id (%s) does not match expected URL (%s); updating", info.RepoID, res.URI())
			updates["repo_id"] = res.URI()
		}

		if len(updates) > 0 {
			updated, err := handleClient.UpdateHandle(ctx, info, updates)
			if err != nil {
				return handles.HandleInfo{}, err
			}

			handleInfo = updated
		}
	} else {
		found, err := handleClient.FindHandle(ctx, res.URI())
		if err != nil {
			return handles.HandleInfo{}, err
		}

		if !found.Exists {
			logger.Debugf("minting new handle for %s", res.URI())

			created, err := handleClient.CreateHandle(ctx, res.URI(), publicURL)
			if err != nil {
				return handles.HandleInfo{}, merrors.HandleRegistryError{Op: "publish", Err: err}
			}

			found = created
		}

		handleInfo = found
		setHandle(res, handleInfo.HdlURI())
	}

	res.AddRDFType(Published)

	if forceHidden {
		res.AddRDFType(Hidden)
	} else if forceVisible {
		res.RemoveRDFType(Hidden)
	}

	if err := commit(ctx, client, res); err != nil {
		return handleInfo, err
	}

	return handleInfo, nil
}

// Unpublish removes the Published access class (and optionally sets
// Hidden) and commits the change. It never touches the handle registry:
// a handle, once minted, is permanent.
//
// Grounded on PublishableResource.unpublish in publish.py.
func Unpublish(ctx context.Context, client repo.RequestClient, res *rdf.Resource, forceHidden, forceVisible bool) error {
	res.RemoveRDFType(Published)

	if forceHidden {
		res.AddRDFType(Hidden)
	} else if forceVisible {
		res.RemoveRDFType(Hidden)
	}

	return commit(ctx, client, res)
}

func commit(ctx context.Context, client repo.RequestClient, res *rdf.Resource) error {
	g := res.Graph()

	deletes := rdf.NewGraph()
	for _, t := range g.Deletes() {
		deletes.Add(t)
	}

	inserts := rdf.NewGraph()
	for _, t := range g.Inserts() {
		inserts.Add(t)
	}

	sparql, err := client.BuildSPARQLUpdate(deletes, inserts)
	if err != nil {
		return err
	}

	if sparql == "" {
		return nil
	}

	resp, err := client.Patch(ctx, res.URI(), strings.NewReader(sparql), map[string]string{
		"Content-Type": "application/sparql-update",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return merrors.ClientError{Method: "PATCH", URL: res.URI(), StatusCode: resp.StatusCode}
	}

	g.ApplyChanges()

	return nil
}

func errNotFound(handle, resourceURI string) error {
	return merrors.NotFoundError{URI: handle + " (expected for " + resourceURI + ")"}
}

var uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

var fieldPattern = regexp.MustCompile(`\{(\w+)\}`)

// BuildPublicURL renders pattern (a "{field}"-templated string) against a
// resource addressed by resourceURI. Supported fields: path (the
// repository-relative path), container_path and relpath (the parent
// container's path, with and without a leading slash; derived from path's
// directory rather than a server round trip to the parent), and uuid (the
// first UUIDv4-shaped substring of resourceURI). A field named in pattern
// with no available value is an error.
//
// Grounded on PlastronContext.get_public_url in
// plastron-repo/src/plastron/context/__init__.py.
func BuildPublicURL(pattern string, endpoint repo.Endpoint, resourceURI string) (string, error) {
	repoPath := endpoint.RepoPath(resourceURI)

	var missing string

	result := fieldPattern.ReplaceAllStringFunc(pattern, func(m string) string {
		name := fieldPattern.FindStringSubmatch(m)[1]

		switch name {
		case "path":
			return repoPath
		case "container_path":
			return containerPath(repoPath)
		case "relpath":
			return strings.TrimPrefix(containerPath(repoPath), "/")
		case "uuid":
			if id := uuidPattern.FindString(resourceURI); id != "" {
				return strings.ToLower(id)
			}

			missing = "uuid"

			return m
		default:
			missing = name

			return m
		}
	})

	if missing != "" {
		return "", merrors.ConfigError{Key: "PUBLICATION_WORKFLOW.PUBLIC_URL_PATTERN", Message: "unable to resolve field " + missing + " for " + resourceURI}
	}

	return result, nil
}

func containerPath(repoPath string) string {
	dir := path.Dir(repoPath)
	if dir == "." {
		return "/"
	}

	return dir
}
