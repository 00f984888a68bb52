// Package repo implements the HTTP client, transaction, and repository
// facade for talking to an LDP/Fedora 4 repository.
package repo

import "strings"

// Endpoint identifies the repository's REST API root, its default
// container path, and (optionally) the externally visible URL it is
// proxied behind.
//
// Grounded on the Repository class in plastron/client.py.
type Endpoint struct {
	Base        string // e.g. "http://localhost:8080/rest"
	Relpath     string // default container path, always leading "/"
	ExternalURL string // optional externally visible base, "" if none
}

// NewEndpoint constructs an Endpoint, normalizing relpath to start with a
// leading slash as client.py's Repository.__init__ does.
func NewEndpoint(base, relpath, externalURL string) Endpoint {
	base = strings.TrimRight(base, "/")

	if relpath == "" {
		relpath = "/"
	} else if !strings.HasPrefix(relpath, "/") {
		relpath = "/" + relpath
	}

	return Endpoint{Base: base, Relpath: relpath, ExternalURL: strings.TrimRight(externalURL, "/")}
}

// Contains reports whether uri falls under this repository's base URL or
// its external URL.
func (e Endpoint) Contains(uri string) bool {
	if strings.HasPrefix(uri, e.Base) {
		return true
	}

	return e.ExternalURL != "" && strings.HasPrefix(uri, e.ExternalURL)
}

// RepoPath returns the path-only portion of resourceURI relative to
// whichever of ExternalURL/Base it was addressed through.
func (e Endpoint) RepoPath(resourceURI string) string {
	if e.ExternalURL != "" && strings.HasPrefix(resourceURI, e.ExternalURL) {
		return strings.TrimPrefix(resourceURI, e.ExternalURL)
	}

	return strings.TrimPrefix(resourceURI, e.Base)
}

// TransactionEndpoint returns the URL used to begin a new transaction.
func (e Endpoint) TransactionEndpoint() string {
	return e.Base + "/fcr:tx"
}

// URI returns the default container's full URI.
func (e Endpoint) URI() string {
	return e.Base + e.Relpath
}

// Structure names a layout for linked member/file/proxy/related/annotation
// resources relative to their owning item. The Client stores the value it
// is given, but no operation in this package reads it: Create places a
// resource only where its CreateOptions say, under either value.
//
// Grounded on RepositoryStructure in client.py.
type Structure uint8

const (
	// Flat names the layout with members/files/related at the same
	// container level as the owning item and only proxies and annotations
	// in their own child container.
	Flat Structure = iota
	// Hierarchical names the layout with members/files/proxies/annotations
	// each in their own child container (/m, /f, /x, /a) and related
	// objects at the owning item's own container level.
	Hierarchical
)
