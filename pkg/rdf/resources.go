package rdf

import (
	"strings"

	"github.com/google/uuid"
)

// RDFType is the rdf:type predicate URI.
const RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// RDFSLabel is the rdfs:label predicate URI.
const RDFSLabel = "http://www.w3.org/2000/01/rdf-schema#label"

// Constructor builds a Resource of a registered type sharing an existing
// graph, used to wrap object-property values as their own Resource.
type Constructor func(uri string, g *Graph) *Resource

var typeRegistry = make(map[string]Constructor)

// RegisterType makes a resource type available to ObjectProperty fields
// that name it, so Property.Objects can wrap raw URIs/blank nodes in the
// right Go type. Grounded on RDFResourceBase.OBJECT_CLASSES in the
// reference implementation, which keys a class registry by class name at
// import time; Go has no metaclass hook to do this automatically, so model
// packages call RegisterType from an init() function.
func RegisterType(name string, ctor Constructor) {
	typeRegistry[name] = ctor
}

func lookupType(name string) (Constructor, bool) {
	ctor, ok := typeRegistry[name]
	return ctor, ok
}

// Resource is an RDF-mapped domain object: a URI (or blank node, or
// fragment identifier) plus a Schema describing which predicates on its
// Graph are meaningful properties.
//
// Grounded on RDFResourceBase in resources.py of the reference
// implementation.
type Resource struct {
	uri    string
	graph  *Graph
	schema Schema
	typ    string
}

// NewResource constructs a Resource of the given type and schema. If uri
// is empty, a fresh "urn:uuid:..." identifier is minted — the Go
// equivalent of RDFResourceBase.__init__ calling uuid4().urn when no URI
// is supplied. If g is nil, a fresh empty Graph is created.
func NewResource(typ string, schema Schema, uri string, g *Graph) *Resource {
	if uri == "" {
		uri = "urn:uuid:" + uuid.NewString()
	}

	if g == nil {
		g = NewGraph()
	}

	return &Resource{uri: uri, graph: g, schema: schema, typ: typ}
}

// URI returns the resource's current subject URI.
func (r *Resource) URI() string { return r.uri }

// Type returns the registered type name for this resource.
func (r *Resource) Type() string { return r.typ }

// Graph returns the underlying change-tracking graph.
func (r *Resource) Graph() *Graph { return r.graph }

// Schema returns the property definitions for this resource's type.
func (r *Resource) Schema() Schema { return r.schema }

// SetURI relocates the resource (and every triple about it, including
// "uri#fragment" children) to a new URI. Used once the repository assigns
// a resource its permanent location in place of the minted UUID URN.
//
// Grounded on the uri.setter in RDFResourceBase, which calls
// graph.change_uri(old_uri, new_uri).
func (r *Resource) SetURI(newURI string) {
	r.graph.ChangeURI(r.uri, newURI)
	r.uri = newURI
}

// Property returns a live view of the named property. It returns the zero
// Property (with a zero PropertyDef) if name is not in the schema; callers
// that control their own Schema should not hit this case.
func (r *Resource) Property(name string) Property {
	def, _ := r.schema.ByName(name)
	return Property{resource: r, def: def}
}

// Properties returns a live view for every property in the schema.
func (r *Resource) Properties() []Property {
	out := make([]Property, 0, len(r.schema))

	for _, def := range r.schema {
		out = append(out, Property{resource: r, def: def})
	}

	return out
}

// SetProperties replaces the value sets of the named properties with the
// corresponding values in updates, using Property.Update's set-difference
// semantics so the underlying graph's change tracking reports a minimal
// diff. Names absent from the schema are ignored.
func (r *Resource) SetProperties(updates map[string][]Term) {
	for name, values := range updates {
		if _, ok := r.schema.ByName(name); !ok {
			continue
		}

		r.Property(name).Update(values)
	}
}

// AddProperties extends the named properties with additional values,
// without removing any existing value.
func (r *Resource) AddProperties(additions map[string][]Term) {
	for name, values := range additions {
		if _, ok := r.schema.ByName(name); !ok {
			continue
		}

		r.Property(name).Extend(values)
	}
}

// HasChanges reports whether the underlying graph has pending changes.
func (r *Resource) HasChanges() bool { return r.graph.HasChanges() }

// ApplyChanges accepts the graph's current state as its new baseline.
func (r *Resource) ApplyChanges() { r.graph.ApplyChanges() }

// RDFTypes returns the rdf:type values currently asserted for this
// resource.
func (r *Resource) RDFTypes() []string {
	subj := URI(r.uri)
	pred := URI(RDFType)

	var out []string

	for _, t := range r.graph.Match(&subj, &pred) {
		out = append(out, t.Object.Value())
	}

	return out
}

// HasRDFType reports whether typeURI is among the resource's asserted
// rdf:type values.
func (r *Resource) HasRDFType(typeURI string) bool {
	for _, t := range r.RDFTypes() {
		if t == typeURI {
			return true
		}
	}

	return false
}

// AddRDFType asserts an additional rdf:type value.
func (r *Resource) AddRDFType(typeURI string) {
	r.graph.Add(Triple{Subject: URI(r.uri), Predicate: URI(RDFType), Object: URI(typeURI)})
}

// RemoveRDFType retracts an rdf:type value.
func (r *Resource) RemoveRDFType(typeURI string) {
	r.graph.Remove(Triple{Subject: URI(r.uri), Predicate: URI(RDFType), Object: URI(typeURI)})
}

// Label returns the rdfs:label value, if any.
func (r *Resource) Label() (string, bool) {
	subj := URI(r.uri)
	pred := URI(RDFSLabel)

	for _, t := range r.graph.Match(&subj, &pred) {
		return t.Object.Value(), true
	}

	return "", false
}

// Validate runs every schema property's validator plus any custom
// resource-level validators and returns the combined report.
//
// Grounded on RDFResourceBase.validate in the reference implementation,
// which keys the results dict by field name, with custom validators (from
// the @validate decorator) keyed by an underscore-prefixed name.
func (r *Resource) Validate(custom ...ResourceValidator) ValidationResults {
	results := make(ValidationResults, len(r.schema)+len(custom))

	for _, def := range r.schema {
		results[def.Name] = r.Property(def.Name).IsValid()
	}

	for _, v := range custom {
		name := "_" + v.Name
		if v.Func(r) {
			results[name] = Valid(name)
		} else {
			results[name] = Invalid(name, "failed validator "+v.Name)
		}
	}

	return results
}

// ResourceValidator is a named whole-resource validation rule, the Go
// counterpart of a method decorated with @validate in the reference
// implementation.
type ResourceValidator struct {
	Name string
	Func func(*Resource) bool
}

// GetFragmentResource returns the sub-resource for the given fragment
// identifier (so `#` + identifier), sharing this resource's graph. The
// child's URI is the parent's URI, minus any existing fragment, plus "#"
// and identifier.
//
// Grounded on RDFResourceBase.get_fragment_resource.
func (r *Resource) GetFragmentResource(typ string, schema Schema, identifier string) *Resource {
	base := r.uri
	if idx := strings.IndexByte(base, '#'); idx >= 0 {
		base = base[:idx]
	}

	return &Resource{
		uri:    base + "#" + identifier,
		graph:  r.graph,
		schema: schema,
		typ:    typ,
	}
}
