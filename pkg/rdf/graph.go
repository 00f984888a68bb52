package rdf

import "sort"

// Triple is a single RDF statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// key is a value usable as a Go map key, since Term itself may embed fields
// that make it non-comparable-by-identity only by accident of struct
// layout; using an explicit key keeps Graph's internals independent of
// Term's representation.
type key struct {
	s, p, o string
	sk, pk  Kind
	ok      Kind
	odt, ol string
}

func tripleKey(t Triple) key {
	return key{
		s: t.Subject.value, sk: t.Subject.kind,
		p: t.Predicate.value, pk: t.Predicate.kind,
		o: t.Object.value, ok: t.Object.kind,
		odt: t.Object.datatype, ol: t.Object.language,
	}
}

// Graph is a mutable, unordered set of triples with change tracking: it
// remembers a snapshot ("original") of its contents so that Inserts and
// Deletes can be computed relative to however the graph looked when it was
// last loaded or had ApplyChanges called on it.
//
// Grounded on TrackChangesGraph in the reference Python implementation,
// which subclasses rdflib.Graph and diffs against a saved snapshot rather
// than recording individual mutations.
type Graph struct {
	triples  map[key]Triple
	original map[key]Triple
}

// NewGraph returns an empty graph with no tracked changes.
func NewGraph() *Graph {
	return &Graph{
		triples:  make(map[key]Triple),
		original: make(map[key]Triple),
	}
}

// Add inserts a triple into the graph. Adding a triple already present is a
// no-op.
func (g *Graph) Add(t Triple) {
	g.triples[tripleKey(t)] = t
}

// Remove deletes a triple from the graph, if present.
func (g *Graph) Remove(t Triple) {
	delete(g.triples, tripleKey(t))
}

// Contains reports whether t is currently in the graph.
func (g *Graph) Contains(t Triple) bool {
	_, ok := g.triples[tripleKey(t)]
	return ok
}

// Len returns the number of triples currently in the graph.
func (g *Graph) Len() int { return len(g.triples) }

// All returns every triple in the graph, in an unspecified but stable
// order (sorted by subject, predicate, object value) to keep tests and
// n-triples serialization deterministic.
func (g *Graph) All() []Triple {
	out := make([]Triple, 0, len(g.triples))
	for _, t := range g.triples {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		ki, kj := tripleKey(out[i]), tripleKey(out[j])
		if ki.s != kj.s {
			return ki.s < kj.s
		}

		if ki.p != kj.p {
			return ki.p < kj.p
		}

		return ki.o < kj.o
	})

	return out
}

// Match returns every triple whose subject and predicate equal the given
// terms. A nil pointer in either position matches any value there.
func (g *Graph) Match(subject, predicate *Term) []Triple {
	var out []Triple

	for _, t := range g.All() {
		if subject != nil && !t.Subject.Equal(*subject) {
			continue
		}

		if predicate != nil && !t.Predicate.Equal(*predicate) {
			continue
		}

		out = append(out, t)
	}

	return out
}

// ResetSnapshot replaces the "original" snapshot with the graph's current
// contents, as if the graph had just been freshly parsed. Grounded on
// TrackChangesGraph.parse(), which resets self.original after loading.
func (g *Graph) ResetSnapshot() {
	g.original = make(map[key]Triple, len(g.triples))
	for k, t := range g.triples {
		g.original[k] = t
	}
}

// ApplyChanges accepts the graph's current contents as the new baseline,
// clearing Inserts/Deletes/HasChanges until further mutation. Grounded on
// TrackChangesGraph.apply_changes().
func (g *Graph) ApplyChanges() {
	g.ResetSnapshot()
}

// Inserts returns the triples present now but absent from the snapshot.
func (g *Graph) Inserts() []Triple {
	var out []Triple

	for k, t := range g.triples {
		if _, ok := g.original[k]; !ok {
			out = append(out, t)
		}
	}

	return sortedTriples(out)
}

// Deletes returns the triples present in the snapshot but absent now.
func (g *Graph) Deletes() []Triple {
	var out []Triple

	for k, t := range g.original {
		if _, ok := g.triples[k]; !ok {
			out = append(out, t)
		}
	}

	return sortedTriples(out)
}

// HasChanges reports whether the graph differs from its snapshot.
func (g *Graph) HasChanges() bool {
	return len(g.Inserts()) > 0 || len(g.Deletes()) > 0
}

func sortedTriples(in []Triple) []Triple {
	sort.Slice(in, func(i, j int) bool {
		ki, kj := tripleKey(in[i]), tripleKey(in[j])
		if ki.s != kj.s {
			return ki.s < kj.s
		}

		if ki.p != kj.p {
			return ki.p < kj.p
		}

		return ki.o < kj.o
	})

	return in
}

// ChangeURI rewrites every occurrence of oldURI (as a subject, predicate,
// or object, including any "oldURI#fragment" form) to newURI, in place.
//
// Grounded on TrackChangesGraph.change_uri / update_node / new_triple in
// the reference implementation: a resource minted under a temporary URN
// gets relocated to its final repository URI once the repository assigns
// one, and any fragment-identified embedded objects must move with it.
func (g *Graph) ChangeURI(oldURI, newURI string) {
	rewritten := make(map[key]Triple, len(g.triples))

	for _, t := range g.triples {
		nt := Triple{
			Subject:   rewriteTerm(t.Subject, oldURI, newURI),
			Predicate: rewriteTerm(t.Predicate, oldURI, newURI),
			Object:    rewriteTerm(t.Object, oldURI, newURI),
		}
		rewritten[tripleKey(nt)] = nt
	}

	g.triples = rewritten
}

func rewriteTerm(t Term, oldURI, newURI string) Term {
	if t.HasPrefix(oldURI) {
		return t.WithPrefixReplaced(oldURI, newURI)
	}

	return t
}

// Copy returns a deep copy of the graph, including its change-tracking
// snapshot.
func (g *Graph) Copy() *Graph {
	cp := &Graph{
		triples:  make(map[key]Triple, len(g.triples)),
		original: make(map[key]Triple, len(g.original)),
	}

	for k, t := range g.triples {
		cp.triples[k] = t
	}

	for k, t := range g.original {
		cp.original[k] = t
	}

	return cp
}

// Merge copies every triple of src into g.
func (g *Graph) Merge(src *Graph) {
	for _, t := range src.triples {
		g.Add(t)
	}
}
