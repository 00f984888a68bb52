package rdf

// Embed mints a new Resource sharing parent's graph, identified by
// parent's URI plus a "#"+fragmentID suffix, and links it from parent via
// predicate. Used for compound properties (e.g. a bibliographic resource's
// "extent" or "note" sub-structures) that are never addressed on their
// own in the repository, only ever reached through their owning resource.
//
// Grounded on EmbeddedObject.embed in embed.py of the reference
// implementation.
func Embed(parent *Resource, predicate Term, typ string, schema Schema, fragmentID string) *Resource {
	child := parent.GetFragmentResource(typ, schema, fragmentID)

	parent.graph.Add(Triple{
		Subject:   URI(parent.uri),
		Predicate: predicate,
		Object:    URI(child.uri),
	})

	return child
}
