package rdf

// PropertyKind distinguishes a literal-valued property from an object
// (URI/blank-node) valued one.
type PropertyKind uint8

const (
	// DataProperty holds literal values.
	DataProperty PropertyKind = iota
	// ObjectProperty holds URI or blank-node values, optionally wrapped
	// in a registered resource type.
	ObjectProperty
)

// Validator checks a single property value, returning true if it is
// acceptable. Name is used to build the failure message (standing in for
// the Python implementation's use of the validator function's docstring).
type Validator struct {
	Name string
	Func func(Term) bool
}

// PropertyDef is a static description of one RDF-mapped property of a
// resource type: which predicate backs it, whether it is required and/or
// repeatable, and (for object properties) what Go type its values should
// be wrapped in.
//
// Grounded on the descriptor protocol in descriptors.py/properties.py of
// the reference implementation: Python discovers these via
// Property/ObjectProperty/DataProperty class attributes and the
// __set_name__ hook. Go has no equivalent runtime hook, so the same
// information is declared as a static table and composed by set-union
// across a type's embedded schemas, the way __init_subclass__ unions
// rdf_property_names across the MRO.
type PropertyDef struct {
	Name       string
	Predicate  Term
	Required   bool
	Repeatable bool
	Kind       PropertyKind
	Datatype   string // DataProperty only; "" matches any/no datatype
	ObjectType string // ObjectProperty only; name registered via RegisterType
	Embedded   bool
	Validate   *Validator
	// ValuesFrom restricts every value's string form to this vocabulary;
	// nil means any value is acceptable. Grounded on Property.values_from
	// in descriptors.py.
	ValuesFrom []string
}

// Schema is the full set of PropertyDefs for a resource type.
type Schema []PropertyDef

// ByName returns the PropertyDef with the given name, or ok=false.
func (s Schema) ByName(name string) (PropertyDef, bool) {
	for _, d := range s {
		if d.Name == name {
			return d, true
		}
	}

	return PropertyDef{}, false
}

// Merge returns the union of s and other, with entries in other replacing
// same-named entries in s. This is how an "embedding" type's own
// properties combine with its embedded base type's properties, mirroring
// the set-union-across-MRO behavior of RDFResourceBase.__init_subclass__.
func (s Schema) Merge(other Schema) Schema {
	out := make(Schema, 0, len(s)+len(other))
	seen := make(map[string]int, len(s))

	for _, d := range s {
		seen[d.Name] = len(out)
		out = append(out, d)
	}

	for _, d := range other {
		if idx, ok := seen[d.Name]; ok {
			out[idx] = d
			continue
		}

		seen[d.Name] = len(out)
		out = append(out, d)
	}

	return out
}
