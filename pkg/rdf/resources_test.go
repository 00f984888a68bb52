package rdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTitlePredicate = "http://purl.org/dc/terms/title"
const testCreatorPredicate = "http://purl.org/dc/terms/creator"

func testSchema() Schema {
	return Schema{
		{Name: "Title", Predicate: URI(testTitlePredicate), Kind: DataProperty, Required: true, Repeatable: false},
		{Name: "Creator", Predicate: URI(testCreatorPredicate), Kind: ObjectProperty, Repeatable: true, ObjectType: "TestAgent"},
	}
}

func TestNewResourceMintsUUIDWhenURIEmpty(t *testing.T) {
	r := NewResource("TestItem", testSchema(), "", nil)
	assert.True(t, strings.HasPrefix(r.URI(), "urn:uuid:"))
}

func TestNewResourceKeepsGivenURI(t *testing.T) {
	r := NewResource("TestItem", testSchema(), "https://repo.example.org/abc", nil)
	assert.Equal(t, "https://repo.example.org/abc", r.URI())
}

func TestSetURIRewritesGraph(t *testing.T) {
	r := NewResource("TestItem", testSchema(), "urn:uuid:temp", nil)
	r.Property("Title").Add(Literal("A Title"))

	r.SetURI("https://repo.example.org/abc")

	assert.Equal(t, "https://repo.example.org/abc", r.URI())

	title, ok := r.Property("Title").Value()
	require.True(t, ok)
	assert.Equal(t, "A Title", title.Value())

	subj := URI("urn:uuid:temp")
	assert.Empty(t, r.Graph().Match(&subj, nil))
}

func TestPropertyUpdateComputesMinimalDiff(t *testing.T) {
	r := NewResource("TestItem", testSchema(), "https://repo.example.org/abc", nil)
	r.Property("Title").Add(Literal("old"))
	r.Graph().ResetSnapshot()

	deleted, inserted := r.Property("Title").Update([]Term{Literal("new")})

	require.Len(t, deleted, 1)
	assert.Equal(t, "old", deleted[0].Value())
	require.Len(t, inserted, 1)
	assert.Equal(t, "new", inserted[0].Value())

	assert.ElementsMatch(t, r.Graph().Inserts(), []Triple{
		{Subject: URI(r.URI()), Predicate: URI(testTitlePredicate), Object: Literal("new")},
	})
}

func TestValidateRequiredAndRepeatable(t *testing.T) {
	r := NewResource("TestItem", testSchema(), "https://repo.example.org/abc", nil)

	results := r.Validate()
	assert.False(t, results.OK())
	assert.False(t, results["Title"].OK)

	r.Property("Title").Add(Literal("one"))
	r.Property("Title").Add(Literal("two"))

	results = r.Validate()
	assert.False(t, results["Title"].OK)
	assert.Equal(t, "is not repeatable", results["Title"].Reason)
}

func TestValidateLanguageTagExceptionForDataProperty(t *testing.T) {
	r := NewResource("TestItem", testSchema(), "https://repo.example.org/abc", nil)
	r.Property("Title").Add(LangLiteral("Title", "en"))
	r.Property("Title").Add(LangLiteral("Titre", "fr"))

	results := r.Validate()
	assert.True(t, results["Title"].OK)
}

func TestValidateValuesFromRejectsValueOutsideVocabulary(t *testing.T) {
	schema := Schema{
		{Name: "Status", Predicate: URI("http://example.org/status"), Kind: DataProperty, ValuesFrom: []string{"draft", "published"}},
	}
	r := NewResource("TestItem", schema, "https://repo.example.org/abc", nil)
	r.Property("Status").Add(Literal("archived"))

	results := r.Validate()
	assert.False(t, results["Status"].OK)
	assert.Equal(t, "is not a recognized value", results["Status"].Reason)
}

func TestValidateValuesFromAcceptsValueInVocabulary(t *testing.T) {
	schema := Schema{
		{Name: "Status", Predicate: URI("http://example.org/status"), Kind: DataProperty, ValuesFrom: []string{"draft", "published"}},
	}
	r := NewResource("TestItem", schema, "https://repo.example.org/abc", nil)
	r.Property("Status").Add(Literal("published"))

	results := r.Validate()
	assert.True(t, results["Status"].OK)
}

func TestGetFragmentResourceSharesGraph(t *testing.T) {
	parent := NewResource("TestItem", testSchema(), "https://repo.example.org/abc", nil)
	frag := parent.GetFragmentResource("TestNote", Schema{}, "note1")

	assert.Equal(t, "https://repo.example.org/abc#note1", frag.URI())
	assert.Same(t, parent.Graph(), frag.Graph())
}

func TestEmbedLinksChildFromParent(t *testing.T) {
	parent := NewResource("TestItem", testSchema(), "https://repo.example.org/abc", nil)
	child := Embed(parent, URI("urn:has-note"), "TestNote", Schema{}, "note1")

	assert.Equal(t, "https://repo.example.org/abc#note1", child.URI())

	subj := URI(parent.URI())
	pred := URI("urn:has-note")
	matches := parent.Graph().Match(&subj, &pred)
	require.Len(t, matches, 1)
	assert.Equal(t, child.URI(), matches[0].Object.Value())
}

func TestRDFTypeHelpers(t *testing.T) {
	r := NewResource("TestItem", testSchema(), "https://repo.example.org/abc", nil)
	r.AddRDFType("https://vocab.example.org/Item")

	assert.True(t, r.HasRDFType("https://vocab.example.org/Item"))

	r.RemoveRDFType("https://vocab.example.org/Item")
	assert.False(t, r.HasRDFType("https://vocab.example.org/Item"))
}
