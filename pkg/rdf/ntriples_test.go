package rdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeNTriplesRoundTrip(t *testing.T) {
	g := NewGraph()
	g.Add(Triple{Subject: URI("https://repo.example.org/abc"), Predicate: URI(RDFType), Object: URI("https://vocab.example.org/Item")})
	g.Add(Triple{Subject: URI("https://repo.example.org/abc"), Predicate: URI(RDFSLabel), Object: LangLiteral("hello \"world\"", "en")})
	g.Add(Triple{Subject: URI("https://repo.example.org/abc"), Predicate: URI("urn:p"), Object: TypedLiteral("42", "http://www.w3.org/2001/XMLSchema#integer")})
	g.Add(Triple{Subject: URI("https://repo.example.org/abc"), Predicate: URI("urn:ref"), Object: Blank("b1")})

	var buf bytes.Buffer
	require.NoError(t, EncodeNTriples(g, &buf))

	decoded, err := DecodeNTriples(&buf)
	require.NoError(t, err)

	assert.Equal(t, g.Len(), decoded.Len())

	for _, tr := range g.All() {
		assert.True(t, decoded.Contains(tr), "missing triple %v", tr)
	}
}

func TestDecodeNTriplesSkipsCommentsAndBlankLines(t *testing.T) {
	input := "# a comment\n\n<urn:a> <urn:p> \"v\" .\n"

	g, err := DecodeNTriples(bytes.NewBufferString(input))
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
}
