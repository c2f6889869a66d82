package rdf_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bagger/pkg/rdf"
	"github.com/aretw0/bagger/pkg/vocab"
)

func fixture() *rdf.Graph {
	file := rdf.IRI("urn:x:1")
	meta := rdf.Blank("m1")
	inner := rdf.Blank("m2")
	return rdf.NewGraph(
		rdf.NewTriple(file, rdf.IRI(vocab.RDFType), rdf.IRI(vocab.DCSFile)),
		rdf.NewTriple(file, rdf.IRI(vocab.DCTermsTitle), rdf.Literal("report.txt")),
		rdf.NewTriple(file, rdf.IRI(vocab.DCSHasMetadata), meta),
		rdf.NewTriple(meta, rdf.IRI(vocab.DCTermsExtent), rdf.TypedLiteral("5", vocab.XSDInteger)),
		rdf.NewTriple(meta, rdf.IRI(vocab.DCSHasMetadata), inner),
		rdf.NewTriple(inner, rdf.IRI(vocab.DCTermsFormat), rdf.Literal("text/plain")),
		rdf.NewTriple(rdf.IRI("urn:x:1#checksum"), rdf.IRI(vocab.DCTermsFormat), rdf.Literal("md5")),
		rdf.NewTriple(rdf.IRI("urn:x:2"), rdf.IRI(vocab.DCTermsHasPart), file),
	)
}

func TestGraphBasics(t *testing.T) {
	g := fixture()
	assert.Equal(t, 8, g.Len())

	dup := rdf.NewTriple(rdf.IRI("urn:x:1"), rdf.IRI(vocab.DCTermsTitle), rdf.Literal("report.txt"))
	g.Add(dup)
	assert.Equal(t, 8, g.Len(), "duplicates are ignored")
	assert.True(t, g.Contains(dup))
	assert.True(t, g.Remove(dup))
	assert.False(t, g.Remove(dup))
	assert.Equal(t, 7, g.Len())

	assert.True(t, g.HasObject(rdf.IRI("urn:x:1")))
	assert.True(t, g.HasSubject(rdf.IRI("urn:x:2")))

	c := g.Clone()
	c.Add(dup)
	assert.Equal(t, 7, g.Len(), "clone is independent")
	assert.Equal(t, 8, c.Len())
}

func TestTriplesAreSorted(t *testing.T) {
	a := fixture().Triples()
	b := fixture().Triples()
	assert.Equal(t, a, b)
	for i := 1; i < len(a); i++ {
		assert.LessOrEqual(t, rdf.CompareTriples(a[i-1], a[i]), 0)
	}
}

func TestSelectLocalAndCut(t *testing.T) {
	g := fixture()
	before := g.Len()

	cut := rdf.Cut(g, rdf.SelectLocal(g, "urn:x:1"))

	// Bare subject, hash fragment subject and two levels of blank nodes.
	assert.Equal(t, 7, cut.Len())
	assert.Equal(t, before, cut.Len()+g.Len(), "no triple lost or duplicated")
	assert.True(t, cut.HasSubject(rdf.IRI("urn:x:1#checksum")))
	assert.True(t, cut.HasSubject(rdf.Blank("m2")))

	// The statement pointing at urn:x:1 belongs to its own subject.
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.HasSubject(rdf.IRI("urn:x:2")))
}

func TestSelectLocalDoesNotFollowIRIs(t *testing.T) {
	g := rdf.NewGraph(
		rdf.NewTriple(rdf.IRI("urn:a"), rdf.IRI(vocab.DCTermsHasPart), rdf.IRI("urn:b")),
		rdf.NewTriple(rdf.IRI("urn:b"), rdf.IRI(vocab.DCTermsTitle), rdf.Literal("b")),
	)
	cut := rdf.Cut(g, rdf.SelectLocal(g, "urn:a"))
	assert.Equal(t, 1, cut.Len())
	assert.Equal(t, 1, g.Len())
}

func TestRebase(t *testing.T) {
	g := fixture()
	renames := map[string]string{}

	n := rdf.Rebase(g, "urn:x:1", "bag://pkg/data/report.txt", renames)
	assert.Equal(t, 5, n)

	assert.False(t, rdf.References(g, "urn:x:1"))
	assert.True(t, g.HasSubject(rdf.IRI("bag://pkg/data/report.txt")))
	assert.True(t, g.HasSubject(rdf.IRI("bag://pkg/data/report.txt#checksum")))
	assert.True(t, g.HasObject(rdf.IRI("bag://pkg/data/report.txt")))

	assert.Equal(t, "bag://pkg/data/report.txt", renames["urn:x:1"])
	assert.Equal(t, "bag://pkg/data/report.txt#checksum", renames["urn:x:1#checksum"])

	assert.Zero(t, rdf.Rebase(g, "bag://pkg/data/report.txt", "bag://pkg/data/report.txt#frag", nil))
}

func TestRemoveReferences(t *testing.T) {
	g := fixture()
	removed := rdf.RemoveReferences(g, "urn:x:1")
	assert.Equal(t, 5, removed)
	assert.False(t, rdf.References(g, "urn:x:1"))
	// Blank node statements are orphaned but not referencing urn:x:1 directly.
	assert.True(t, g.HasSubject(rdf.Blank("m1")))
}

func TestNegotiate(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	assert.Equal(t, rdf.FormatTurtle, rdf.Negotiate("", logger))
	assert.Empty(t, buf.String())

	assert.Equal(t, rdf.FormatNTriples, rdf.Negotiate("N-Triples", logger))
	assert.Equal(t, rdf.FormatJSONLD, rdf.Negotiate("application/ld+json", logger))
	assert.Equal(t, rdf.FormatTurtle, rdf.Negotiate(".ttl", logger))
	assert.Empty(t, buf.String())

	assert.Equal(t, rdf.FormatTurtle, rdf.Negotiate("rdf/xml-ish", logger))
	assert.Contains(t, buf.String(), "unrecognized rdf format")

	assert.Equal(t, ".nt", rdf.FormatNTriples.Extension())
	assert.Equal(t, "text/turtle", rdf.FormatTurtle.Info().MIMEType)
}

func TestNTriplesRoundTrip(t *testing.T) {
	g := fixture()
	g.Add(rdf.NewTriple(rdf.IRI("urn:x:3"), rdf.IRI(vocab.DCTermsTitle), rdf.LangLiteral("quote \" and\nnewline", "en")))

	var buf bytes.Buffer
	require.NoError(t, rdf.Write(&buf, g, rdf.FormatNTriples))

	back, err := rdf.ReadNTriples(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Triples(), back.Triples())
}

func TestReadNTriplesErrors(t *testing.T) {
	cases := map[string]string{
		"literal subject": `"x" <urn:p> <urn:o> .`,
		"missing dot":     `<urn:s> <urn:p> <urn:o>`,
		"blank predicate": `<urn:s> _:p <urn:o> .`,
		"unterminated":    `<urn:s> <urn:p> "abc .`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := rdf.ParseNTriples(doc)
			assert.Error(t, err)
		})
	}

	g, err := rdf.ParseNTriples("# comment\n\n<urn:s> <urn:p> \"\\u00e9\"^^<http://www.w3.org/2001/XMLSchema#string> .\n")
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{rdf.NewTriple(rdf.IRI("urn:s"), rdf.IRI("urn:p"), rdf.Literal("é"))}, g.Triples())
}

func TestTurtleEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rdf.Write(&buf, fixture(), rdf.FormatTurtle))
	out := buf.String()

	assert.Contains(t, out, "@prefix dcterms: <http://purl.org/dc/terms/> .")
	assert.Contains(t, out, "<urn:x:1>\n    a dcs:File ;")
	assert.Contains(t, out, `"5"^^xsd:integer`)
	assert.Contains(t, out, `dcterms:title "report.txt"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "."))
}

func TestJSONLDEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rdf.Write(&buf, fixture(), rdf.FormatJSONLD))

	var doc struct {
		Context map[string]string `json:"@context"`
		Graph   []map[string]any  `json:"@graph"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, vocab.ORE, doc.Context["ore"])

	var found bool
	for _, node := range doc.Graph {
		if node["@id"] == "urn:x:1" {
			found = true
			assert.Equal(t, []any{vocab.DCSFile}, node["@type"])
		}
	}
	assert.True(t, found)
}

func TestNewReader(t *testing.T) {
	g := fixture()
	r := rdf.NewReader(context.Background(), g, rdf.FormatNTriples)
	g.Add(rdf.NewTriple(rdf.IRI("urn:late"), rdf.IRI("urn:p"), rdf.Literal("x")))

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	back, err := rdf.ParseNTriples(string(data))
	require.NoError(t, err)
	assert.Equal(t, 8, back.Len(), "stream reflects the graph at call time")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = io.ReadAll(rdf.NewReader(ctx, fixture(), rdf.FormatTurtle))
	assert.ErrorIs(t, err, context.Canceled)
}
