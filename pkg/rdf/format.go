package rdf

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/bagger/pkg/vocab"
)

// Format names a serialization format.
type Format string

const (
	// FormatTurtle produces prefixed Turtle grouped by subject. It is the default.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces one statement per line.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces expanded JSON-LD with a prefix context.
	FormatJSONLD Format = "jsonld"
)

// DefaultFormat is used when nothing, or something unknown, is requested.
const DefaultFormat = FormatTurtle

// FormatInfo provides metadata about a format.
type FormatInfo struct {
	Name        Format
	MIMEType    string
	Extension   string // with dot
	Description string
}

var formatRegistry = map[Format]FormatInfo{
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD - JSON for Linked Data",
	},
}

// aliases maps accepted spellings (names, extensions, MIME types) to formats.
var aliases = map[string]Format{
	"turtle":                FormatTurtle,
	"ttl":                   FormatTurtle,
	"text/turtle":           FormatTurtle,
	"ntriples":              FormatNTriples,
	"n-triples":             FormatNTriples,
	"nt":                    FormatNTriples,
	"application/n-triples": FormatNTriples,
	"jsonld":                FormatJSONLD,
	"json-ld":               FormatJSONLD,
	"application/ld+json":   FormatJSONLD,
}

// Info returns the metadata for a format, falling back to the default's.
func (f Format) Info() FormatInfo {
	if info, ok := formatRegistry[f]; ok {
		return info
	}
	return formatRegistry[DefaultFormat]
}

// Extension is shorthand for f.Info().Extension.
func (f Format) Extension() string {
	return f.Info().Extension
}

// Lookup resolves a requested format name, extension or MIME type.
func Lookup(name string) (Format, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, ".")
	f, ok := aliases[key]
	return f, ok
}

// Negotiate returns the format for requested. An empty request yields the
// default silently; an unrecognized one logs a warning and yields the default.
func Negotiate(requested string, logger *slog.Logger) Format {
	if strings.TrimSpace(requested) == "" {
		return DefaultFormat
	}
	if f, ok := Lookup(requested); ok {
		return f
	}
	if logger != nil {
		logger.Warn("unrecognized rdf format, using default",
			"requested", requested, "default", string(DefaultFormat))
	}
	return DefaultFormat
}

// Encoder writes a whole graph in one format.
type Encoder interface {
	Encode(w io.Writer, g *Graph) error
}

// DefaultEncoders returns the standard set of encoders.
func DefaultEncoders() map[Format]Encoder {
	prefixes := vocab.Prefixes()
	return map[Format]Encoder{
		FormatTurtle:   NewTurtleEncoder(prefixes),
		FormatNTriples: NewNTriplesEncoder(),
		FormatJSONLD:   NewJSONLDEncoder(prefixes),
	}
}

var defaultEncoders = DefaultEncoders()

// Write serializes g to w in format f.
func Write(w io.Writer, g *Graph, f Format) error {
	enc, ok := defaultEncoders[f]
	if !ok {
		return fmt.Errorf("unsupported rdf format: %s", f)
	}
	return enc.Encode(w, g)
}
