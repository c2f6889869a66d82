package rdf

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// --- N-Triples ---

// NTriplesEncoder writes sorted N-Triples.
type NTriplesEncoder struct{}

// NewNTriplesEncoder creates a new N-Triples encoder.
func NewNTriplesEncoder() *NTriplesEncoder {
	return &NTriplesEncoder{}
}

func (e *NTriplesEncoder) Encode(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	for _, t := range g.Triples() {
		if _, err := bw.WriteString(t.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// --- Turtle ---

// TurtleEncoder writes Turtle grouped by subject with prefixed names.
type TurtleEncoder struct {
	prefixes map[string]string
}

// NewTurtleEncoder creates a Turtle encoder using the given prefix table.
func NewTurtleEncoder(prefixes map[string]string) *TurtleEncoder {
	p := make(map[string]string, len(prefixes))
	for k, v := range prefixes {
		p[k] = v
	}
	return &TurtleEncoder{prefixes: p}
}

var localName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// compact returns prefix:local for iri when a prefix covers it.
func (e *TurtleEncoder) compact(iri string) (string, bool) {
	best := ""
	for prefix, ns := range e.prefixes {
		if !strings.HasPrefix(iri, ns) {
			continue
		}
		local := iri[len(ns):]
		if !localName.MatchString(local) {
			continue
		}
		// Shortest result wins; ties break lexically so output is stable.
		candidate := prefix + ":" + local
		if best == "" || len(candidate) < len(best) || (len(candidate) == len(best) && candidate < best) {
			best = candidate
		}
	}
	return best, best != ""
}

func (e *TurtleEncoder) term(t Term) string {
	switch t.Kind {
	case KindIRI:
		if c, ok := e.compact(t.Value); ok {
			return c
		}
		return t.String()
	case KindLiteral:
		if t.Lang == "" && t.Datatype != "" && t.Datatype != xsdString {
			if c, ok := e.compact(t.Datatype); ok {
				return `"` + escapeLiteral(t.Value) + `"^^` + c
			}
		}
		return t.String()
	default:
		return t.String()
	}
}

func (e *TurtleEncoder) Encode(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)

	keys := make([]string, 0, len(e.prefixes))
	for k := range e.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, prefix := range keys {
		fmt.Fprintf(bw, "@prefix %s: <%s> .\n", prefix, e.prefixes[prefix])
	}

	for _, subject := range g.Subjects() {
		bw.WriteString("\n")
		bw.WriteString(e.term(subject))
		bw.WriteString("\n")

		triples := g.About(subject)
		// Group objects by predicate, rdf:type first.
		var preds []Term
		objects := make(map[Term][]Term)
		for _, t := range triples {
			if _, ok := objects[t.P]; !ok {
				preds = append(preds, t.P)
			}
			objects[t.P] = append(objects[t.P], t.O)
		}
		sort.SliceStable(preds, func(i, j int) bool {
			ti, tj := preds[i].Value == rdfType, preds[j].Value == rdfType
			if ti != tj {
				return ti
			}
			return CompareTerms(preds[i], preds[j]) < 0
		})

		for i, p := range preds {
			pred := e.term(p)
			if p.Value == rdfType {
				pred = "a"
			}
			objs := make([]string, 0, len(objects[p]))
			for _, o := range objects[p] {
				objs = append(objs, e.term(o))
			}
			terminator := " ;"
			if i == len(preds)-1 {
				terminator = " ."
			}
			fmt.Fprintf(bw, "    %s %s%s\n", pred, strings.Join(objs, " , "), terminator)
		}
	}
	return bw.Flush()
}

// --- JSON-LD ---

// JSONLDEncoder writes expanded JSON-LD nodes under a prefix context.
type JSONLDEncoder struct {
	prefixes map[string]string
}

// NewJSONLDEncoder creates a JSON-LD encoder using the given prefix table as @context.
func NewJSONLDEncoder(prefixes map[string]string) *JSONLDEncoder {
	p := make(map[string]string, len(prefixes))
	for k, v := range prefixes {
		p[k] = v
	}
	return &JSONLDEncoder{prefixes: p}
}

func jsonldID(t Term) string {
	if t.IsBlank() {
		return "_:" + t.Value
	}
	return t.Value
}

func jsonldValue(t Term) any {
	switch t.Kind {
	case KindIRI, KindBlank:
		return map[string]any{"@id": jsonldID(t)}
	default:
		v := map[string]any{"@value": t.Value}
		if t.Lang != "" {
			v["@language"] = t.Lang
		} else if t.Datatype != "" && t.Datatype != xsdString {
			v["@type"] = t.Datatype
		}
		return v
	}
}

func (e *JSONLDEncoder) Encode(w io.Writer, g *Graph) error {
	nodes := make([]map[string]any, 0)
	for _, subject := range g.Subjects() {
		node := map[string]any{"@id": jsonldID(subject)}
		var types []string
		for _, t := range g.About(subject) {
			if t.P.Value == rdfType && t.O.IsIRI() {
				types = append(types, t.O.Value)
				continue
			}
			values, _ := node[t.P.Value].([]any)
			node[t.P.Value] = append(values, jsonldValue(t.O))
		}
		if len(types) > 0 {
			node["@type"] = types
		}
		nodes = append(nodes, node)
	}

	doc := map[string]any{
		"@context": e.prefixes,
		"@graph":   nodes,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
