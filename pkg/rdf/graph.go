package rdf

import (
	"cmp"
	"slices"
)

// Graph is a mutable set of triples indexed by subject.
// A Graph is not safe for concurrent use.
type Graph struct {
	triples   map[Triple]struct{}
	bySubject map[Term]map[Triple]struct{}
}

// NewGraph returns an empty graph, optionally seeded with triples.
func NewGraph(triples ...Triple) *Graph {
	g := &Graph{
		triples:   make(map[Triple]struct{}),
		bySubject: make(map[Term]map[Triple]struct{}),
	}
	g.Add(triples...)
	return g
}

// Add inserts triples. Duplicates are ignored.
func (g *Graph) Add(triples ...Triple) {
	for _, t := range triples {
		if _, ok := g.triples[t]; ok {
			continue
		}
		g.triples[t] = struct{}{}
		idx, ok := g.bySubject[t.S]
		if !ok {
			idx = make(map[Triple]struct{})
			g.bySubject[t.S] = idx
		}
		idx[t] = struct{}{}
	}
}

// Remove deletes a triple and reports whether it was present.
func (g *Graph) Remove(t Triple) bool {
	if _, ok := g.triples[t]; !ok {
		return false
	}
	delete(g.triples, t)
	if idx := g.bySubject[t.S]; idx != nil {
		delete(idx, t)
		if len(idx) == 0 {
			delete(g.bySubject, t.S)
		}
	}
	return true
}

// Contains reports whether the triple is in the graph.
func (g *Graph) Contains(t Triple) bool {
	_, ok := g.triples[t]
	return ok
}

// Len returns the number of triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Empty reports whether the graph has no triples.
func (g *Graph) Empty() bool {
	return len(g.triples) == 0
}

// Triples returns all triples in a deterministic order.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, 0, len(g.triples))
	for t := range g.triples {
		out = append(out, t)
	}
	slices.SortFunc(out, CompareTriples)
	return out
}

// Subjects returns the distinct subjects in a deterministic order.
func (g *Graph) Subjects() []Term {
	out := make([]Term, 0, len(g.bySubject))
	for s := range g.bySubject {
		out = append(out, s)
	}
	slices.SortFunc(out, CompareTerms)
	return out
}

// About returns the triples with the given subject in a deterministic order.
func (g *Graph) About(subject Term) []Triple {
	idx := g.bySubject[subject]
	out := make([]Triple, 0, len(idx))
	for t := range idx {
		out = append(out, t)
	}
	slices.SortFunc(out, CompareTriples)
	return out
}

// HasSubject reports whether any triple has the given subject.
func (g *Graph) HasSubject(subject Term) bool {
	return len(g.bySubject[subject]) > 0
}

// HasObject reports whether any triple has the given object.
func (g *Graph) HasObject(object Term) bool {
	for t := range g.triples {
		if t.O == object {
			return true
		}
	}
	return false
}

// Filter returns the triples matched by sel without modifying the graph.
func (g *Graph) Filter(sel Selector) []Triple {
	var out []Triple
	for t := range g.triples {
		if sel(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, CompareTriples)
	return out
}

// Merge adds every triple of other to g.
func (g *Graph) Merge(other *Graph) {
	for t := range other.triples {
		g.Add(t)
	}
}

// Clone returns an independent copy.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	c.Merge(g)
	return c
}

// CompareTerms orders terms by kind, value, datatype and language.
func CompareTerms(a, b Term) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Datatype, b.Datatype); c != 0 {
		return c
	}
	return cmp.Compare(a.Lang, b.Lang)
}

// CompareTriples orders triples by subject, predicate and object.
func CompareTriples(a, b Triple) int {
	if c := CompareTerms(a.S, b.S); c != 0 {
		return c
	}
	if c := CompareTerms(a.P, b.P); c != 0 {
		return c
	}
	return CompareTerms(a.O, b.O)
}
