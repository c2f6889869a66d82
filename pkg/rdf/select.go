package rdf

// Selector reports whether a triple belongs to a selection.
type Selector func(Triple) bool

// SelectLocal returns a selector for the local closure of subject in g:
// statements about the bare subject URI, about any "bare#fragment" URI, and
// about blank nodes reachable through outgoing edges from either.
//
// The closure is computed against g at call time.
func SelectLocal(g *Graph, subject string) Selector {
	bare := Bare(subject)
	local := make(map[Term]struct{})
	var queue []Term

	for s := range g.bySubject {
		if s.IsIRI() && Bare(s.Value) == bare {
			local[s] = struct{}{}
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for t := range g.bySubject[s] {
			if !t.O.IsBlank() {
				continue
			}
			if _, seen := local[t.O]; seen {
				continue
			}
			local[t.O] = struct{}{}
			queue = append(queue, t.O)
		}
	}

	return func(t Triple) bool {
		_, ok := local[t.S]
		return ok
	}
}

// Cut removes every triple matched by sel from g and returns them as a new graph.
func Cut(g *Graph, sel Selector) *Graph {
	out := NewGraph()
	for t := range g.triples {
		if sel(t) {
			out.Add(t)
		}
	}
	for t := range out.triples {
		g.Remove(t)
	}
	return out
}

// Rebase moves every subject or object IRI whose bare form equals Bare(from)
// onto Bare(to), keeping fragments, so "from#x" becomes "to#x". Each rename is
// recorded in renames when it is non-nil. It returns the number of rewritten triples.
func Rebase(g *Graph, from, to string, renames map[string]string) int {
	oldBare, newBare := Bare(from), Bare(to)
	if oldBare == newBare {
		return 0
	}

	move := func(term Term) (Term, bool) {
		if !term.IsIRI() || Bare(term.Value) != oldBare {
			return term, false
		}
		renamed := newBare + Fragment(term.Value)
		if renames != nil {
			renames[term.Value] = renamed
		}
		return IRI(renamed), true
	}

	var before, after []Triple
	for t := range g.triples {
		s, sMoved := move(t.S)
		o, oMoved := move(t.O)
		if !sMoved && !oMoved {
			continue
		}
		before = append(before, t)
		after = append(after, Triple{S: s, P: t.P, O: o})
	}
	for _, t := range before {
		g.Remove(t)
	}
	g.Add(after...)

	if renames != nil {
		if _, ok := renames[from]; !ok {
			renames[from] = newBare + Fragment(from)
		}
	}
	return len(before)
}

// RemoveReferences deletes every triple whose subject or object is an IRI with
// the same bare form as uri, and returns how many were removed.
func RemoveReferences(g *Graph, uri string) int {
	bare := Bare(uri)
	refers := func(term Term) bool {
		return term.IsIRI() && Bare(term.Value) == bare
	}
	removed := Cut(g, func(t Triple) bool {
		return refers(t.S) || refers(t.O)
	})
	return removed.Len()
}

// References reports whether any triple mentions uri (bare match) as subject or object.
func References(g *Graph, uri string) bool {
	bare := Bare(uri)
	for t := range g.triples {
		if (t.S.IsIRI() && Bare(t.S.Value) == bare) || (t.O.IsIRI() && Bare(t.O.Value) == bare) {
			return true
		}
	}
	return false
}
