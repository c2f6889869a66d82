package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadNTriples parses an N-Triples document into a new graph.
// Blank node labels are kept as written.
func ReadNTriples(r io.Reader) (*Graph, error) {
	g := NewGraph()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		t, err := parseNTriple(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		g.Add(t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read n-triples: %w", err)
	}
	return g, nil
}

// ParseNTriples is ReadNTriples over a string.
func ParseNTriples(doc string) (*Graph, error) {
	return ReadNTriples(strings.NewReader(doc))
}

type ntLexer struct {
	s   string
	pos int
}

func (l *ntLexer) skipSpace() {
	for l.pos < len(l.s) && (l.s[l.pos] == ' ' || l.s[l.pos] == '\t') {
		l.pos++
	}
}

func (l *ntLexer) peek() byte {
	if l.pos >= len(l.s) {
		return 0
	}
	return l.s[l.pos]
}

func parseNTriple(text string) (Triple, error) {
	l := &ntLexer{s: text}

	s, err := l.term(false)
	if err != nil {
		return Triple{}, fmt.Errorf("subject: %w", err)
	}
	if s.IsLiteral() {
		return Triple{}, fmt.Errorf("subject cannot be a literal")
	}
	p, err := l.term(false)
	if err != nil {
		return Triple{}, fmt.Errorf("predicate: %w", err)
	}
	if !p.IsIRI() {
		return Triple{}, fmt.Errorf("predicate must be an IRI")
	}
	o, err := l.term(true)
	if err != nil {
		return Triple{}, fmt.Errorf("object: %w", err)
	}

	l.skipSpace()
	if l.peek() != '.' {
		return Triple{}, fmt.Errorf("expected '.' at column %d", l.pos+1)
	}
	l.pos++
	l.skipSpace()
	if rest := l.s[l.pos:]; rest != "" && !strings.HasPrefix(rest, "#") {
		return Triple{}, fmt.Errorf("trailing content %q", rest)
	}
	return Triple{S: s, P: p, O: o}, nil
}

func (l *ntLexer) term(allowLiteral bool) (Term, error) {
	l.skipSpace()
	switch c := l.peek(); {
	case c == '<':
		v, err := l.iri()
		if err != nil {
			return Term{}, err
		}
		return IRI(v), nil
	case c == '_':
		if !strings.HasPrefix(l.s[l.pos:], "_:") {
			return Term{}, fmt.Errorf("malformed blank node at column %d", l.pos+1)
		}
		l.pos += 2
		start := l.pos
		for l.pos < len(l.s) && !strings.ContainsRune(" \t.", rune(l.s[l.pos])) {
			l.pos++
		}
		if l.pos == start {
			return Term{}, fmt.Errorf("empty blank node label")
		}
		return Blank(l.s[start:l.pos]), nil
	case c == '"' && allowLiteral:
		return l.literal()
	default:
		return Term{}, fmt.Errorf("unexpected %q at column %d", c, l.pos+1)
	}
}

func (l *ntLexer) iri() (string, error) {
	l.pos++ // '<'
	end := strings.IndexByte(l.s[l.pos:], '>')
	if end < 0 {
		return "", fmt.Errorf("unterminated IRI")
	}
	raw := l.s[l.pos : l.pos+end]
	l.pos += end + 1
	return unescape(raw)
}

func (l *ntLexer) literal() (Term, error) {
	l.pos++ // opening quote
	start := l.pos
	for {
		if l.pos >= len(l.s) {
			return Term{}, fmt.Errorf("unterminated literal")
		}
		c := l.s[l.pos]
		if c == '\\' {
			l.pos += 2
			continue
		}
		if c == '"' {
			break
		}
		l.pos++
	}
	value, err := unescape(l.s[start:l.pos])
	if err != nil {
		return Term{}, err
	}
	l.pos++ // closing quote

	switch {
	case strings.HasPrefix(l.s[l.pos:], "^^"):
		l.pos += 2
		if l.peek() != '<' {
			return Term{}, fmt.Errorf("expected datatype IRI")
		}
		dt, err := l.iri()
		if err != nil {
			return Term{}, err
		}
		if dt == xsdString {
			return Literal(value), nil
		}
		return TypedLiteral(value, dt), nil
	case l.peek() == '@':
		l.pos++
		start := l.pos
		for l.pos < len(l.s) && (isAlnum(l.s[l.pos]) || l.s[l.pos] == '-') {
			l.pos++
		}
		return LangLiteral(value, l.s[start:l.pos]), nil
	}
	return Literal(value), nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		i++
		switch s[i] {
		case 't':
			sb.WriteByte('\t')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '"', '\'', '\\':
			sb.WriteByte(s[i])
		case 'u', 'U':
			n := 4
			if s[i] == 'U' {
				n = 8
			}
			if i+n >= len(s) {
				return "", fmt.Errorf("short unicode escape")
			}
			code, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32)
			if err != nil {
				return "", fmt.Errorf("bad unicode escape: %w", err)
			}
			sb.WriteRune(rune(code))
			i += n
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return sb.String(), nil
}
