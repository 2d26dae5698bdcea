// Package pattern compiles node patterns into structural matchers over
// ast trees.
//
// The syntax is the subset of RuboCop's NodePattern that the cops need:
//
//	(send nil? :foo ...)      sequence; the head matches the node type
//	send                      node of that type
//	_                         anything, nil included
//	nil? / nil                absent value (implicit receiver, no scope)
//	:sym  42  "str"           literal atoms
//	{a b c}                   alternation
//	$x                        capture x
//	...  $...                 any run of remaining children, optionally captured
package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oxhq/rspecfx/ast"
)

// ErrInvalidPattern is returned by Compile for malformed pattern source.
var ErrInvalidPattern = errors.New("invalid pattern")

func syntaxErr(pos int, msg string) error {
	return fmt.Errorf("%w: %s at offset %d", ErrInvalidPattern, msg, pos)
}

type kind int

const (
	kindAny kind = iota
	kindNil
	kindSymbol
	kindInt
	kindString
	kindType
	kindSeq
	kindUnion
	kindCapture
	kindRest
)

// matcher is one compiled constraint.
type matcher struct {
	kind kind

	sym  ast.Symbol
	num  int64
	str  string
	typ  ast.Type
	head *matcher

	// seq: elements before and after an optional rest.
	prefix  []*matcher
	rest    *matcher
	suffix  []*matcher
	hasRest bool

	alts []*matcher

	// capture slot and the constraint it wraps.
	slot  int
	inner *matcher
}

// Pattern is a compiled, immutable matcher. It is safe for concurrent use.
type Pattern struct {
	src      string
	root     *matcher
	captures int
}

// Compile parses src into a Pattern.
func Compile(src string) (*Pattern, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, syntaxErr(tok.pos, "unexpected "+tok.kind.String())
	}
	if root.kind == kindRest {
		return nil, syntaxErr(0, "'...' outside a sequence")
	}
	return &Pattern{src: src, root: root, captures: p.slots}, nil
}

// MustCompile is like Compile but panics on error. Meant for package-level
// pattern variables.
func MustCompile(src string) *Pattern {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source the pattern was compiled from.
func (p *Pattern) String() string { return p.src }

// NumCaptures is the number of capture slots a match fills.
func (p *Pattern) NumCaptures() int { return p.captures }

// SymbolSet renders names as an alternation of symbol literals, e.g.
// {:it :specify}. An empty list renders an alternation that matches nothing.
func SymbolSet(names []string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, ":"+n)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

type parser struct {
	toks  []token
	pos   int
	slots int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr() (*matcher, error) {
	tok := p.next()
	switch tok.kind {
	case tokWildcard:
		return &matcher{kind: kindAny}, nil
	case tokNilPred, tokNil:
		return &matcher{kind: kindNil}, nil
	case tokSymbol:
		return &matcher{kind: kindSymbol, sym: ast.Symbol(tok.text)}, nil
	case tokString:
		return &matcher{kind: kindString, str: tok.text}, nil
	case tokInt:
		n, err := strconv.ParseInt(strings.ReplaceAll(tok.text, "_", ""), 10, 64)
		if err != nil {
			return nil, syntaxErr(tok.pos, "bad integer")
		}
		return &matcher{kind: kindInt, num: n}, nil
	case tokIdent:
		return &matcher{kind: kindType, typ: ast.Type(tok.text)}, nil
	case tokRest:
		return &matcher{kind: kindRest}, nil
	case tokCapture:
		m := &matcher{kind: kindCapture, slot: p.slots}
		p.slots++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m.inner = inner
		return m, nil
	case tokLParen:
		return p.parseSeq(tok)
	case tokLBrace:
		return p.parseUnion(tok)
	}
	return nil, syntaxErr(tok.pos, "unexpected "+tok.kind.String())
}

func (p *parser) parseHead() (*matcher, error) {
	tok := p.peek()
	switch tok.kind {
	case tokIdent, tokNil:
		p.next()
		return &matcher{kind: kindType, typ: ast.Type(tok.text)}, nil
	case tokWildcard, tokLBrace, tokCapture:
		return p.parseExpr()
	}
	return nil, syntaxErr(tok.pos, "sequence must start with a node type")
}

func (p *parser) parseSeq(open token) (*matcher, error) {
	head, err := p.parseHead()
	if err != nil {
		return nil, err
	}
	m := &matcher{kind: kindSeq, head: head}
	for {
		tok := p.peek()
		switch tok.kind {
		case tokRParen:
			p.next()
			return m, nil
		case tokEOF:
			return nil, syntaxErr(open.pos, "unclosed '('")
		}
		child, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if isRest(child) {
			if m.hasRest {
				return nil, syntaxErr(tok.pos, "more than one '...' in a sequence")
			}
			m.hasRest = true
			m.rest = child
			continue
		}
		if m.hasRest {
			m.suffix = append(m.suffix, child)
		} else {
			m.prefix = append(m.prefix, child)
		}
	}
}

func (p *parser) parseUnion(open token) (*matcher, error) {
	m := &matcher{kind: kindUnion}
	base := p.slots
	end := -1
	for {
		tok := p.peek()
		switch tok.kind {
		case tokRBrace:
			p.next()
			if end >= 0 {
				p.slots = end
			}
			return m, nil
		case tokEOF:
			return nil, syntaxErr(open.pos, "unclosed '{'")
		}
		p.slots = base
		alt, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if isRest(alt) {
			return nil, syntaxErr(tok.pos, "'...' inside an alternation")
		}
		if end >= 0 && p.slots != end {
			return nil, syntaxErr(tok.pos, "alternatives capture different numbers of values")
		}
		end = p.slots
		m.alts = append(m.alts, alt)
	}
}

func isRest(m *matcher) bool {
	return m.kind == kindRest || m.kind == kindCapture && m.inner.kind == kindRest
}
