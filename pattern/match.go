package pattern

import "github.com/oxhq/rspecfx/ast"

// Result is the outcome of a match. Captures hold values found in the
// matched tree, in the order their '$' appears in the pattern.
type Result struct {
	OK       bool
	Captures []any
}

// Node returns capture i as a node, nil when absent or not a node.
func (r Result) Node(i int) *ast.Node {
	n, _ := r.value(i).(*ast.Node)
	return n
}

// Nodes returns a '$...' capture as nodes, skipping atoms.
func (r Result) Nodes(i int) []*ast.Node {
	vals, _ := r.value(i).([]any)
	var out []*ast.Node
	for _, v := range vals {
		if n, ok := v.(*ast.Node); ok && n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Symbol returns capture i as a symbol atom.
func (r Result) Symbol(i int) ast.Symbol {
	s, _ := r.value(i).(ast.Symbol)
	return s
}

// Value returns capture i untyped.
func (r Result) Value(i int) any {
	return r.value(i)
}

func (r Result) value(i int) any {
	if !r.OK || i < 0 || i >= len(r.Captures) {
		return nil
	}
	return r.Captures[i]
}

// Match tests v, usually an *ast.Node, against the pattern. A mismatch is
// reported through Result.OK.
func (p *Pattern) Match(v any) Result {
	v = normalize(v)
	caps := make([]any, p.captures)
	if !match(p.root, v, caps) {
		return Result{}
	}
	return Result{OK: true, Captures: caps}
}

// Matches reports whether v matches, discarding captures.
func (p *Pattern) Matches(v any) bool {
	return p.Match(v).OK
}

func normalize(v any) any {
	if n, ok := v.(*ast.Node); ok && n == nil {
		return nil
	}
	return v
}

func match(m *matcher, v any, caps []any) bool {
	switch m.kind {
	case kindAny:
		return true
	case kindNil:
		return v == nil
	case kindSymbol:
		s, ok := v.(ast.Symbol)
		return ok && s == m.sym
	case kindInt:
		n, ok := v.(int64)
		return ok && n == m.num
	case kindString:
		s, ok := v.(string)
		return ok && s == m.str
	case kindType:
		switch t := v.(type) {
		case ast.Type:
			return t == m.typ
		case *ast.Node:
			return t.Type() == m.typ
		}
		return false
	case kindCapture:
		if !match(m.inner, v, caps) {
			return false
		}
		caps[m.slot] = v
		return true
	case kindUnion:
		for _, alt := range m.alts {
			if match(alt, v, caps) {
				return true
			}
		}
		return false
	case kindSeq:
		n, ok := v.(*ast.Node)
		if !ok {
			return false
		}
		return matchSeq(m, n, caps)
	}
	return false
}

func matchSeq(m *matcher, n *ast.Node, caps []any) bool {
	if !match(m.head, n.Type(), caps) {
		return false
	}
	children := n.Children()
	fixed := len(m.prefix) + len(m.suffix)
	if m.hasRest {
		if len(children) < fixed {
			return false
		}
	} else if len(children) != fixed {
		return false
	}

	for i, pm := range m.prefix {
		if !match(pm, normalize(children[i]), caps) {
			return false
		}
	}
	tail := len(children) - len(m.suffix)
	for i, sm := range m.suffix {
		if !match(sm, normalize(children[tail+i]), caps) {
			return false
		}
	}
	if m.hasRest && m.rest.kind == kindCapture {
		run := make([]any, tail-len(m.prefix))
		copy(run, children[len(m.prefix):tail])
		caps[m.rest.slot] = run
	}
	return true
}
