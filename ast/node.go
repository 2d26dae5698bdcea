// Package ast holds the read-only syntax tree the cops inspect.
//
// Node shapes follow the conventions of the Ruby "parser" gem: a method call
// is (send receiver :name args...), a block is (block send args body) and so
// on. Children are either *Node values or primitive atoms (Symbol, string,
// int64) and an absent receiver or scope is an untyped nil.
package ast

import (
	"fmt"
	"strings"
)

// Type tags a node's construct.
type Type string

// Node types produced by the Ruby provider. Unknown constructs keep the
// parser's own type name.
const (
	Send      Type = "send"
	Block     Type = "block"
	Args      Type = "args"
	Arg       Type = "arg"
	Array     Type = "array"
	Splat     Type = "splat"
	Sym       Type = "sym"
	Dsym      Type = "dsym"
	Int       Type = "int"
	Float     Type = "float"
	Str       Type = "str"
	Dstr      Type = "dstr"
	Const     Type = "const"
	Cbase     Type = "cbase"
	Begin     Type = "begin"
	Hash      Type = "hash"
	Pair      Type = "pair"
	Kwsplat   Type = "kwsplat"
	BlockPass Type = "block_pass"
	Lvar      Type = "lvar"
	Lvasgn    Type = "lvasgn"
	True      Type = "true"
	False     Type = "false"
	Nil       Type = "nil"
	Self      Type = "self"
)

// Symbol is an interned name child such as a method or constant name.
type Symbol string

// Location groups the ranges attached to a node.
type Location struct {
	// Expression spans the whole construct.
	Expression Range
	// Selector is the method name of a send or the name of a const.
	Selector Range
	// Begin and End are the opening and closing delimiters: parentheses,
	// brackets, braces or do/end.
	Begin Range
	End   Range
	// Heredoc is the body of a heredoc literal through its terminator line and
	// HeredocEnd the terminator itself. Both lie after Expression.
	Heredoc    Range
	HeredocEnd Range
}

// Loc returns a Location with only Expression set.
func Loc(expr Range) Location {
	return Location{
		Expression: expr,
		Selector:   NoRange,
		Begin:      NoRange,
		End:        NoRange,
		Heredoc:    NoRange,
		HeredocEnd: NoRange,
	}
}

// Node is an immutable syntax tree node.
type Node struct {
	typ      Type
	children []any
	loc      Location
	src      *Source
	parent   *Node
}

// New builds a node and adopts every *Node child. A child may belong to a
// single parent only.
func New(src *Source, typ Type, loc Location, children ...any) *Node {
	n := &Node{typ: typ, loc: loc, src: src}
	n.children = make([]any, len(children))
	for i, child := range children {
		switch c := child.(type) {
		case *Node:
			if c == nil {
				n.children[i] = nil
				continue
			}
			if c.parent != nil {
				panic(fmt.Sprintf("ast: %s node already has a parent", c.typ))
			}
			c.parent = n
			n.children[i] = c
		case Symbol, string, int64, nil:
			n.children[i] = c
		default:
			panic(fmt.Sprintf("ast: unsupported child %T", child))
		}
	}
	return n
}

// Type returns the node's tag.
func (n *Node) Type() Type { return n.typ }

// Is reports whether the node has one of the given types.
func (n *Node) Is(types ...Type) bool {
	if n == nil {
		return false
	}
	for _, t := range types {
		if n.typ == t {
			return true
		}
	}
	return false
}

// NumChildren returns the number of child slots.
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the child slot i.
func (n *Node) Child(i int) any {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// ChildNode returns child i when it is a node.
func (n *Node) ChildNode(i int) *Node {
	c, _ := n.Child(i).(*Node)
	return c
}

// Children returns a copy of the child slots.
func (n *Node) Children() []any {
	out := make([]any, len(n.children))
	copy(out, n.children)
	return out
}

// ChildNodes returns the node children in order, skipping atoms and nils.
func (n *Node) ChildNodes() []*Node {
	var out []*Node
	for _, c := range n.children {
		if cn, ok := c.(*Node); ok {
			out = append(out, cn)
		}
	}
	return out
}

// EachChildNode calls fn for every node child in order.
func (n *Node) EachChildNode(fn func(*Node)) {
	for _, c := range n.children {
		if cn, ok := c.(*Node); ok {
			fn(cn)
		}
	}
}

// Parent returns the enclosing node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Loc returns the node's location set.
func (n *Node) Loc() Location { return n.loc }

// Range returns the expression range.
func (n *Node) Range() Range { return n.loc.Expression }

// Source returns the text of the expression range.
func (n *Node) Source() string {
	if n.src == nil {
		return ""
	}
	return n.src.Slice(n.loc.Expression)
}

// File returns the buffer the node was parsed from.
func (n *Node) File() *Source { return n.src }

// Line is the 1-based first line of the node.
func (n *Node) Line() int { return n.src.Line(n.loc.Expression.Begin) }

// LastLine is the 1-based line holding the node's last byte.
func (n *Node) LastLine() int {
	end := n.loc.Expression.End
	if end > n.loc.Expression.Begin {
		end--
	}
	return n.src.Line(end)
}

// Column is the 0-based column of the node's first byte.
func (n *Node) Column() int { return n.src.Position(n.loc.Expression.Begin).Column }

// Receiver returns the receiver of a send, nil when implicit.
func (n *Node) Receiver() *Node {
	if n.typ != Send {
		return nil
	}
	return n.ChildNode(0)
}

// MethodName returns the method of a send, or of a block's send.
func (n *Node) MethodName() Symbol {
	switch n.typ {
	case Send:
		s, _ := n.Child(1).(Symbol)
		return s
	case Block:
		if send := n.SendNode(); send != nil {
			return send.MethodName()
		}
	}
	return ""
}

// Arguments returns the argument nodes of a send.
func (n *Node) Arguments() []*Node {
	if n.typ != Send || len(n.children) < 2 {
		return nil
	}
	var out []*Node
	for _, c := range n.children[2:] {
		if cn, ok := c.(*Node); ok {
			out = append(out, cn)
		}
	}
	return out
}

// Parenthesized reports a call written with parentheses around its arguments.
func (n *Node) Parenthesized() bool {
	return n.typ == Send && n.loc.Begin.Valid()
}

// SendNode returns the call a block is attached to.
func (n *Node) SendNode() *Node {
	if n.typ != Block {
		return nil
	}
	return n.ChildNode(0)
}

// BlockArgs returns the args node of a block.
func (n *Node) BlockArgs() *Node {
	if n.typ != Block {
		return nil
	}
	return n.ChildNode(1)
}

// Body returns the body of a block, nil when empty.
func (n *Node) Body() *Node {
	if n.typ != Block {
		return nil
	}
	return n.ChildNode(2)
}

// SymbolValue returns the name held by a sym or const node.
func (n *Node) SymbolValue() Symbol {
	switch n.typ {
	case Sym:
		s, _ := n.Child(0).(Symbol)
		return s
	case Const:
		s, _ := n.Child(1).(Symbol)
		return s
	}
	return ""
}

// String renders the node as an s-expression, mostly for tests and debugging.
func (n *Node) String() string {
	var b strings.Builder
	writeSexp(&b, n)
	return b.String()
}

func writeSexp(b *strings.Builder, v any) {
	switch c := v.(type) {
	case *Node:
		if c == nil {
			b.WriteString("nil")
			return
		}
		b.WriteByte('(')
		b.WriteString(string(c.typ))
		for _, child := range c.children {
			b.WriteByte(' ')
			writeSexp(b, child)
		}
		b.WriteByte(')')
	case Symbol:
		b.WriteByte(':')
		b.WriteString(string(c))
	case string:
		fmt.Fprintf(b, "%q", c)
	case int64:
		fmt.Fprintf(b, "%d", c)
	case nil:
		b.WriteString("nil")
	}
}

// File is one parsed source unit.
type File struct {
	Source *Source
	// Root is nil for a file without statements.
	Root *Node
}
