package ast

import "strings"

// Builder assembles trees by hand, mainly for tests that do not need a
// parser. Each node's expression range spans its node children; leaves get
// NoRange unless placed with At.
type Builder struct {
	src *Source
}

// NewBuilder returns a builder whose nodes point into text.
func NewBuilder(text string) *Builder {
	return &Builder{src: NewSource("", text)}
}

// Source returns the buffer shared by the built nodes.
func (b *Builder) Source() *Source { return b.src }

// Node builds a node whose range covers its node children.
func (b *Builder) Node(typ Type, children ...any) *Node {
	rng := NoRange
	for _, c := range children {
		if n, ok := c.(*Node); ok && n != nil {
			rng = rng.Join(n.Range())
		}
	}
	return New(b.src, typ, Loc(rng), children...)
}

// At builds a node spanning the first occurrence of text at or after from.
func (b *Builder) At(typ Type, text string, from int, children ...any) *Node {
	rng := NoRange
	if idx := indexFrom(b.src.Text(), text, from); idx >= 0 {
		rng = NewRange(idx, idx+len(text))
	}
	return New(b.src, typ, Loc(rng), children...)
}

// Send builds (send recv :method args...).
func (b *Builder) Send(recv *Node, method string, args ...*Node) *Node {
	children := []any{nodeOrNil(recv), Symbol(method)}
	for _, a := range args {
		children = append(children, a)
	}
	return b.Node(Send, children...)
}

// Block builds (block send (args) body).
func (b *Builder) Block(send *Node, body *Node) *Node {
	return b.Node(Block, send, b.Node(Args), nodeOrNil(body))
}

// Sym builds (sym :name).
func (b *Builder) Sym(name string) *Node { return b.Node(Sym, Symbol(name)) }

// Int builds (int v).
func (b *Builder) Int(v int64) *Node { return b.Node(Int, v) }

// Str builds (str "v").
func (b *Builder) Str(v string) *Node { return b.Node(Str, v) }

// Const builds (const scope :Name).
func (b *Builder) Const(scope *Node, name string) *Node {
	return b.Node(Const, nodeOrNil(scope), Symbol(name))
}

// Lvar builds (lvar :name).
func (b *Builder) Lvar(name string) *Node { return b.Node(Lvar, Symbol(name)) }

func nodeOrNil(n *Node) any {
	if n == nil {
		return nil
	}
	return n
}

func indexFrom(s, sub string, from int) int {
	if from < 0 || from > len(s) {
		return -1
	}
	idx := strings.Index(s[from:], sub)
	if idx < 0 {
		return -1
	}
	return from + idx
}
