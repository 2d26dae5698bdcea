package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCall builds `foo(1, :a)` by hand.
func buildCall(t *testing.T) (*Source, *Node) {
	t.Helper()
	src := NewSource("spec/foo_spec.rb", "foo(1, :a)\n")
	one := New(src, Int, Loc(NewRange(4, 5)), int64(1))
	sym := New(src, Sym, Loc(NewRange(7, 9)), Symbol("a"))
	loc := Loc(NewRange(0, 10))
	loc.Selector = NewRange(0, 3)
	loc.Begin = NewRange(3, 4)
	loc.End = NewRange(9, 10)
	call := New(src, Send, loc, nil, Symbol("foo"), one, sym)
	return src, call
}

func TestSourcePosition(t *testing.T) {
	src := NewSource("x.rb", "ab\ncd\n\nef")

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{Line: 1, Column: 0}},
		{2, Position{Line: 1, Column: 2}},
		{3, Position{Line: 2, Column: 0}},
		{6, Position{Line: 3, Column: 0}},
		{8, Position{Line: 4, Column: 1}},
		{100, Position{Line: 4, Column: 2}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, src.Position(tt.offset), "offset %d", tt.offset)
	}
	assert.Equal(t, 4, src.LineCount())
	assert.Equal(t, "cd", src.LineText(2))
	assert.Equal(t, "", src.LineText(3))
	assert.Equal(t, 3, src.LineStart(4))
}

func TestSourceSlice(t *testing.T) {
	src := NewSource("x.rb", "hello world")
	assert.Equal(t, "world", src.Slice(NewRange(6, 11)))
	assert.Equal(t, "", src.Slice(NoRange))
	assert.Equal(t, "", src.Slice(NewRange(6, 50)))
}

func TestRange(t *testing.T) {
	r := NewRange(5, 2)
	assert.Equal(t, Range{Begin: 2, End: 5}, r)
	assert.Equal(t, 3, r.Len())
	assert.False(t, NoRange.Valid())
	assert.True(t, NewRange(4, 4).Empty())
	assert.True(t, NewRange(0, 10).Contains(NewRange(2, 3)))
	assert.False(t, NewRange(2, 3).Contains(NewRange(0, 10)))
	assert.Equal(t, NewRange(1, 9), NewRange(1, 3).Join(NewRange(5, 9)))
	assert.Equal(t, NewRange(1, 3), NewRange(1, 3).Join(NoRange))
}

func TestNodeAccessors(t *testing.T) {
	_, call := buildCall(t)

	assert.Equal(t, Send, call.Type())
	assert.Nil(t, call.Receiver())
	assert.Equal(t, Symbol("foo"), call.MethodName())
	assert.True(t, call.Parenthesized())
	require.Len(t, call.Arguments(), 2)
	assert.Equal(t, Int, call.Arguments()[0].Type())
	assert.Equal(t, Symbol("a"), call.Arguments()[1].SymbolValue())
	assert.Equal(t, "foo(1, :a)", call.Source())
	assert.Equal(t, 1, call.Line())
	assert.Equal(t, 0, call.Column())
	assert.Equal(t, `(send nil :foo (int 1) (sym :a))`, call.String())

	for _, arg := range call.Arguments() {
		assert.Same(t, call, arg.Parent())
	}
}

func TestNodeChildrenIsCopy(t *testing.T) {
	_, call := buildCall(t)
	children := call.Children()
	children[1] = Symbol("bar")
	assert.Equal(t, Symbol("foo"), call.MethodName())
}

func TestNewRejectsSharedChild(t *testing.T) {
	src, call := buildCall(t)
	arg := call.Arguments()[0]
	assert.Panics(t, func() {
		New(src, Array, Loc(NewRange(0, 1)), arg)
	})
}

func TestBlockAccessors(t *testing.T) {
	src := NewSource("x.rb", "it { foo }")
	send := New(src, Send, Loc(NewRange(0, 2)), nil, Symbol("it"))
	args := New(src, Args, Loc(NoRange))
	body := New(src, Send, Loc(NewRange(5, 8)), nil, Symbol("foo"))
	block := New(src, Block, Loc(NewRange(0, 10)), send, args, body)

	assert.Same(t, send, block.SendNode())
	assert.Same(t, args, block.BlockArgs())
	assert.Same(t, body, block.Body())
	assert.Equal(t, Symbol("it"), block.MethodName())
	assert.False(t, send.Parenthesized())
}

func TestWalkOrder(t *testing.T) {
	_, call := buildCall(t)

	var seen []Type
	Walk(call, func(n *Node) Visit {
		seen = append(seen, n.Type())
		return Continue
	})
	assert.Equal(t, []Type{Send, Int, Sym}, seen)

	seen = nil
	Walk(call, func(n *Node) Visit {
		seen = append(seen, n.Type())
		if n.Type() == Int {
			return Stop
		}
		return Continue
	})
	assert.Equal(t, []Type{Send, Int}, seen)

	seen = nil
	Walk(call, func(n *Node) Visit {
		seen = append(seen, n.Type())
		return SkipChildren
	})
	assert.Equal(t, []Type{Send}, seen)
}

func TestFindDescendant(t *testing.T) {
	_, call := buildCall(t)

	found, ok := FindDescendant(call, func(n *Node) bool { return n.Type() == Send })
	require.True(t, ok)
	assert.Same(t, call, found)

	sym, ok := FindDescendant(call, func(n *Node) bool { return n.Type() == Sym })
	require.True(t, ok)
	assert.Equal(t, Symbol("a"), sym.SymbolValue())

	visited := 0
	_, ok = FindDescendant(call, func(n *Node) bool {
		visited++
		return n.Type() == Int
	})
	assert.True(t, ok)
	assert.Equal(t, 2, visited)

	_, ok = FindDescendant(call, func(n *Node) bool { return n.Type() == Hash })
	assert.False(t, ok)
}

func TestLastHeredocEnd(t *testing.T) {
	text := "let(:x) { <<~TXT }\n  body\nTXT\n"
	src := NewSource("x.rb", text)

	strLoc := Loc(NewRange(10, 16))
	strLoc.Heredoc = NewRange(19, 30)
	strLoc.HeredocEnd = NewRange(26, 29)
	str := New(src, Str, strLoc, "  body\n")
	send := New(src, Send, Loc(NewRange(0, 7)), nil, Symbol("let"))
	block := New(src, Block, Loc(NewRange(0, 18)), send, New(src, Args, Loc(NoRange)), str)

	assert.Equal(t, 29, LastHeredocEnd(block))
	assert.Equal(t, -1, LastHeredocEnd(send))
	assert.Equal(t, -1, LastHeredocEnd(nil))
}
