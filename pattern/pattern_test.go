package pattern

import (
	"errors"
	"testing"

	"github.com/oxhq/rspecfx/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "empty", src: ""},
		{name: "unclosed sequence", src: "(send nil? :foo"},
		{name: "unclosed union", src: "{:a :b"},
		{name: "two rests", src: "(send ... :foo ...)"},
		{name: "rest at top level", src: "..."},
		{name: "rest in union", src: "(send {... :a})"},
		{name: "unbalanced captures", src: "{$_ :a}"},
		{name: "literal head", src: "(:sym)"},
		{name: "trailing tokens", src: "send block"},
		{name: "stray character", src: "(send #)"},
		{name: "empty symbol", src: "(sym :)"},
		{name: "unterminated string", src: `(str "abc)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.src)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrInvalidPattern))
		})
	}
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("(send") })
	assert.NotPanics(t, func() { MustCompile("(send nil? :foo)") })
}

func TestNumCaptures(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"(send nil? :foo)", 0},
		{"(send $_ :foo $...)", 2},
		{"(send ${(const nil? :A) nil?} :create (sym $_) $...)", 3},
		{"{$_ $_}", 1},
		{"$(send $_ :a)", 2},
	}
	for _, tt := range tests {
		p := MustCompile(tt.src)
		assert.Equal(t, tt.want, p.NumCaptures(), tt.src)
		assert.Equal(t, tt.src, p.String())
	}
}

func TestMatchShapes(t *testing.T) {
	b := ast.NewBuilder("")
	// contain_exactly(*a, *b)
	splats := b.Send(nil, "contain_exactly",
		b.Node(ast.Splat, b.Send(nil, "a")),
		b.Node(ast.Splat, b.Send(nil, "b")))
	// RSpec.describe Foo
	namespaced := b.Send(b.Const(nil, "RSpec"), "describe", b.Const(nil, "Foo"))
	// describe 'x'
	bare := b.Send(nil, "describe", b.Str("x"))
	// 3.times
	times := b.Send(b.Int(3), "times")

	tests := []struct {
		name    string
		pattern string
		node    *ast.Node
		want    bool
	}{
		{"type only", "send", splats, true},
		{"type mismatch", "block", splats, false},
		{"exact arity", "(send nil? :contain_exactly _ _)", splats, true},
		{"arity too short", "(send nil? :contain_exactly _)", splats, false},
		{"rest", "(send nil? :contain_exactly ...)", splats, true},
		{"rest with suffix", "(send nil? :contain_exactly ... (splat _))", splats, true},
		{"child types", "(send nil? :contain_exactly splat splat)", splats, true},
		{"nil? rejects receiver", "(send nil? :describe ...)", namespaced, false},
		{"alternation receiver namespaced", "(send {nil? (const nil? :RSpec)} :describe ...)", namespaced, true},
		{"alternation receiver bare", "(send {nil? (const nil? :RSpec)} :describe ...)", bare, true},
		{"symbol alternation", "(send _ {:context :describe} ...)", bare, true},
		{"symbol alternation miss", "(send _ {:it :specify} ...)", bare, false},
		{"string literal", `(send nil? :describe (str "x"))`, bare, true},
		{"string literal miss", `(send nil? :describe (str "y"))`, bare, false},
		{"int literal", "(send (int 3) :times)", times, true},
		{"int literal miss", "(send (int 4) :times)", times, false},
		{"wildcard head", "(_ (int _) :times)", times, true},
		{"union head", "({block send} ...)", times, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustCompile(tt.pattern)
			assert.Equal(t, tt.want, p.Matches(tt.node))
		})
	}
}

func TestMatchCaptures(t *testing.T) {
	b := ast.NewBuilder("")
	recv := b.Const(nil, "FactoryBot")
	call := b.Send(recv, "create", b.Sym("user"), b.Node(ast.Hash))

	p := MustCompile("(send ${(const nil? {:FactoryGirl :FactoryBot}) nil?} :create (sym $_) $...)")
	res := p.Match(call)
	require.True(t, res.OK)
	require.Len(t, res.Captures, 3)
	assert.Same(t, recv, res.Node(0))
	assert.Equal(t, ast.Symbol("user"), res.Symbol(1))
	require.Len(t, res.Nodes(2), 1)
	assert.Equal(t, ast.Hash, res.Nodes(2)[0].Type())

	implicit := b.Send(nil, "create", b.Sym("post"))
	res = p.Match(implicit)
	require.True(t, res.OK)
	assert.Nil(t, res.Node(0))
	assert.Equal(t, ast.Symbol("post"), res.Symbol(1))
	assert.Empty(t, res.Nodes(2))
}

func TestMatchCapturesAreTreeValues(t *testing.T) {
	b := ast.NewBuilder("")
	a := b.Node(ast.Splat, b.Send(nil, "a"))
	c := b.Node(ast.Splat, b.Send(nil, "c"))
	call := b.Send(nil, "contain_exactly", a, c)

	res := MustCompile("(send _ :contain_exactly $...)").Match(call)
	require.True(t, res.OK)
	nodes := res.Nodes(0)
	require.Len(t, nodes, 2)
	assert.Same(t, a, nodes[0])
	assert.Same(t, c, nodes[1])
}

func TestMatchFailureHasNoCaptures(t *testing.T) {
	b := ast.NewBuilder("")
	call := b.Send(nil, "match_array", b.Send(nil, "x"))

	res := MustCompile("(send nil? :match_array $(array ...))").Match(call)
	assert.False(t, res.OK)
	assert.Nil(t, res.Captures)
	assert.Nil(t, res.Node(0))
}

func TestMatchTypedNilAndAtoms(t *testing.T) {
	var missing *ast.Node
	assert.True(t, MustCompile("nil?").Matches(missing))
	assert.True(t, MustCompile("_").Matches(missing))
	assert.False(t, MustCompile("send").Matches(missing))
	assert.False(t, MustCompile("(send ...)").Matches(ast.Symbol("send")))
	assert.True(t, MustCompile(":foo").Matches(ast.Symbol("foo")))
	assert.False(t, MustCompile(":foo").Matches("foo"))
}

func TestSymbolSet(t *testing.T) {
	assert.Equal(t, "{:it :specify}", SymbolSet([]string{"it", "specify"}))

	never := MustCompile("(send nil? " + SymbolSet(nil) + " ...)")
	b := ast.NewBuilder("")
	assert.False(t, never.Matches(b.Send(nil, "it")))
}
