package ruby

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rspecfx/ast"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	file, err := New().Parse(context.Background(), "spec/example_spec.rb", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, file)
	return file
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "splat arguments",
			src:  "contain_exactly(*a, *b)",
			want: "(send nil :contain_exactly (splat (send nil :a)) (splat (send nil :b)))",
		},
		{
			name: "array argument",
			src:  "match_array([x, 1])",
			want: "(send nil :match_array (array (send nil :x) (int 1)))",
		},
		{
			name: "command call with trailing pairs",
			src:  "create_list :user, 3, name: 'x'",
			want: `(send nil :create_list (sym :user) (int 3) (hash (pair (sym :name) (str "x"))))`,
		},
		{
			name: "namespaced receiver",
			src:  "FactoryBot.create(:user)",
			want: "(send (const nil :FactoryBot) :create (sym :user))",
		},
		{
			name: "block without parameters",
			src:  "3.times { create :user }",
			want: "(block (send (int 3) :times) (args) (send nil :create (sym :user)))",
		},
		{
			name: "block with parameters",
			src:  "3.times { |n| create :user }",
			want: "(block (send (int 3) :times) (args (arg :n)) (send nil :create (sym :user)))",
		},
		{
			name: "expectation chain",
			src:  "expect(x).to eq(1)",
			want: "(send (send nil :expect (send nil :x)) :to (send nil :eq (int 1)))",
		},
		{
			name: "scoped constant",
			src:  "::Foo::Bar",
			want: "(const (const (cbase) :Foo) :Bar)",
		},
		{
			name: "local variable",
			src:  "user = build(:user)\nuser.name",
			want: "(begin (lvasgn :user (send nil :build (sym :user))) (send (lvar :user) :name))",
		},
		{
			name: "empty block",
			src:  "it {}",
			want: "(block (send nil :it) (args) nil)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := parse(t, tt.src)
			require.NotNil(t, file.Root)
			assert.Equal(t, tt.want, file.Root.String())
		})
	}
}

func TestParseEmptyFile(t *testing.T) {
	file := parse(t, "# only a comment\n")
	assert.Nil(t, file.Root)
}

func TestParseLocations(t *testing.T) {
	src := "RSpec.describe Foo do\n  it 'works' do\n    build(:user)\n  end\nend\n"
	file := parse(t, src)

	group := file.Root
	require.Equal(t, ast.Block, group.Type())
	assert.Equal(t, ast.NewRange(0, len(src)-1), group.Range())
	assert.Equal(t, "RSpec.describe Foo", group.SendNode().Source())
	assert.Equal(t, "describe", file.Source.Slice(group.SendNode().Loc().Selector))

	example := group.Body()
	require.Equal(t, ast.Block, example.Type())
	assert.Equal(t, "it 'works'", example.SendNode().Source())
	assert.Equal(t, 2, example.Line())
	assert.Equal(t, 2, example.Column())
	assert.Equal(t, 4, example.LastLine())
	assert.Same(t, group, example.Parent())

	call := example.Body()
	assert.Equal(t, "build(:user)", call.Source())
	assert.True(t, call.Parenthesized())
	assert.False(t, example.SendNode().Parenthesized())
}

func TestParseMultiStatementBody(t *testing.T) {
	src := "describe 'x' do\n  let(:a) { 1 }\n  it { a }\n  let(:b) { 2 }\nend\n"
	file := parse(t, src)

	body := file.Root.Body()
	require.NotNil(t, body)
	assert.Equal(t, ast.Begin, body.Type())
	require.Len(t, body.ChildNodes(), 3)
	assert.Equal(t, "let(:a) { 1 }", body.ChildNodes()[0].Source())
	assert.Equal(t, "it { a }", body.ChildNodes()[1].Source())
	assert.Equal(t, "let(:b) { 2 }", body.ChildNodes()[2].Source())
}

func TestParseHeredoc(t *testing.T) {
	src := "describe 'x' do\n  it { foo }\n  let(:text) { <<~TXT }\n    hello\n  TXT\nend\n"
	file := parse(t, src)

	body := file.Root.Body()
	require.Equal(t, ast.Begin, body.Type())
	let := body.ChildNodes()[1]
	assert.Equal(t, "let(:text) { <<~TXT }", let.Source())

	str := let.Body()
	require.NotNil(t, str)
	assert.Equal(t, ast.Str, str.Type())
	assert.Equal(t, "<<~TXT", str.Source())
	assert.Contains(t, str.Child(0), "hello")

	end := ast.LastHeredocEnd(let)
	require.Greater(t, end, let.Range().End)
	assert.Equal(t, "TXT", src[end-3:end])
}

func TestParseSyntaxError(t *testing.T) {
	_, err := New().Parse(context.Background(), "spec/broken_spec.rb", []byte("describe 'x' do\n  it { \nend\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))

	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.NotEmpty(t, syntaxErr.Positions)
	assert.Contains(t, err.Error(), "spec/broken_spec.rb")
}

func TestValidate(t *testing.T) {
	p := New()
	ok := p.Validate(context.Background(), []byte("it { expect(1).to eq(1) }"))
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Errors)

	bad := p.Validate(context.Background(), []byte("it { expect(1"))
	assert.False(t, bad.Valid)
	assert.NotEmpty(t, bad.Errors)
}

func TestProviderStats(t *testing.T) {
	p := New()
	src := []byte("it { expect(1).to eq(1) }")

	first, err := p.Parse(context.Background(), "a_spec.rb", src)
	require.NoError(t, err)
	second, err := p.Parse(context.Background(), "a_spec.rb", src)
	require.NoError(t, err)

	// Identical input still yields independent trees.
	assert.NotSame(t, first, second)
	assert.NotSame(t, first.Root, second.Root)
	assert.Equal(t, first.Root.Range(), second.Root.Range())

	_, err = p.Parse(context.Background(), "b_spec.rb", []byte("describe do\n"))
	require.Error(t, err)

	stats := p.Stats()
	assert.Equal(t, int64(3), stats.BorrowCount)
	assert.Equal(t, int64(3), stats.ReturnCount)
	assert.Equal(t, int64(0), stats.Active)
}

func TestMetadata(t *testing.T) {
	p := New()
	assert.Equal(t, "ruby", p.Language())
	assert.Contains(t, p.Extensions(), ".rb")
	assert.Contains(t, p.DefaultIncludes(), "**/*_spec.rb")
}
