package cop

import (
	"errors"
	"testing"

	"github.com/oxhq/rspecfx/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(b, e int) ast.Range { return ast.NewRange(b, e) }

func TestApplyEdits(t *testing.T) {
	const text = "abcdefghij"

	tests := []struct {
		name  string
		edits []Edit
		want  string
	}{
		{
			name: "no edits",
			want: text,
		},
		{
			name:  "replace",
			edits: []Edit{{Range: rng(2, 5), Kind: Replace, Text: "XY"}},
			want:  "abXYfghij",
		},
		{
			name:  "remove",
			edits: []Edit{{Range: rng(0, 3), Kind: Remove}},
			want:  "defghij",
		},
		{
			name:  "insert",
			edits: []Edit{{Range: rng(4, 4), Kind: InsertBefore, Text: "--"}},
			want:  "abcd--efghij",
		},
		{
			name: "edits applied regardless of submission order",
			edits: []Edit{
				{Range: rng(8, 10), Kind: Replace, Text: "Z"},
				{Range: rng(0, 1), Kind: Replace, Text: "A"},
				{Range: rng(4, 5), Kind: Remove},
			},
			want: "AbcdfghZ",
		},
		{
			name: "insert at start of removed range lands before it",
			edits: []Edit{
				{Range: rng(3, 6), Kind: Remove},
				{Range: rng(3, 3), Kind: InsertBefore, Text: "<>"},
			},
			want: "abc<>ghij",
		},
		{
			name: "insert at end of replaced range lands after it",
			edits: []Edit{
				{Range: rng(6, 6), Kind: InsertBefore, Text: "!"},
				{Range: rng(3, 6), Kind: Replace, Text: "_"},
			},
			want: "abc_!ghij",
		},
		{
			name: "inserts at one offset keep submission order",
			edits: []Edit{
				{Range: rng(5, 5), Kind: InsertBefore, Text: "1"},
				{Range: rng(5, 5), Kind: InsertBefore, Text: "2"},
			},
			want: "abcde12fghij",
		},
		{
			name: "adjacent ranges do not conflict",
			edits: []Edit{
				{Range: rng(0, 5), Kind: Replace, Text: "L"},
				{Range: rng(5, 10), Kind: Replace, Text: "R"},
			},
			want: "LR",
		},
		{
			name:  "empty remove is ignored",
			edits: []Edit{{Range: rng(2, 2), Kind: Remove}},
			want:  text,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyEdits(text, tt.edits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyEditsConflicts(t *testing.T) {
	tests := []struct {
		name  string
		edits []Edit
	}{
		{
			name: "overlapping replacements",
			edits: []Edit{
				{Range: rng(0, 5), Kind: Replace, Text: "x"},
				{Range: rng(3, 8), Kind: Replace, Text: "y"},
			},
		},
		{
			name: "identical ranges",
			edits: []Edit{
				{Range: rng(2, 4), Kind: Remove},
				{Range: rng(2, 4), Kind: Replace, Text: "y"},
			},
		},
		{
			name: "nested range",
			edits: []Edit{
				{Range: rng(0, 10), Kind: Replace, Text: "x"},
				{Range: rng(4, 5), Kind: Remove},
			},
		},
		{
			name: "insert strictly inside a removal",
			edits: []Edit{
				{Range: rng(2, 8), Kind: Remove},
				{Range: rng(5, 5), Kind: InsertBefore, Text: "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyEdits("abcdefghij", tt.edits)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.True(t, errors.Is(err, ErrConflictingEdits))

			var conflict *ConflictError
			require.True(t, errors.As(err, &conflict))
			assert.NotEqual(t, conflict.First, conflict.Second)
		})
	}
}

func TestApplyEditsRejectsOutOfBounds(t *testing.T) {
	_, err := ApplyEdits("abc", []Edit{{Range: rng(1, 9), Kind: Remove}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConflictingEdits))
}

func TestCorrector(t *testing.T) {
	src := ast.NewSource("x.rb", "foo(1)")
	c := NewCorrector(src)
	c.Replace(rng(0, 3), "bar")
	c.InsertBefore(rng(4, 5), "0, ")
	assert.Equal(t, 2, c.Len())

	edits := c.Edits()
	require.Len(t, edits, 2)
	assert.Equal(t, InsertBefore, edits[1].Kind)
	assert.Equal(t, rng(4, 4), edits[1].Range)

	out, err := c.Apply()
	require.NoError(t, err)
	assert.Equal(t, "bar(0, 1)", out)
}
