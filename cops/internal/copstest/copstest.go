// Package copstest drives cops over annotated Ruby snippets. An annotation is
// a line of carets under the flagged source followed by the message:
//
//	expect(x).to contain_exactly(*a, *b)
//	             ^^^^^^^^^^^^^^^^^^^^^^^ Prefer `match_array` when matching array values.
package copstest

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/cop"
	"github.com/oxhq/rspecfx/providers/ruby"
)

// maxPasses bounds the correction loop of Correct.
const maxPasses = 10

var annotationLine = regexp.MustCompile(`^(\s*)(\^+) (.+)$`)

var provider = ruby.New()

type annotation struct {
	line    int
	column  int
	length  int
	message string
}

// Parse parses src as a spec file.
func Parse(t *testing.T, src string) *ast.File {
	t.Helper()
	file, err := provider.Parse(context.Background(), "example_spec.rb", []byte(src))
	require.NoError(t, err, "parsing snippet:\n%s", src)
	return file
}

// Inspect runs cops over src and returns the offenses.
func Inspect(t *testing.T, src string, cops ...cop.Cop) []cop.Offense {
	t.Helper()
	return cop.NewCommissioner(cops...).Investigate(Parse(t, src)).Offenses()
}

// ExpectOffense checks that c reports exactly the annotated offenses and
// returns the snippet with the annotations stripped.
func ExpectOffense(t *testing.T, c cop.Cop, annotated string) string {
	t.Helper()
	src, want := split(annotated)
	got := Inspect(t, src, c)
	assert.Equal(t, render(src, want), render(src, fromOffenses(got)))
	return src
}

// ExpectNoOffenses checks that c accepts src.
func ExpectNoOffenses(t *testing.T, c cop.Cop, src string) {
	t.Helper()
	src = trimLead(src)
	got := Inspect(t, src, c)
	assert.Empty(t, got, "unexpected offenses:\n%s", render(src, fromOffenses(got)))
}

// ExpectCorrection autocorrects src with c until it is stable, compares the
// outcome with want and checks that the corrected source is accepted.
func ExpectCorrection(t *testing.T, c cop.Cop, src, want string) {
	t.Helper()
	got := Correct(t, src, c)
	assert.Equal(t, trimLead(want), got)
	ExpectNoOffenses(t, c, got)
}

// Correct runs the correction loop of cops over src and returns the result.
func Correct(t *testing.T, src string, cops ...cop.Cop) string {
	t.Helper()
	src = trimLead(src)
	commissioner := cop.NewCommissioner(cops...)
	for range maxPasses {
		res, err := commissioner.Investigate(Parse(t, src)).Correct()
		require.NoError(t, err)
		if !res.Changed() {
			return src
		}
		src = res.Source
	}
	t.Fatalf("correction did not converge:\n%s", src)
	return src
}

// Lines joins lines into a snippet ending with a newline. It keeps messages
// holding backquotes readable in tests.
func Lines(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func trimLead(s string) string {
	return strings.TrimPrefix(s, "\n")
}

// split separates the annotations from the source lines.
func split(annotated string) (string, []annotation) {
	var (
		lines []string
		anns  []annotation
	)
	for _, line := range strings.Split(trimLead(annotated), "\n") {
		if m := annotationLine.FindStringSubmatch(line); m != nil && len(lines) > 0 {
			anns = append(anns, annotation{
				line:    len(lines),
				column:  len(m[1]),
				length:  len(m[2]),
				message: m[3],
			})
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), anns
}

func fromOffenses(offs []cop.Offense) []annotation {
	out := make([]annotation, 0, len(offs))
	for _, o := range offs {
		out = append(out, annotation{
			line:    o.Position.Line,
			column:  o.Position.Column,
			length:  o.Range.Len(),
			message: o.Message,
		})
	}
	return out
}

// render interleaves annotations with src. Carets of a multi-line offense
// stop at the end of its first line.
func render(src string, anns []annotation) string {
	sort.SliceStable(anns, func(i, j int) bool {
		if anns[i].line != anns[j].line {
			return anns[i].line < anns[j].line
		}
		return anns[i].column < anns[j].column
	})

	var b strings.Builder
	lines := strings.Split(src, "\n")
	next := 0
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		for next < len(anns) && anns[next].line == i+1 {
			a := anns[next]
			width := min(a.length, len(line)-a.column)
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", a.column))
			b.WriteString(strings.Repeat("^", max(width, 1)))
			b.WriteString(" " + a.message)
			next++
		}
	}
	for ; next < len(anns); next++ {
		b.WriteString("\n<line " + strconv.Itoa(anns[next].line) + "> " + anns[next].message)
	}
	return b.String()
}
