package rspec

import (
	"strings"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/cop"
	"github.com/oxhq/rspecfx/pattern"
)

// LetBeforeExamplesMessage is reported by LetBeforeExamples.
const LetBeforeExamplesMessage = "Move `let` before the examples in the group."

var letBlock = pattern.MustCompile("(block (send nil? {:let :let!} ...) ...)")

// LetBeforeExamples flags `let` and `let!` declared after an example, a
// nested group or an inclusion of shared examples in the same group. The
// correction moves the declaration above the first of those.
type LetBeforeExamples struct {
	lang *Language
}

// NewLetBeforeExamples returns the cop for lang.
func NewLetBeforeExamples(lang *Language) *LetBeforeExamples {
	return &LetBeforeExamples{lang: lang}
}

func (*LetBeforeExamples) Name() string { return "RSpec/LetBeforeExamples" }

func (c *LetBeforeExamples) OnBlock(p *cop.Pass, node *ast.Node) {
	if !c.lang.IsExampleGroup(node) {
		return
	}
	body := node.Body()
	if body == nil || body.Type() != ast.Begin {
		return
	}

	exampleFound := false
	body.EachChildNode(func(child *ast.Node) {
		switch {
		case letBlock.Matches(child):
			if exampleFound {
				p.AddNodeOffense(child, LetBeforeExamplesMessage)
			}
		case c.lang.IsExampleOrGroup(child):
			exampleFound = true
		}
	})
}

func (c *LetBeforeExamples) Autocorrect(p *cop.Pass, node *ast.Node) cop.Correction {
	first := c.firstExample(node)
	if first == nil {
		return nil
	}
	src := p.Source()
	span := declarationSpan(node)
	moved := reindent(src, span, node, first.Column()-node.Column())
	indent := "\n" + strings.Repeat(" ", first.Column())
	removal := withSurroundingSpace(src.Text(), span)

	return func(corr *cop.Corrector) {
		corr.InsertBefore(first.Range(), moved+indent)
		corr.Remove(removal)
	}
}

func (c *LetBeforeExamples) firstExample(node *ast.Node) *ast.Node {
	parent := node.Parent()
	if parent == nil {
		return nil
	}
	for _, sibling := range parent.ChildNodes() {
		if c.lang.IsExampleOrGroup(sibling) {
			return sibling
		}
	}
	return nil
}

// declarationSpan is the node's expression extended to the terminator of a
// heredoc that outlives it.
func declarationSpan(node *ast.Node) ast.Range {
	span := node.Range()
	if end := ast.LastHeredocEnd(node); end > span.End {
		span.End = end
	}
	return span
}

// reindent shifts every line of span after the first by delta columns.
// Lines inside a heredoc body keep their text.
func reindent(src *ast.Source, span ast.Range, node *ast.Node, delta int) string {
	text := src.Slice(span)
	if delta == 0 || !strings.Contains(text, "\n") {
		return text
	}

	var bodies []ast.Range
	ast.Walk(node, func(n *ast.Node) ast.Visit {
		if h := n.Loc().Heredoc; h.Valid() {
			bodies = append(bodies, h)
		}
		return ast.Continue
	})
	inHeredoc := func(offset int) bool {
		for _, b := range bodies {
			if offset >= b.Begin && offset < b.End {
				return true
			}
		}
		return false
	}

	lines := strings.Split(text, "\n")
	offset := span.Begin + len(lines[0]) + 1
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		start := offset
		offset += len(line) + 1
		if line == "" || inHeredoc(start) {
			continue
		}
		if delta > 0 {
			lines[i] = strings.Repeat(" ", delta) + line
			continue
		}
		trim := 0
		for trim < -delta && trim < len(line) && line[trim] == ' ' {
			trim++
		}
		lines[i] = line[trim:]
	}
	return strings.Join(lines, "\n")
}

// withSurroundingSpace widens span over the indentation before it and over
// trailing blanks and newlines after it.
func withSurroundingSpace(text string, span ast.Range) ast.Range {
	begin, end := span.Begin, span.End
	for begin > 0 && isBlank(text[begin-1]) {
		begin--
	}
	for end < len(text) && isBlank(text[end]) {
		end++
	}
	for end < len(text) && text[end] == '\n' {
		end++
	}
	return ast.NewRange(begin, end)
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }
