package rspec

import (
	"strings"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/cop"
	"github.com/oxhq/rspecfx/pattern"
)

// MatchArrayMessage is reported by MatchArray.
const MatchArrayMessage = "Prefer `contain_exactly` when matching an array literal."

var matchArrayCall = pattern.MustCompile("(send nil? :match_array $(array ...))")

// MatchArray flags `match_array` called with an array literal and rewrites
// it to `contain_exactly` with the literal's elements.
type MatchArray struct{}

// NewMatchArray returns the cop.
func NewMatchArray() *MatchArray { return &MatchArray{} }

func (*MatchArray) Name() string { return "RSpec/MatchArray" }

func (*MatchArray) OnSend(p *cop.Pass, node *ast.Node) {
	if !matchArrayCall.Matches(node) {
		return
	}
	p.AddNodeOffense(node, MatchArrayMessage)
}

func (*MatchArray) Autocorrect(_ *cop.Pass, node *ast.Node) cop.Correction {
	res := matchArrayCall.Match(node)
	if !res.OK {
		return nil
	}
	elements := res.Node(0).ChildNodes()
	parts := make([]string, 0, len(elements))
	for _, el := range elements {
		parts = append(parts, el.Source())
	}
	replacement := "contain_exactly(" + strings.Join(parts, ", ") + ")"
	return func(c *cop.Corrector) {
		c.ReplaceNode(node, replacement)
	}
}
