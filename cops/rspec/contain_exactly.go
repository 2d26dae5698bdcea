package rspec

import (
	"strings"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/cop"
	"github.com/oxhq/rspecfx/pattern"
)

// ContainExactlyMessage is reported by ContainExactly.
const ContainExactlyMessage = "Prefer `match_array` when matching array values."

var containExactlyCall = pattern.MustCompile("(send nil? :contain_exactly $...)")

// ContainExactly flags `contain_exactly` calls whose arguments are all
// splats and rewrites them to `match_array`:
//
//	contain_exactly(*a, *b) # => match_array(a + b)
type ContainExactly struct{}

// NewContainExactly returns the cop.
func NewContainExactly() *ContainExactly { return &ContainExactly{} }

func (*ContainExactly) Name() string { return "RSpec/ContainExactly" }

func (*ContainExactly) OnSend(p *cop.Pass, node *ast.Node) {
	res := containExactlyCall.Match(node)
	if !res.OK {
		return
	}
	args := res.Nodes(0)
	if len(args) == 0 {
		return
	}
	for _, arg := range args {
		if arg.Type() != ast.Splat {
			return
		}
	}
	p.AddNodeOffense(node, ContainExactlyMessage)
}

func (*ContainExactly) Autocorrect(_ *cop.Pass, node *ast.Node) cop.Correction {
	args := node.Arguments()
	operands := make([]string, 0, len(args))
	for _, splat := range args {
		inner := splat.ChildNode(0)
		if inner == nil {
			return nil
		}
		operands = append(operands, inner.Source())
	}
	replacement := "match_array(" + strings.Join(operands, " + ") + ")"
	return func(c *cop.Corrector) {
		c.ReplaceNode(node, replacement)
	}
}
