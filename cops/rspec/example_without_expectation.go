package rspec

import (
	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/cop"
)

// ExampleWithoutExpectationMessage is reported by ExampleWithoutExpectation.
const ExampleWithoutExpectationMessage = "Example does not have at least one expectation."

// ExampleWithoutExpectation flags examples with no expectation call anywhere
// in their body. The offense sits on the example call, not its block.
type ExampleWithoutExpectation struct {
	lang *Language
}

// NewExampleWithoutExpectation returns the cop for lang.
func NewExampleWithoutExpectation(lang *Language) *ExampleWithoutExpectation {
	return &ExampleWithoutExpectation{lang: lang}
}

func (*ExampleWithoutExpectation) Name() string { return "RSpec/ExampleWithoutExpectation" }

func (c *ExampleWithoutExpectation) OnBlock(p *cop.Pass, node *ast.Node) {
	if !c.lang.IsExample(node) {
		return
	}
	if _, found := ast.FindDescendant(node, c.lang.IsExpectation); found {
		return
	}
	p.AddNodeOffense(node.SendNode(), ExampleWithoutExpectationMessage)
}
