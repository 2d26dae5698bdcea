// Package cop is the rule engine shared by every cop: hook dispatch over a
// syntax tree, offense reporting and the autocorrect edit algebra.
package cop

import (
	"github.com/oxhq/rspecfx/ast"
)

// Cop is a single rule. Behaviour is added by implementing the optional hook
// interfaces below; the Commissioner only calls what a cop implements.
type Cop interface {
	// Name is the department-qualified identifier, e.g. RSpec/MatchArray.
	Name() string
}

// SendHook is implemented by cops inspecting method calls.
type SendHook interface {
	OnSend(p *Pass, node *ast.Node)
}

// BlockHook is implemented by cops inspecting blocks.
type BlockHook interface {
	OnBlock(p *Pass, node *ast.Node)
}

// Correction appends the edits that fix one offense. It may append nothing
// when the expected shape is missing; the offense is still reported.
type Correction func(c *Corrector)

// Autocorrector is implemented by cops able to fix what they report. It is
// asked for a correction each time the cop adds an offense.
type Autocorrector interface {
	Autocorrect(p *Pass, node *ast.Node) Correction
}

// Styled is implemented by cops with an EnforcedStyle parameter.
type Styled interface {
	SupportedStyles() []string
	Style() string
}

// Pass is the per-cop view of one investigation. Hooks report through it.
type Pass struct {
	File *ast.File

	cop      Cop
	offenses []Offense
}

// Source returns the buffer under inspection.
func (p *Pass) Source() *ast.Source { return p.File.Source }

// Cop returns the cop the pass belongs to.
func (p *Pass) Cop() Cop { return p.cop }

// AddOffense records a violation anchored at rng. node is the construct the
// cop's Autocorrect receives.
func (p *Pass) AddOffense(node *ast.Node, rng ast.Range, message string) {
	off := Offense{
		CopName:  p.cop.Name(),
		Message:  message,
		Range:    rng,
		Position: p.File.Source.Position(rng.Begin),
		node:     node,
	}
	if ac, ok := p.cop.(Autocorrector); ok {
		off.correction = ac.Autocorrect(p, node)
		off.Correctable = off.correction != nil
	}
	p.offenses = append(p.offenses, off)
}

// AddNodeOffense records a violation anchored at the node's expression.
func (p *Pass) AddNodeOffense(node *ast.Node, message string) {
	p.AddOffense(node, node.Range(), message)
}

// Offenses returns what the pass has recorded so far.
func (p *Pass) Offenses() []Offense {
	return p.offenses
}
