package cop

import (
	"fmt"
	"sort"

	"github.com/oxhq/rspecfx/ast"
)

type callback struct {
	cop int
	fn  func(p *Pass, n *ast.Node)
}

// Commissioner walks a tree once and dispatches each node to the cops
// registered for its type.
type Commissioner struct {
	cops     []Cop
	dispatch map[ast.Type][]callback
}

// NewCommissioner builds the dispatch table for cops. Hook order follows the
// order of cops.
func NewCommissioner(cops ...Cop) *Commissioner {
	c := &Commissioner{cops: cops, dispatch: make(map[ast.Type][]callback)}
	for i, cp := range cops {
		if h, ok := cp.(SendHook); ok {
			c.dispatch[ast.Send] = append(c.dispatch[ast.Send], callback{cop: i, fn: h.OnSend})
		}
		if h, ok := cp.(BlockHook); ok {
			c.dispatch[ast.Block] = append(c.dispatch[ast.Block], callback{cop: i, fn: h.OnBlock})
		}
	}
	return c
}

// Cops returns the cops in dispatch order.
func (c *Commissioner) Cops() []Cop { return c.cops }

// Investigate runs every cop over file in document order.
func (c *Commissioner) Investigate(file *ast.File) *Investigation {
	passes := make([]*Pass, len(c.cops))
	for i, cp := range c.cops {
		passes[i] = &Pass{File: file, cop: cp}
	}

	ast.Walk(file.Root, func(n *ast.Node) ast.Visit {
		for _, cb := range c.dispatch[n.Type()] {
			cb.fn(passes[cb.cop], n)
		}
		return ast.Continue
	})

	return &Investigation{File: file, passes: passes}
}

// Investigation is the result of one walk over a file.
type Investigation struct {
	File *ast.File

	passes []*Pass
}

// Offenses returns all offenses ordered by position. Offenses at the same
// position keep cop order and then emission order.
func (inv *Investigation) Offenses() []Offense {
	var out []Offense
	for _, p := range inv.passes {
		out = append(out, p.offenses...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.Begin < out[j].Range.Begin
	})
	return out
}

// CorrectionResult is the outcome of resolving an investigation's
// corrections.
type CorrectionResult struct {
	// Source is the corrected text; equal to the input when nothing applied.
	Source string
	// Edits holds the accepted edits in submission order.
	Edits []Edit
	// Deferred lists cops whose edits clashed with an earlier cop's and must
	// be retried on the corrected source.
	Deferred []string
	// Offenses mirrors Investigation.Offenses with Corrected set.
	Offenses []Offense
}

// Changed reports whether any edit was applied.
func (r *CorrectionResult) Changed() bool { return len(r.Edits) > 0 }

// Correct collects each cop's corrections and applies them in one pass.
// Edits of a single cop that overlap each other are an error. A cop whose
// edits overlap those already accepted from an earlier cop is deferred.
func (inv *Investigation) Correct() (*CorrectionResult, error) {
	src := inv.File.Source
	res := &CorrectionResult{}
	var accepted []Edit

	for _, p := range inv.passes {
		corr := NewCorrector(src)
		produced := make([]bool, len(p.offenses))
		for i, off := range p.offenses {
			if off.correction == nil {
				continue
			}
			before := corr.Len()
			off.correction(corr)
			produced[i] = corr.Len() > before
		}
		if corr.Len() == 0 {
			continue
		}
		if err := CheckConflicts(corr.edits); err != nil {
			return nil, fmt.Errorf("%s: %w", p.cop.Name(), err)
		}

		candidate := append(append([]Edit(nil), accepted...), corr.edits...)
		if err := CheckConflicts(candidate); err != nil {
			res.Deferred = append(res.Deferred, p.cop.Name())
			continue
		}
		accepted = candidate
		for i := range p.offenses {
			if produced[i] {
				p.offenses[i].Corrected = true
			}
		}
	}

	out, err := ApplyEdits(src.Text(), accepted)
	if err != nil {
		return nil, err
	}
	res.Source = out
	res.Edits = accepted
	res.Offenses = inv.Offenses()
	return res, nil
}
