package cop

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/oxhq/rspecfx/ast"
)

// ErrConflictingEdits is returned when two edits of one pass overlap.
var ErrConflictingEdits = errors.New("conflicting autocorrections")

// EditKind is the operation an Edit performs.
type EditKind int

const (
	Replace EditKind = iota
	InsertBefore
	Remove
)

func (k EditKind) String() string {
	switch k {
	case Replace:
		return "replace"
	case InsertBefore:
		return "insert"
	case Remove:
		return "remove"
	}
	return "edit"
}

// Edit is a single text change against the original buffer. An InsertBefore
// edit is anchored at Range.Begin and ignores Range.End.
type Edit struct {
	Range ast.Range
	Kind  EditKind
	Text  string
}

func (e Edit) isInsert() bool {
	return e.Kind == InsertBefore || e.Kind == Replace && e.Range.Empty()
}

func (e Edit) String() string {
	if e.isInsert() {
		return fmt.Sprintf("%s at %d", e.Kind, e.Range.Begin)
	}
	return fmt.Sprintf("%s %d...%d", e.Kind, e.Range.Begin, e.Range.End)
}

// ConflictError reports two overlapping edits.
type ConflictError struct {
	First  Edit
	Second Edit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s overlaps %s", ErrConflictingEdits, e.Second, e.First)
}

func (e *ConflictError) Unwrap() error { return ErrConflictingEdits }

// Corrector collects the edits of one correction pass.
type Corrector struct {
	src   *ast.Source
	edits []Edit
}

// NewCorrector returns an empty collector over src.
func NewCorrector(src *ast.Source) *Corrector {
	return &Corrector{src: src}
}

// Source returns the buffer edits are computed against.
func (c *Corrector) Source() *ast.Source { return c.src }

// Replace swaps the text in r for text.
func (c *Corrector) Replace(r ast.Range, text string) {
	c.edits = append(c.edits, Edit{Range: r, Kind: Replace, Text: text})
}

// ReplaceNode swaps a node's expression for text.
func (c *Corrector) ReplaceNode(n *ast.Node, text string) {
	c.Replace(n.Range(), text)
}

// InsertBefore places text at r.Begin.
func (c *Corrector) InsertBefore(r ast.Range, text string) {
	c.edits = append(c.edits, Edit{Range: ast.NewRange(r.Begin, r.Begin), Kind: InsertBefore, Text: text})
}

// Remove deletes the text in r.
func (c *Corrector) Remove(r ast.Range) {
	c.edits = append(c.edits, Edit{Range: r, Kind: Remove})
}

// Edits returns the collected edits in submission order.
func (c *Corrector) Edits() []Edit {
	out := make([]Edit, len(c.edits))
	copy(out, c.edits)
	return out
}

// Len is the number of collected edits.
func (c *Corrector) Len() int { return len(c.edits) }

// Apply resolves the collected edits against the source text.
func (c *Corrector) Apply() (string, error) {
	return ApplyEdits(c.src.Text(), c.edits)
}

// sortEdits orders edits by start offset. At the same offset insertions come
// first; ties otherwise keep submission order. Empty removals are dropped.
func sortEdits(edits []Edit) []Edit {
	out := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if e.Kind == Remove && e.Range.Empty() {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Range.Begin != b.Range.Begin {
			return a.Range.Begin < b.Range.Begin
		}
		return a.isInsert() && !b.isInsert()
	})
	return out
}

// CheckConflicts reports the first pair of overlapping edits. An insertion
// conflicts only with a range strictly surrounding its offset.
func CheckConflicts(edits []Edit) error {
	_, err := resolve(edits)
	return err
}

func resolve(edits []Edit) ([]Edit, error) {
	sorted := sortEdits(edits)
	maxEnd := -1
	var last Edit
	for _, e := range sorted {
		if !e.Range.Valid() {
			return nil, fmt.Errorf("cop: invalid edit range %d...%d", e.Range.Begin, e.Range.End)
		}
		if maxEnd > e.Range.Begin {
			return nil, &ConflictError{First: last, Second: e}
		}
		if !e.isInsert() && e.Range.End > maxEnd {
			maxEnd = e.Range.End
			last = e
		}
	}
	return sorted, nil
}

// ApplyEdits validates edits against each other and applies them right to
// left so earlier offsets stay valid. Nothing is applied on conflict.
func ApplyEdits(text string, edits []Edit) (string, error) {
	sorted, err := resolve(edits)
	if err != nil {
		return "", err
	}
	for _, e := range sorted {
		if e.Range.End > len(text) {
			return "", fmt.Errorf("cop: edit %s past end of source (%d bytes)", e, len(text))
		}
	}

	out := text
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		if e.isInsert() {
			out = out[:e.Range.Begin] + e.Text + out[e.Range.Begin:]
			continue
		}
		var b strings.Builder
		b.Grow(len(out) - e.Range.Len() + len(e.Text))
		b.WriteString(out[:e.Range.Begin])
		if e.Kind == Replace {
			b.WriteString(e.Text)
		}
		b.WriteString(out[e.Range.End:])
		out = b.String()
	}
	return out, nil
}
