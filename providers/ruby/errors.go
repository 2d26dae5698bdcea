package ruby

import (
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/rspecfx/ast"
)

// ErrSyntax marks source the grammar could not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// SyntaxError lists where the parse failed.
type SyntaxError struct {
	Path      string
	Positions []ast.Position
}

func (e *SyntaxError) Error() string {
	parts := make([]string, 0, len(e.Positions))
	for i, pos := range e.Positions {
		if i == 3 {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Positions)-i))
			break
		}
		parts = append(parts, fmt.Sprintf("%d:%d", pos.Line, pos.Column+1))
	}
	name := e.Path
	if name == "" {
		name = "<source>"
	}
	return fmt.Sprintf("%s: %s at %s", name, ErrSyntax, strings.Join(parts, ", "))
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// findErrors collects ERROR and MISSING nodes in document order.
func findErrors(node *sitter.Node, src *ast.Source, out *[]ast.Position) {
	if node == nil {
		return
	}
	if node.Type() == "ERROR" || node.IsMissing() {
		*out = append(*out, src.Position(offset(node.StartByte())))
		if node.Type() == "ERROR" {
			return
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		findErrors(node.Child(i), src, out)
	}
}
