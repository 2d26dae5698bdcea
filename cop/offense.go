package cop

import (
	"fmt"

	"github.com/oxhq/rspecfx/ast"
)

// Offense is one reported violation.
type Offense struct {
	CopName     string       `json:"cop_name" msgpack:"cop"`
	Message     string       `json:"message" msgpack:"msg"`
	Range       ast.Range    `json:"range" msgpack:"range"`
	Position    ast.Position `json:"location" msgpack:"pos"`
	Correctable bool         `json:"correctable" msgpack:"correctable"`
	Corrected   bool         `json:"corrected" msgpack:"corrected"`

	node       *ast.Node
	correction Correction
}

// Node returns the construct the offense was raised for. It is nil for
// offenses restored from a cache.
func (o Offense) Node() *ast.Node { return o.node }

// String renders the offense as "line:col: Cop: message".
func (o Offense) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", o.Position.Line, o.Position.Column+1, o.CopName, o.Message)
}
