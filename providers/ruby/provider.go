// Package ruby parses Ruby source with tree-sitter and lowers the concrete
// syntax tree into the ast package's parser-gem style nodes.
package ruby

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/providers"
)

// Provider parses Ruby files. It is safe for concurrent use; each Parse
// borrows a tree-sitter parser from a pool.
type Provider struct {
	config *Config
	pool   sync.Pool

	borrowed atomic.Int64
	returned atomic.Int64
}

// New creates a Ruby provider.
func New() *Provider {
	config := &Config{}
	lang := config.GetLanguage()
	if lang == nil {
		panic(fmt.Sprintf("Failed to load %s language for tree-sitter", config.Language()))
	}

	p := &Provider{
		config: config,
	}
	p.pool.New = func() any {
		parser := sitter.NewParser()
		parser.SetLanguage(lang)
		return parser
	}
	return p
}

// Language returns language identifier
func (p *Provider) Language() string { return p.config.Language() }

// Extensions returns supported file extensions
func (p *Provider) Extensions() []string { return p.config.Extensions() }

// DefaultIncludes returns the globs inspected when none are configured.
func (p *Provider) DefaultIncludes() []string { return p.config.DefaultIncludes() }

// Parse builds the syntax tree of src. Source with syntax errors is rejected
// with a *SyntaxError wrapping ErrSyntax. Every call returns a fresh tree;
// the provider keeps nothing once Parse returns.
func (p *Provider) Parse(ctx context.Context, path string, src []byte) (*ast.File, error) {
	parser := p.borrow()
	tree, err := parser.ParseCtx(ctx, nil, src)
	p.release(parser)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree produced", path)
	}
	defer tree.Close()

	source := ast.NewSource(path, string(src))
	root := tree.RootNode()
	if root.HasError() {
		var positions []ast.Position
		findErrors(root, source, &positions)
		if len(positions) == 0 {
			positions = append(positions, source.Position(0))
		}
		return nil, &SyntaxError{Path: path, Positions: positions}
	}

	return lowerFile(root, source), nil
}

// Validate checks syntax
func (p *Provider) Validate(ctx context.Context, src []byte) providers.ValidationResult {
	parser := p.borrow()
	defer p.release(parser)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil || tree == nil {
		return providers.ValidationResult{
			Valid:  false,
			Errors: []string{"Failed to parse source"},
		}
	}
	defer tree.Close()

	source := ast.NewSource("", string(src))
	var positions []ast.Position
	findErrors(tree.RootNode(), source, &positions)

	errs := make([]string, 0, len(positions))
	for _, pos := range positions {
		errs = append(errs, fmt.Sprintf("Syntax error at line %d, column %d", pos.Line, pos.Column+1))
	}
	return providers.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Stats reports parser pool usage.
func (p *Provider) Stats() providers.Stats {
	borrowed := p.borrowed.Load()
	returned := p.returned.Load()
	return providers.Stats{
		BorrowCount: borrowed,
		ReturnCount: returned,
		Active:      borrowed - returned,
	}
}

func (p *Provider) borrow() *sitter.Parser {
	p.borrowed.Add(1)
	return p.pool.Get().(*sitter.Parser)
}

func (p *Provider) release(parser *sitter.Parser) {
	parser.Reset()
	p.pool.Put(parser)
	p.returned.Add(1)
}
