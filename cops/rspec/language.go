// Package rspec holds the cops of the RSpec department.
package rspec

import (
	"fmt"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/config"
	"github.com/oxhq/rspecfx/pattern"
)

// receiver matches an implicit receiver or the RSpec constant.
const receiver = "{nil? (const nil? :RSpec)}"

// Language recognizes the RSpec DSL calls named by the configuration.
type Language struct {
	example        *pattern.Pattern
	group          *pattern.Pattern
	exampleOrGroup *pattern.Pattern
	expectation    *pattern.Pattern
}

// NewLanguage compiles the matchers for lang.
func NewLanguage(lang config.Language) (*Language, error) {
	groups := append(append([]string(nil), lang.ExampleGroups...), lang.SharedGroups...)
	// Shared group definitions are groups to inspect, not examples that
	// were seen: only their inclusions count.
	both := append(append([]string(nil), lang.Examples...), lang.ExampleGroups...)

	sources := map[**pattern.Pattern]string{}
	l := &Language{}
	sources[&l.example] = blockPattern(lang.Examples)
	sources[&l.group] = blockPattern(groups)
	sources[&l.exampleOrGroup] = fmt.Sprintf("{%s %s %s}",
		blockPattern(both), sendPattern(lang.Includes), blockPattern(lang.Includes))
	sources[&l.expectation] = sendPattern(lang.Expectations)

	for dst, src := range sources {
		p, err := pattern.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("rspec language: %w", err)
		}
		*dst = p
	}
	return l, nil
}

// DefaultLanguage is the language of an unconfigured run.
func DefaultLanguage() *Language {
	l, err := NewLanguage(config.DefaultLanguage())
	if err != nil {
		panic(err)
	}
	return l
}

func sendPattern(names []string) string {
	return fmt.Sprintf("(send %s %s ...)", receiver, pattern.SymbolSet(names))
}

func blockPattern(names []string) string {
	return fmt.Sprintf("(block %s ...)", sendPattern(names))
}

// IsExample reports an example block such as `it { ... }`.
func (l *Language) IsExample(n *ast.Node) bool { return l.example.Matches(n) }

// IsExampleGroup reports a group block, shared groups included.
func (l *Language) IsExampleGroup(n *ast.Node) bool { return l.group.Matches(n) }

// IsExampleOrGroup reports an example, a nested group or a shared example
// inclusion. Shared group definitions do not count.
func (l *Language) IsExampleOrGroup(n *ast.Node) bool { return l.exampleOrGroup.Matches(n) }

// IsExpectation reports an expectation call such as `expect(x)`.
func (l *Language) IsExpectation(n *ast.Node) bool { return l.expectation.Matches(n) }
