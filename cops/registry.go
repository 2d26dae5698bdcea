// Package cops registers the built-in cops and builds the set a run uses
// from configuration.
package cops

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/rspecfx/config"
	"github.com/oxhq/rspecfx/cop"
	"github.com/oxhq/rspecfx/cops/rspec"
	"github.com/oxhq/rspecfx/cops/rspec/factorybot"
)

// Entry describes a built-in cop.
type Entry struct {
	Name        string
	Description string
	Defaults    config.CopConfig
	New         func(cc config.CopConfig, lang *rspec.Language) (cop.Cop, error)
}

var registry = []Entry{
	{
		Name:        "FactoryBot/CreateList",
		Description: "Checks for create_list usage.",
		Defaults: config.CopConfig{
			EnforcedStyle:   factorybot.StyleCreateList,
			SupportedStyles: []string{factorybot.StyleCreateList, factorybot.StyleNTimes},
		},
		New: func(cc config.CopConfig, _ *rspec.Language) (cop.Cop, error) {
			style, err := cc.Style()
			if err != nil {
				return nil, err
			}
			return factorybot.NewCreateList(style)
		},
	},
	{
		Name:        "RSpec/ContainExactly",
		Description: "Prefer `match_array` when matching array values.",
		New: func(config.CopConfig, *rspec.Language) (cop.Cop, error) {
			return rspec.NewContainExactly(), nil
		},
	},
	{
		Name:        "RSpec/ExampleWithoutExpectation",
		Description: "Checks if an example contains any expectation.",
		New: func(_ config.CopConfig, lang *rspec.Language) (cop.Cop, error) {
			return rspec.NewExampleWithoutExpectation(lang), nil
		},
	},
	{
		Name:        "RSpec/LetBeforeExamples",
		Description: "Checks for `let` definitions that come after an example.",
		New: func(_ config.CopConfig, lang *rspec.Language) (cop.Cop, error) {
			return rspec.NewLetBeforeExamples(lang), nil
		},
	},
	{
		Name:        "RSpec/MatchArray",
		Description: "Prefer `contain_exactly` when matching an array literal.",
		New: func(config.CopConfig, *rspec.Language) (cop.Cop, error) {
			return rspec.NewMatchArray(), nil
		},
	},
}

// Registry returns the built-in cops sorted by name.
func Registry() []Entry {
	out := slices.Clone(registry)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the names of the built-in cops.
func Names() []string {
	entries := Registry()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Lookup finds a built-in cop by name.
func Lookup(name string) (Entry, bool) {
	for _, e := range registry {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Selection narrows a run to some cops. Only wins over Enabled flags.
type Selection struct {
	Only   []string
	Except []string
}

type configured struct {
	cop     cop.Cop
	exclude []string
}

// Set is the configured cops of a run. Cops are immutable and shared by
// every file.
type Set struct {
	cops []configured
}

// Build instantiates the cops cfg enables, narrowed by sel.
func Build(cfg *config.Config, sel Selection) (*Set, error) {
	names := Names()
	if err := cfg.CheckCops(names); err != nil {
		return nil, err
	}
	for _, name := range append(slices.Clone(sel.Only), sel.Except...) {
		if !slices.Contains(names, name) {
			return nil, fmt.Errorf("%w: %s", config.ErrUnknownCop, name)
		}
	}

	lang, err := rspec.NewLanguage(cfg.RSpec.Language)
	if err != nil {
		return nil, err
	}

	set := &Set{}
	for _, e := range Registry() {
		cc := cfg.Cop(e.Name, e.Defaults)
		if !selected(e.Name, cc, sel) {
			continue
		}
		c, err := e.New(cc, lang)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		set.cops = append(set.cops, configured{cop: c, exclude: cc.Exclude})
	}
	return set, nil
}

func selected(name string, cc config.CopConfig, sel Selection) bool {
	if slices.Contains(sel.Except, name) {
		return false
	}
	if len(sel.Only) > 0 {
		return slices.Contains(sel.Only, name)
	}
	return cc.IsEnabled()
}

// Cops returns every cop of the set.
func (s *Set) Cops() []cop.Cop {
	out := make([]cop.Cop, len(s.cops))
	for i, c := range s.cops {
		out[i] = c.cop
	}
	return out
}

// Names returns the names of the cops in the set.
func (s *Set) Names() []string {
	out := make([]string, len(s.cops))
	for i, c := range s.cops {
		out[i] = c.cop.Name()
	}
	return out
}

// ForFile returns the cops whose Exclude patterns do not match path.
func (s *Set) ForFile(path string) []cop.Cop {
	var out []cop.Cop
	for _, c := range s.cops {
		if excluded(c.exclude, path) {
			continue
		}
		out = append(out, c.cop)
	}
	return out
}

func excluded(patterns []string, path string) bool {
	path = filepath.ToSlash(path)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
