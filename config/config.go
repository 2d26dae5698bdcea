package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownStyle is returned for an EnforcedStyle a cop does not support.
	ErrUnknownStyle = errors.New("unknown EnforcedStyle")
	// ErrUnknownCop is returned for configuration naming a cop that does not exist.
	ErrUnknownCop = errors.New("unknown cop")
)

// Config is the full run configuration. The layout mirrors RuboCop's: global
// settings under AllCops, the RSpec DSL vocabulary under RSpec.Language and
// one section per cop keyed by its name.
type Config struct {
	AllCops AllCops              `yaml:"AllCops"`
	RSpec   RSpec                `yaml:"RSpec"`
	Cops    map[string]CopConfig `yaml:",inline"`
}

// AllCops holds settings shared by every cop.
type AllCops struct {
	Include []string `yaml:"Include,omitempty"`
	Exclude []string `yaml:"Exclude,omitempty"`
}

// RSpec configures the DSL method names the cops recognize.
type RSpec struct {
	Language Language `yaml:"Language"`
}

// Language lists the method names of each RSpec DSL category.
type Language struct {
	ExampleGroups []string `yaml:"ExampleGroups,omitempty"`
	SharedGroups  []string `yaml:"SharedGroups,omitempty"`
	Examples      []string `yaml:"Examples,omitempty"`
	Includes      []string `yaml:"Includes,omitempty"`
	Expectations  []string `yaml:"Expectations,omitempty"`
}

// CopConfig is one cop's section.
type CopConfig struct {
	Description     string   `yaml:"Description,omitempty"`
	Enabled         *bool    `yaml:"Enabled,omitempty"`
	EnforcedStyle   string   `yaml:"EnforcedStyle,omitempty"`
	SupportedStyles []string `yaml:"SupportedStyles,omitempty"`
	Exclude         []string `yaml:"Exclude,omitempty"`
}

// IsEnabled reports the Enabled flag, true when unset.
func (c CopConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Style validates EnforcedStyle against SupportedStyles and returns it.
func (c CopConfig) Style() (string, error) {
	if len(c.SupportedStyles) == 0 {
		return c.EnforcedStyle, nil
	}
	if c.EnforcedStyle == "" {
		return c.SupportedStyles[0], nil
	}
	if !slices.Contains(c.SupportedStyles, c.EnforcedStyle) {
		return "", fmt.Errorf("%w %q (supported: %s)", ErrUnknownStyle,
			c.EnforcedStyle, strings.Join(c.SupportedStyles, ", "))
	}
	return c.EnforcedStyle, nil
}

// Bool returns a pointer to v, for building CopConfig literals.
func Bool(v bool) *bool { return &v }

// DefaultLanguage is the RSpec vocabulary used when none is configured.
func DefaultLanguage() Language {
	return Language{
		ExampleGroups: []string{
			"describe", "context", "feature", "example_group",
			"xdescribe", "xcontext", "xfeature",
			"fdescribe", "fcontext", "ffeature",
		},
		SharedGroups: []string{"shared_examples", "shared_examples_for", "shared_context"},
		Examples: []string{
			"it", "specify", "example", "scenario", "its",
			"fit", "fspecify", "fexample", "fscenario", "focus",
			"xit", "xspecify", "xexample", "xscenario", "skip",
			"pending",
		},
		Includes:     []string{"it_behaves_like", "it_should_behave_like", "include_examples"},
		Expectations: []string{"expect", "is_expected", "expect_any_instance_of"},
	}
}

// DefaultConfig returns the built-in configuration without cop sections;
// cop defaults are merged in by the cop registry.
func DefaultConfig() *Config {
	return &Config{
		AllCops: AllCops{
			Exclude: []string{"vendor/**", "node_modules/**", ".git/**", "tmp/**"},
		},
		RSpec: RSpec{Language: DefaultLanguage()},
		Cops:  make(map[string]CopConfig),
	}
}

// Cop returns the section for name, falling back to the given defaults field
// by field.
func (c *Config) Cop(name string, defaults CopConfig) CopConfig {
	user, ok := c.Cops[name]
	if !ok {
		return defaults
	}
	merged := defaults
	if user.Description != "" {
		merged.Description = user.Description
	}
	if user.Enabled != nil {
		merged.Enabled = user.Enabled
	}
	if user.EnforcedStyle != "" {
		merged.EnforcedStyle = user.EnforcedStyle
	}
	if len(user.SupportedStyles) > 0 {
		merged.SupportedStyles = user.SupportedStyles
	}
	if len(user.Exclude) > 0 {
		merged.Exclude = user.Exclude
	}
	return merged
}

// CheckCops fails with ErrUnknownCop when a section names a cop outside
// known.
func (c *Config) CheckCops(known []string) error {
	var unknown []string
	for name := range c.Cops {
		if !slices.Contains(known, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s", ErrUnknownCop, strings.Join(unknown, ", "))
}

// merge overlays user onto c. Lists replace lists; cop sections are merged
// field by field later through Cop.
func (c *Config) merge(user *Config) {
	if len(user.AllCops.Include) > 0 {
		c.AllCops.Include = user.AllCops.Include
	}
	if len(user.AllCops.Exclude) > 0 {
		c.AllCops.Exclude = user.AllCops.Exclude
	}

	lang := &c.RSpec.Language
	over := user.RSpec.Language
	if len(over.ExampleGroups) > 0 {
		lang.ExampleGroups = over.ExampleGroups
	}
	if len(over.SharedGroups) > 0 {
		lang.SharedGroups = over.SharedGroups
	}
	if len(over.Examples) > 0 {
		lang.Examples = over.Examples
	}
	if len(over.Includes) > 0 {
		lang.Includes = over.Includes
	}
	if len(over.Expectations) > 0 {
		lang.Expectations = over.Expectations
	}

	for name, cop := range user.Cops {
		c.Cops[name] = cop
	}
}

// Digest fingerprints the configuration for result caching.
func (c *Config) Digest() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
