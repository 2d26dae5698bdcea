package ruby

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"
)

// Config describes the Ruby language to the provider registry.
type Config struct{}

// Language identifier
func (c *Config) Language() string {
	return "ruby"
}

// Extensions supported
func (c *Config) Extensions() []string {
	return []string{".rb", ".rake", ".gemspec"}
}

// DefaultIncludes are the globs inspected when no Include is configured.
func (c *Config) DefaultIncludes() []string {
	return []string{"**/*_spec.rb", "**/spec/**/*.rb"}
}

// GetLanguage returns tree-sitter language for Ruby
func (c *Config) GetLanguage() *sitter.Language {
	return ruby.GetLanguage()
}
