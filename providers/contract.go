package providers

import (
	"context"
	"path/filepath"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/providers/catalog"
)

// Provider interface for language-specific parsers
type Provider interface {
	// Metadata
	Language() string
	Extensions() []string
	DefaultIncludes() []string

	// Core operations
	Parse(ctx context.Context, path string, src []byte) (*ast.File, error)
	Validate(ctx context.Context, src []byte) ValidationResult

	// Observability
	Stats() Stats
}

// ValidationResult from syntax check
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Registry manages all providers
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider
func (r *Registry) Register(provider Provider) {
	r.providers[provider.Language()] = provider
	catalog.Register(catalog.LanguageInfo{
		ID:              provider.Language(),
		Extensions:      provider.Extensions(),
		DefaultIncludes: provider.DefaultIncludes(),
	})
}

// Get retrieves provider by language
func (r *Registry) Get(language string) (Provider, bool) {
	p, exists := r.providers[language]
	return p, exists
}

// ForPath picks the provider registered for the file's extension.
func (r *Registry) ForPath(path string) (Provider, bool) {
	info, ok := catalog.LookupByExtension(filepath.Ext(path))
	if !ok {
		return nil, false
	}
	return r.Get(info.ID)
}

// List returns all providers
func (r *Registry) List() []Provider {
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	return result
}

// Stats captures parser-pool level metrics exposed by providers.
type Stats struct {
	BorrowCount int64 `json:"borrow_count"`
	ReturnCount int64 `json:"return_count"`
	Active      int64 `json:"active"`
}
