// Package source implements the package source adapters and the registry that selects them.
package source

import (
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// Registry selects the first source that accepts a URI.
type Registry struct {
	sources []ports.Source
}

var _ ports.SourceRegistry = (*Registry)(nil)

// NewRegistry creates a Registry consulting sources in order.
func NewRegistry(sources ...ports.Source) *Registry {
	return &Registry{sources: sources}
}

// NewDefaultRegistry wires every built-in source in precedence order.
func NewDefaultRegistry(client HTTPDoer) *Registry {
	git := NewGitSource()
	return NewRegistry(
		NewPointerSource(),
		NewLocalGitSource(),
		NewNuGetSource(client),
		git,
		NewArchiveURLSource(client),
		NewIndexSource(client, git),
		NewLocalSource(),
	)
}

// For returns the source for uri.
func (r *Registry) For(uri string) (ports.Source, error) {
	for _, s := range r.sources {
		if s.Accepts(uri) {
			return s, nil
		}
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrNoSourceForURI, "cannot resolve package"), "uri", uri)
}
