package ports

import (
	"context"
	"time"

	"go.trai.ch/protobuild/internal/core/domain"
)

// ResolveOptions control one resolution pass.
type ResolveOptions struct {
	Platform             string
	SafeResolve          bool
	Parallel             bool
	MaxParallel          int
	ContinueOnError      bool
	SkipNestedResolution bool
	Redirects            *domain.PackageRedirectTable
	Retries              int
	RetryDelay           time.Duration

	// Per-package overrides used by install, upgrade and swap.
	PreferSource bool
	ForceBinary  bool
	Force        bool
}

//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks

// PackageResolver materializes a module tree's packages.
type PackageResolver interface {
	// ResolveAll resolves every package declared by module and its submodules.
	ResolveAll(ctx context.Context, module *domain.ModuleInfo, opts ResolveOptions) error

	// Resolve resolves one package declared by parent, then its nested packages.
	Resolve(ctx context.Context, parent *domain.ModuleInfo, ref domain.PackageReference, opts ResolveOptions) error
}

// SubmoduleInvoker resolves a nested module outside the current breadth-first pass.
type SubmoduleInvoker interface {
	Invoke(ctx context.Context, module *domain.ModuleInfo, opts ResolveOptions) error
}
