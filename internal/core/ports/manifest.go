package ports

import "go.trai.ch/protobuild/internal/core/domain"

// ManifestLoader reads and writes module manifests.
//
//go:generate mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type ManifestLoader interface {
	// Load reads Build/Module.xml and the project definitions under dir.
	Load(dir string) (*domain.ModuleInfo, error)

	// Save writes the module's package list back to its manifest.
	Save(module *domain.ModuleInfo) error

	// LoadSubmodules fills module.Submodules from subdirectories holding a manifest.
	LoadSubmodules(module *domain.ModuleInfo) error
}
