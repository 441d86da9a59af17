package fs

import (
	"os"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// Verifier checks the structural requirements of a module folder.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyModule checks that root has Build/Module.xml and a Build/Projects directory.
func (v *Verifier) VerifyModule(root string) error {
	manifest := domain.ManifestPath(root)
	info, err := os.Stat(manifest)
	if err != nil || info.IsDir() {
		return zerr.With(zerr.Wrap(domain.ErrMissingManifest, "module folder is not packageable"), "path", manifest)
	}

	projects := domain.ProjectsPath(root)
	info, err = os.Stat(projects)
	if err != nil || !info.IsDir() {
		return zerr.With(zerr.Wrap(domain.ErrMissingProjects, "module folder is not packageable"), "path", projects)
	}

	return nil
}
