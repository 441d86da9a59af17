// Package manifest reads and writes module manifests (Build/Module.xml) and project definitions.
package manifest

import (
	"encoding/xml"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader implements ports.ManifestLoader on the filesystem.
type Loader struct{}

var _ ports.ManifestLoader = (*Loader)(nil)

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the manifest and project definitions of the module rooted at dir.
func (l *Loader) Load(dir string) (*domain.ModuleInfo, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve module path"), "path", dir)
	}

	doc, err := readModuleDoc(root)
	if err != nil {
		return nil, err
	}

	module := &domain.ModuleInfo{
		Name:          doc.Name,
		Path:          root,
		DefaultAction: doc.DefaultAction,
	}
	if module.Name == "" {
		module.Name = filepath.Base(root)
	}
	if doc.Packages != nil {
		for _, p := range doc.Packages.Items {
			module.Packages = append(module.Packages, domain.PackageReference{
				URI:      strings.TrimSpace(p.URI),
				GitRef:   strings.TrimSpace(p.GitRef),
				Folder:   strings.TrimSpace(p.Folder),
				Optional: p.Optional,
			})
		}
	}

	module.Definitions, err = loadDefinitions(root)
	if err != nil {
		return nil, err
	}
	return module, nil
}

func readModuleDoc(root string) (*moduleDoc, error) {
	path := domain.ManifestPath(root)
	data, err := os.ReadFile(path) //nolint:gosec // Manifest path is derived from the module root
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrMissingManifest, "cannot load module"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read module manifest"), "path", path)
	}

	var doc moduleDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrManifestParseFailed, err.Error()), "path", path)
	}
	return &doc, nil
}

func loadDefinitions(root string) ([]domain.DefinitionInfo, error) {
	paths, err := filepath.Glob(filepath.Join(domain.ProjectsPath(root), "*"+domain.DefinitionExt))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to list project definitions")
	}
	sort.Strings(paths)

	defs := make([]domain.DefinitionInfo, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // Definition paths come from the module's Projects folder
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to read project definition"), "path", path)
		}

		var doc definitionDoc
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrManifestParseFailed, err.Error()), "path", path)
		}

		def := domain.DefinitionInfo{
			Name:           doc.Name,
			Type:           doc.Type,
			RelativePath:   filepath.ToSlash(doc.Path),
			DefinitionPath: path,
		}
		if def.Name == "" {
			def.Name = strings.TrimSuffix(filepath.Base(path), domain.DefinitionExt)
		}
		if def.Type == "" {
			def.Type = doc.XMLName.Local
		}
		if def.RelativePath == "" {
			def.RelativePath = def.Name
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Save writes module's name, default action and package list to its manifest. Other elements of
// an existing manifest are preserved.
func (l *Loader) Save(module *domain.ModuleInfo) error {
	path := domain.ManifestPath(module.Path)

	doc := &moduleDoc{}
	if existing, err := readModuleDoc(module.Path); err == nil {
		doc = existing
	} else if !errors.Is(err, domain.ErrMissingManifest) {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}

	doc.Name = module.Name
	doc.DefaultAction = module.DefaultAction
	doc.Packages = nil
	if len(module.Packages) > 0 {
		doc.Packages = &packagesDoc{}
		for _, p := range module.Packages {
			doc.Packages.Items = append(doc.Packages.Items, packageDoc{
				URI:      p.URI,
				Folder:   p.Folder,
				GitRef:   p.GitRef,
				Optional: p.Optional,
			})
		}
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}
	data := append([]byte(xml.Header), append(body, '\n')...)

	if err := fs.AtomicWriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}
	return nil
}

// LoadSubmodules fills module.Submodules with the immediate subdirectories that hold a manifest.
// Pointer folders are skipped since their content lives elsewhere in the tree.
func (l *Loader) LoadSubmodules(module *domain.ModuleInfo) error {
	entries, err := os.ReadDir(module.Path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to list submodules"), "path", module.Path)
	}

	module.Submodules = nil
	for _, e := range entries {
		if !e.IsDir() || e.Name() == domain.GitDirName || e.Name() == domain.BuildDirName {
			continue
		}
		child := filepath.Join(module.Path, e.Name())
		if _, ok, _ := fs.ReadRedirect(child); ok {
			continue
		}
		if !domain.HasManifest(child) {
			continue
		}

		sub, err := l.Load(child)
		if err != nil {
			return err
		}
		module.Submodules = append(module.Submodules, sub)
	}
	return nil
}
