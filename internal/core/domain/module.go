package domain

import "path/filepath"

// DefinitionInfo describes one project definition under Build/Projects.
type DefinitionInfo struct {
	Name string
	Type string
	// RelativePath is the project folder relative to the module root.
	RelativePath string
	// DefinitionPath is the absolute path of the .definition file.
	DefinitionPath string
}

// ModuleInfo is a node in the module tree loaded from Build/Module.xml.
type ModuleInfo struct {
	Name          string
	Path          string
	DefaultAction string
	Packages      []PackageReference
	Definitions   []DefinitionInfo
	// Submodules is filled lazily by the manifest loader.
	Submodules []*ModuleInfo
}

// AddPackage appends ref unless a package with the same URI is already declared.
// It reports whether the package was added.
func (m *ModuleInfo) AddPackage(ref PackageReference) bool {
	if m.FindPackage(ref.URI) != nil {
		return false
	}
	m.Packages = append(m.Packages, ref)
	return true
}

// FindPackage returns the declared package with the given URI, or nil.
func (m *ModuleInfo) FindPackage(uri string) *PackageReference {
	for i := range m.Packages {
		if m.Packages[i].URI == uri {
			return &m.Packages[i]
		}
	}
	return nil
}

// RemovePackage drops the package with the given URI and reports whether it existed.
func (m *ModuleInfo) RemovePackage(uri string) bool {
	for i := range m.Packages {
		if m.Packages[i].URI == uri {
			m.Packages = append(m.Packages[:i], m.Packages[i+1:]...)
			return true
		}
	}
	return false
}

// PackageFolder returns the absolute folder a package materializes into.
func (m *ModuleInfo) PackageFolder(ref PackageReference) string {
	return filepath.Join(m.Path, filepath.FromSlash(ref.Folder))
}
