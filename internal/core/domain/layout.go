package domain

import (
	"os"
	"path/filepath"
)

const (
	// BuildDirName is the folder inside every module that holds its configuration.
	BuildDirName = "Build"

	// ModuleFileName is the module manifest inside the Build folder.
	ModuleFileName = "Module.xml"

	// ProjectsDirName is the project definition folder inside the Build folder.
	ProjectsDirName = "Projects"

	// DefinitionExt is the file extension of project definitions.
	DefinitionExt = ".definition"

	// GitDirName is version control metadata preserved across cleanups.
	GitDirName = ".git"

	// PackageMarkerName records what was materialized in a package folder.
	PackageMarkerName = ".pkg"

	// RedirectMarkerName holds the relative path a pointer folder forwards to.
	RedirectMarkerName = ".redirect"

	// DedupFilesDir is the reserved archive namespace for content-addressed entries.
	DedupFilesDir = "_DedupFiles/"

	// DedupIndexName lists logical?canonical pairs inside zip archives.
	DedupIndexName = "_DedupIndex.txt"

	// PointerScheme prefixes URIs that forward a package folder to another folder.
	PointerScheme = "local-pointer://"

	// NuGetNamespace is the reserved zip prefix holding per-platform module content.
	NuGetNamespace = "protobuild/"

	// SettingsFileName is the optional settings file looked up in the working directory.
	SettingsFileName = "protobuild.yaml"

	// CacheEnvVar overrides the package cache location.
	CacheEnvVar = "PROTOBUILD_CACHE_DIR"

	// ParallelEnvVar overrides parallel resolution ("0" or "false" disables it).
	ParallelEnvVar = "PROTOBUILD_PARALLEL"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// ArchiveEntryMode is the permission stored on every tar entry (rwxrwxrwx).
	ArchiveEntryMode = 0o777
)

// ManifestPath returns the path of the module manifest under root.
func ManifestPath(root string) string {
	return filepath.Join(root, BuildDirName, ModuleFileName)
}

// ProjectsPath returns the path of the project definition folder under root.
func ProjectsPath(root string) string {
	return filepath.Join(root, BuildDirName, ProjectsDirName)
}

// HasManifest reports whether root contains Build/Module.xml.
func HasManifest(root string) bool {
	info, err := os.Stat(ManifestPath(root))
	return err == nil && !info.IsDir()
}

// DefaultCachePath returns the package cache directory, honoring PROTOBUILD_CACHE_DIR.
func DefaultCachePath() string {
	if dir := os.Getenv(CacheEnvVar); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "protobuild", "packages")
	}
	return filepath.Join(os.TempDir(), "protobuild", "packages")
}
