package domain

import (
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// DefaultGitRef is used when a package reference does not name a branch, tag or commit.
const DefaultGitRef = "master"

// PackageReference identifies a dependency declared by a module.
type PackageReference struct {
	URI      string
	GitRef   string
	Folder   string
	Optional bool
}

// Ref returns the declared git ref or the default.
func (p PackageReference) Ref() string {
	if p.GitRef == "" {
		return DefaultGitRef
	}
	return p.GitRef
}

// Validate checks the reference has a usable URI.
func (p PackageReference) Validate() error {
	if strings.TrimSpace(p.URI) == "" {
		return ErrInvalidPackageURI
	}
	return nil
}

// ArchiveFormat names a package container format.
type ArchiveFormat string

const (
	// FormatTarGzip is a gzip-compressed tar with hard link deduplication.
	FormatTarGzip ArchiveFormat = "tar/gzip"
	// FormatTarLZMA is an LZMA-compressed tar with hard link deduplication.
	FormatTarLZMA ArchiveFormat = "tar/lzma"
	// FormatNuGetZip is a NuGet-compatible zip with index-file deduplication.
	FormatNuGetZip ArchiveFormat = "nuget/zip"
)

// ParseArchiveFormat converts a format name to an ArchiveFormat.
func ParseArchiveFormat(name string) (ArchiveFormat, error) {
	switch ArchiveFormat(strings.ToLower(strings.TrimSpace(name))) {
	case FormatTarGzip, "gzip", "tgz":
		return FormatTarGzip, nil
	case FormatTarLZMA, "lzma", "":
		return FormatTarLZMA, nil
	case FormatNuGetZip, "nuget", "zip", "nupkg":
		return FormatNuGetZip, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrUnsupportedFormat, "unknown archive format"), "format", name)
	}
}

// Extension returns the conventional file extension for the format.
func (f ArchiveFormat) Extension() string {
	switch f {
	case FormatTarGzip:
		return ".tar.gz"
	case FormatNuGetZip:
		return ".nupkg"
	default:
		return ".tar.lzma"
	}
}

// ResolvedPackageMetadata is the result of looking a package up, before anything is fetched.
type ResolvedPackageMetadata struct {
	// Source is the name of the adapter that produced the lookup.
	Source string
	// URI is the effective location after redirects.
	URI      string
	Ref      string
	Platform string
	// Commit is the resolved revision when the source knows it.
	Commit string

	BinaryAvailable bool
	BinaryURI       string
	Format          ArchiveFormat

	SourceAvailable bool
	GitURI          string

	// Pointer is set for local-pointer packages; no content is materialized.
	Pointer string
}

// IsPointer reports whether the package only forwards to another folder.
func (m *ResolvedPackageMetadata) IsPointer() bool {
	return m != nil && m.Pointer != ""
}

// CacheKey identifies an archive in the package cache. URI is the declared, pre-redirect URI.
type CacheKey struct {
	URI      string
	Ref      string
	Platform string
}

// CacheEntry describes an archive held by the package cache.
type CacheEntry struct {
	Key      CacheKey      `json:"key"`
	Path     string        `json:"-"`
	Source   string        `json:"source"`
	Format   ArchiveFormat `json:"format"`
	Commit   string        `json:"commit,omitempty"`
	StoredAt time.Time     `json:"storedAt"`
}

// ResolveMode records how a package folder was materialized.
type ResolveMode string

const (
	// ModeBinary means the folder holds an extracted prebuilt archive.
	ModeBinary ResolveMode = "binary"
	// ModeSource means the folder holds a working copy.
	ModeSource ResolveMode = "source"
)

// PackageMarker is persisted as .pkg in a materialized package folder.
type PackageMarker struct {
	URI      string      `json:"uri"`
	Ref      string      `json:"ref"`
	Platform string      `json:"platform"`
	Mode     ResolveMode `json:"mode"`
	Commit   string      `json:"commit,omitempty"`
}

// Satisfies reports whether the marker already covers a request for key in the given mode.
// An empty mode accepts either.
func (m *PackageMarker) Satisfies(key CacheKey, mode ResolveMode) bool {
	if m == nil {
		return false
	}
	if m.URI != key.URI || m.Ref != key.Ref {
		return false
	}
	if m.Mode == ModeBinary && m.Platform != key.Platform {
		return false
	}
	return mode == "" || m.Mode == mode
}
