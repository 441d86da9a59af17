package ports

import (
	"context"

	"go.trai.ch/protobuild/internal/core/domain"
)

// ProgressFunc is called synchronously as long operations advance.
type ProgressFunc func(done, total int)

// Archiver writes, reads and extracts package archives.
//
//go:generate mockgen -source=archive.go -destination=mocks/mock_archive.go -package=mocks
type Archiver interface {
	// WriteFile writes state to path in format, replacing path only on success.
	WriteFile(path string, format domain.ArchiveFormat, state *domain.DeduplicatorState, progress ProgressFunc) error

	// ReadFile returns the logical path to content mapping of the archive at path.
	ReadFile(path string) (map[string][]byte, error)

	// Detect sniffs the format of the archive at path.
	Detect(path string) (domain.ArchiveFormat, error)

	// Extract unpacks the archive at path into dest. NuGet archives only yield the platform's content.
	Extract(ctx context.Context, path, dest, platform string) error

	// Unify merges single-platform nuget/zip packages into one multi-platform package.
	Unify(ctx context.Context, output string, inputs []string) error
}
