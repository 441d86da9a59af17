// Package archive writes deduplicated package archives and reads them back as plain file trees.
package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz/lzma"
	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/engine/dedup"
	"go.trai.ch/zerr"
)

// extractedFilePerm keeps the rwx bits tar entries carry, minus group and world write.
const extractedFilePerm = 0o755

// Archiver implements ports.Archiver for tar/gzip, tar/lzma and nuget/zip.
type Archiver struct {
	dedup *dedup.Deduplicator
}

var _ ports.Archiver = (*Archiver)(nil)

// New creates an Archiver. The deduplicator is used when archives are rebuilt, as in Unify.
func New(d *dedup.Deduplicator) *Archiver {
	return &Archiver{dedup: d}
}

// Write serializes state to w in the given format.
func (a *Archiver) Write(format domain.ArchiveFormat, state *domain.DeduplicatorState, w io.Writer, progress ports.ProgressFunc) error {
	if err := state.Validate(); err != nil {
		return zerr.Wrap(domain.ErrDedupIndexInvalid, "refusing to write archive: "+err.Error())
	}

	strategy, finish, err := newStrategy(format, w)
	if err != nil {
		return err
	}
	if err := strategy.Push(state, progress); err != nil {
		_ = finish()
		return err
	}
	if err := finish(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "format", string(format))
	}
	return nil
}

// newStrategy opens the container for format on top of w. finish flushes and closes every layer.
func newStrategy(format domain.ArchiveFormat, w io.Writer) (dedup.ArchiveDeduplicationStrategy, func() error, error) {
	switch format {
	case domain.FormatTarGzip:
		gz := gzip.NewWriter(w)
		tw := tar.NewWriter(gz)
		return dedup.NewTarStrategy(tw), func() error {
			return errors.Join(tw.Close(), gz.Close())
		}, nil
	case domain.FormatTarLZMA:
		lz, err := lzma.NewWriter(w)
		if err != nil {
			return nil, nil, zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error())
		}
		tw := tar.NewWriter(lz)
		return dedup.NewTarStrategy(tw), func() error {
			return errors.Join(tw.Close(), lz.Close())
		}, nil
	case domain.FormatNuGetZip:
		zw := zip.NewWriter(w)
		return dedup.NewZipStrategy(zw), zw.Close, nil
	default:
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "cannot write archive"), "format", string(format))
	}
}

// WriteFile writes the archive to path. path is replaced only when the whole archive was written.
func (a *Archiver) WriteFile(p string, format domain.ArchiveFormat, state *domain.DeduplicatorState, progress ports.ProgressFunc) error {
	var buf bytes.Buffer
	if err := a.Write(format, state, &buf, progress); err != nil {
		return zerr.With(err, "path", p)
	}
	if err := fs.AtomicWriteFile(p, buf.Bytes(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "path", p)
	}
	return nil
}

// Read returns the logical path to content mapping held in data, resolving hard links and the
// zip dedup index. Directories map to nil and keep their trailing '/'.
func (a *Archiver) Read(data []byte) (map[string][]byte, error) {
	format, err := detect(data)
	if err != nil {
		return nil, err
	}

	switch format {
	case domain.FormatNuGetZip:
		return readZip(data)
	case domain.FormatTarGzip:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrArchiveReadFailed.Error())
		}
		defer gz.Close() //nolint:errcheck // Reader close has nothing to flush
		return readTar(gz)
	default:
		lz, err := lzma.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrArchiveReadFailed.Error())
		}
		return readTar(lz)
	}
}

// ReadFile reads the archive at p.
func (a *Archiver) ReadFile(p string) (map[string][]byte, error) {
	data, err := os.ReadFile(p) //nolint:gosec // Archive paths come from the cache or the command line
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", p)
	}
	entries, err := a.Read(data)
	if err != nil {
		return nil, zerr.With(err, "path", p)
	}
	return entries, nil
}

// Detect sniffs the format of the archive at p.
func (a *Archiver) Detect(p string) (domain.ArchiveFormat, error) {
	data, err := os.ReadFile(p) //nolint:gosec // Archive paths come from the cache or the command line
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", p)
	}
	format, err := detect(data)
	if err != nil {
		return "", zerr.With(err, "path", p)
	}
	return format, nil
}

// Extract unpacks the archive at p into dest. For nuget/zip archives built by Pack only the
// content under protobuild/<platform>/ is written, with that prefix removed. Plain feed packages
// are written in their lib/, tools/ and content/ layout without the package metadata.
func (a *Archiver) Extract(ctx context.Context, p, dest, platform string) error {
	data, err := os.ReadFile(p) //nolint:gosec // Archive paths come from the cache or the command line
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", p)
	}
	format, err := detect(data)
	if err != nil {
		return zerr.With(err, "path", p)
	}
	entries, err := a.Read(data)
	if err != nil {
		return zerr.With(err, "path", p)
	}

	if format == domain.FormatNuGetZip {
		if hasNamespace(entries) {
			entries = platformContent(entries, platform)
		} else {
			entries = feedContent(entries)
		}
		if len(entries) == 0 {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrEmptyPackage, "nothing to extract"), "path", p), "platform", platform)
		}
	}

	return writeTree(ctx, entries, dest)
}

func hasNamespace(entries map[string][]byte) bool {
	for name := range entries {
		if strings.HasPrefix(name, domain.NuGetNamespace) {
			return true
		}
	}
	return false
}

// platformContent keeps the entries below protobuild/<platform>/ and strips that prefix.
func platformContent(entries map[string][]byte, platform string) map[string][]byte {
	prefix := domain.NuGetNamespace + platform + "/"
	out := make(map[string][]byte)
	for name, data := range entries {
		rel, ok := strings.CutPrefix(name, prefix)
		if !ok || rel == "" {
			continue
		}
		out[rel] = data
	}
	return out
}

// feedContent drops the OPC and nuspec metadata of a package downloaded from a feed.
func feedContent(entries map[string][]byte) map[string][]byte {
	out := make(map[string][]byte)
	for name, data := range entries {
		if isMetadataEntry(name) || strings.HasPrefix(name, "_rels/") || strings.HasPrefix(name, "package/") {
			continue
		}
		out[name] = data
	}
	return out
}

// writeTree materializes entries under dest. Entries that would land outside dest are refused
// before anything is written.
func writeTree(ctx context.Context, entries map[string][]byte, dest string) error {
	targets := make(map[string]string, len(entries))
	for name := range entries {
		target, err := safeJoin(dest, name)
		if err != nil {
			return err
		}
		targets[name] = target
	}

	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "path", dest)
	}

	for name, data := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		target := targets[name]
		if domain.IsDirectoryPath(name) {
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "path", target)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "path", target)
		}
		if err := os.WriteFile(target, data, extractedFilePerm); err != nil { //nolint:gosec // Archive content may contain executables
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "path", target)
		}
	}
	return nil
}

// safeJoin resolves an archive entry name below dest.
func safeJoin(dest, name string) (string, error) {
	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "refusing to extract"), "entry", name)
	}
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return "", zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "refusing to extract"), "entry", name)
		}
	}
	return filepath.Join(dest, filepath.FromSlash(path.Clean(slashed))), nil
}
