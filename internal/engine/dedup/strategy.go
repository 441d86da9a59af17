package dedup

import (
	"archive/tar"
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// ArchiveDeduplicationStrategy writes a DeduplicatorState into one kind of container.
type ArchiveDeduplicationStrategy interface {
	Push(state *domain.DeduplicatorState, progress ports.ProgressFunc) error
}

// TarStrategy stores each content once under _DedupFiles/ and every logical file as a hard link.
type TarStrategy struct {
	tw  *tar.Writer
	now func() time.Time
}

// NewTarStrategy creates a TarStrategy writing to tw.
func NewTarStrategy(tw *tar.Writer) *TarStrategy {
	return &TarStrategy{tw: tw, now: time.Now}
}

// Push writes content entries sorted by digest, then directories, then hard links, each sorted by path.
func (s *TarStrategy) Push(state *domain.DeduplicatorState, progress ports.ProgressFunc) error {
	stamp := s.now().UTC().Truncate(time.Second)
	digests := state.Digests()

	for i, d := range digests {
		data := state.FileHashToSource[d]
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     domain.DedupFilesDir + d.String(),
			Size:     int64(len(data)),
			Mode:     domain.ArchiveEntryMode,
			ModTime:  stamp,
		}
		if err := s.tw.WriteHeader(hdr); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "entry", hdr.Name)
		}
		if _, err := s.tw.Write(data); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "entry", hdr.Name)
		}
		report(progress, i+1, len(digests))
	}

	for _, dir := range state.Directories() {
		hdr := &tar.Header{
			Typeflag: tar.TypeDir,
			Name:     dir,
			Mode:     domain.ArchiveEntryMode,
			ModTime:  stamp,
		}
		if err := s.tw.WriteHeader(hdr); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "entry", dir)
		}
	}

	for _, file := range state.Files() {
		d := state.DestinationToFileHash[file]
		hdr := &tar.Header{
			Typeflag: tar.TypeLink,
			Name:     file,
			Linkname: domain.DedupFilesDir + d.String(),
			Mode:     domain.ArchiveEntryMode,
			ModTime:  stamp,
		}
		if err := s.tw.WriteHeader(hdr); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "entry", file)
		}
	}

	return nil
}

// ZipStrategy writes files outside the protobuild/ namespace in place and replaces duplicate
// namespace files with _DedupIndex.txt lines of the form logical?canonical.
type ZipStrategy struct {
	zw  *zip.Writer
	now func() time.Time
}

// NewZipStrategy creates a ZipStrategy writing to zw.
func NewZipStrategy(zw *zip.Writer) *ZipStrategy {
	return &ZipStrategy{zw: zw, now: time.Now}
}

// Push writes directories and in-place files in path order, then _DedupFiles entries by digest,
// then the index.
func (s *ZipStrategy) Push(state *domain.DeduplicatorState, progress ports.ProgressFunc) error {
	stamp := s.now().UTC().Truncate(time.Second)
	layout := planZip(state)
	total := len(layout.inPlace) + len(layout.stored)
	done := 0

	for _, p := range state.Paths() {
		d := state.DestinationToFileHash[p]
		switch {
		case d == nil:
			if err := s.writeEntry(p, nil, stamp); err != nil {
				return err
			}
		case layout.inPlace[p]:
			if err := s.writeEntry(p, state.FileHashToSource[*d], stamp); err != nil {
				return err
			}
			done++
			report(progress, done, total)
		}
	}

	for _, d := range layout.stored {
		if err := s.writeEntry(domain.DedupFilesDir+d.String(), state.FileHashToSource[d], stamp); err != nil {
			return err
		}
		done++
		report(progress, done, total)
	}

	if len(layout.index) > 0 {
		if err := s.writeEntry(domain.DedupIndexName, []byte(strings.Join(layout.index, "\n")+"\n"), stamp); err != nil {
			return err
		}
	}

	return nil
}

func (s *ZipStrategy) writeEntry(name string, data []byte, stamp time.Time) error {
	hdr := &zip.FileHeader{
		Name:     name,
		Modified: stamp,
		Method:   zip.Deflate,
	}
	if strings.HasSuffix(name, "/") {
		hdr.Method = zip.Store
	}

	w, err := s.zw.CreateHeader(hdr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "entry", name)
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "entry", name)
	}
	return nil
}

type zipLayout struct {
	inPlace map[string]bool
	stored  []domain.Digest
	index   []string
}

// planZip decides, for every file, whether it is written in place or indexed.
func planZip(state *domain.DeduplicatorState) zipLayout {
	layout := zipLayout{inPlace: make(map[string]bool)}
	canonical := make(map[domain.Digest]string)
	files := state.Files()

	for _, p := range files {
		if strings.HasPrefix(p, domain.NuGetNamespace) {
			continue
		}
		d := *state.DestinationToFileHash[p]
		layout.inPlace[p] = true
		if _, ok := canonical[d]; !ok {
			canonical[d] = p
		}
	}

	for _, p := range files {
		if !strings.HasPrefix(p, domain.NuGetNamespace) {
			continue
		}
		d := *state.DestinationToFileHash[p]
		target, ok := canonical[d]
		if !ok {
			target = domain.DedupFilesDir + d.String()
			canonical[d] = target
			layout.stored = append(layout.stored, d)
		}
		layout.index = append(layout.index, p+"?"+target)
	}

	sort.Slice(layout.stored, func(i, j int) bool {
		return layout.stored[i].String() < layout.stored[j].String()
	})
	return layout
}

// PushToTar writes state to tw with hard link deduplication.
func (d *Deduplicator) PushToTar(state *domain.DeduplicatorState, tw *tar.Writer, progress ports.ProgressFunc) error {
	return NewTarStrategy(tw).Push(state, progress)
}

// PushToZip writes state to zw with index-file deduplication.
func (d *Deduplicator) PushToZip(state *domain.DeduplicatorState, zw *zip.Writer, progress ports.ProgressFunc) error {
	return NewZipStrategy(zw).Push(state, progress)
}

// IndexText renders the _DedupIndex.txt that PushToZip would write for state.
func IndexText(state *domain.DeduplicatorState) string {
	layout := planZip(state)
	if len(layout.index) == 0 {
		return ""
	}
	var b bytes.Buffer
	for _, line := range layout.index {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func report(progress ports.ProgressFunc, done, total int) {
	if progress != nil {
		progress(done, total)
	}
}
