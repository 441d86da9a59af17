// Package dedup builds content-addressed archive layouts in which each distinct file
// content is stored once and referenced from every logical path that carries it.
package dedup

import (
	"bytes"
	"os"
	"path"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// Deduplicator records files into a DeduplicatorState.
type Deduplicator struct {
	hasher ports.Hasher
}

// New creates a Deduplicator that hashes content with hasher.
func New(hasher ports.Hasher) *Deduplicator {
	return &Deduplicator{hasher: hasher}
}

// CreateState returns an empty state.
func (d *Deduplicator) CreateState() *domain.DeduplicatorState {
	return domain.NewDeduplicatorState()
}

// AddDirectory records a directory marker for dest. Adding the same directory twice is a no-op.
func (d *Deduplicator) AddDirectory(state *domain.DeduplicatorState, dest string) {
	p := normalize(dest)
	if p == "" {
		return
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	if _, ok := state.DestinationToFileHash[p]; ok {
		return
	}
	state.DestinationToFileHash[p] = nil
}

// AddFile reads sourcePath and records it at dest. The first write to dest wins and later
// calls for the same dest do not read or hash anything.
func (d *Deduplicator) AddFile(state *domain.DeduplicatorState, sourcePath, dest string) error {
	p := normalize(dest)
	if _, ok := state.DestinationToFileHash[p]; ok {
		return nil
	}

	data, err := os.ReadFile(sourcePath) //nolint:gosec // Source files are chosen by the packer
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", sourcePath)
	}
	return d.record(state, data, p)
}

// AddBytes records generated content at dest with the same first-write-wins rule as AddFile.
func (d *Deduplicator) AddBytes(state *domain.DeduplicatorState, data []byte, dest string) error {
	p := normalize(dest)
	if _, ok := state.DestinationToFileHash[p]; ok {
		return nil
	}
	return d.record(state, data, p)
}

func (d *Deduplicator) record(state *domain.DeduplicatorState, data []byte, p string) error {
	digest, err := d.hasher.Hash(bytes.NewReader(data))
	if err != nil {
		return zerr.With(err, "path", p)
	}

	if _, known := state.FileHashToSource[digest]; !known {
		state.FileHashToSource[digest] = data
	}
	state.DestinationToFileHash[p] = &digest
	return nil
}

// normalize turns a destination into a slash-separated path without a leading slash.
// A trailing slash is kept so directory paths stay recognizable.
func normalize(dest string) string {
	p := strings.ReplaceAll(dest, "\\", "/")
	dir := strings.HasSuffix(p, "/")
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if dir && p != "" {
		p += "/"
	}
	return p
}
