package domain

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// DigestSize is the length in bytes of a content digest (160 bits).
const DigestSize = 20

// Digest is a content hash used to deduplicate file contents.
type Digest [DigestSize]byte

// String returns the lowercase hex form used in _DedupFiles entry names.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest parses the hex form produced by String.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != DigestSize {
		return d, fmt.Errorf("invalid digest %q", s)
	}
	copy(d[:], b)
	return d, nil
}

// DeduplicatorState maps logical archive paths to content, storing each distinct content once.
type DeduplicatorState struct {
	// DestinationToFileHash maps a logical path to its content digest, or nil for directories.
	// Directory paths end in '/'.
	DestinationToFileHash map[string]*Digest
	// FileHashToSource holds exactly one copy of each distinct content.
	FileHashToSource map[Digest][]byte
}

// NewDeduplicatorState returns an empty state.
func NewDeduplicatorState() *DeduplicatorState {
	return &DeduplicatorState{
		DestinationToFileHash: make(map[string]*Digest),
		FileHashToSource:      make(map[Digest][]byte),
	}
}

// IsDirectoryPath reports whether a logical path denotes a directory.
func IsDirectoryPath(p string) bool {
	return strings.HasSuffix(p, "/")
}

// Paths returns every logical path in sorted order.
func (s *DeduplicatorState) Paths() []string {
	paths := make([]string, 0, len(s.DestinationToFileHash))
	for p := range s.DestinationToFileHash {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Directories returns the directory paths in sorted order.
func (s *DeduplicatorState) Directories() []string {
	var dirs []string
	for _, p := range s.Paths() {
		if s.DestinationToFileHash[p] == nil {
			dirs = append(dirs, p)
		}
	}
	return dirs
}

// Files returns the file paths in sorted order.
func (s *DeduplicatorState) Files() []string {
	var files []string
	for _, p := range s.Paths() {
		if s.DestinationToFileHash[p] != nil {
			files = append(files, p)
		}
	}
	return files
}

// Digests returns the distinct content digests sorted by their hex form.
func (s *DeduplicatorState) Digests() []Digest {
	digests := make([]Digest, 0, len(s.FileHashToSource))
	for d := range s.FileHashToSource {
		digests = append(digests, d)
	}
	sort.Slice(digests, func(i, j int) bool {
		return digests[i].String() < digests[j].String()
	})
	return digests
}

// Content returns the bytes stored for a logical file path.
func (s *DeduplicatorState) Content(path string) ([]byte, bool) {
	d, ok := s.DestinationToFileHash[path]
	if !ok || d == nil {
		return nil, false
	}
	data, ok := s.FileHashToSource[*d]
	return data, ok
}

// Validate checks that every referenced digest has content and no content is orphaned.
func (s *DeduplicatorState) Validate() error {
	referenced := make(map[Digest]struct{}, len(s.FileHashToSource))
	for p, d := range s.DestinationToFileHash {
		if d == nil {
			continue
		}
		if _, ok := s.FileHashToSource[*d]; !ok {
			return fmt.Errorf("path %q references missing content %s", p, d)
		}
		referenced[*d] = struct{}{}
	}
	for d := range s.FileHashToSource {
		if _, ok := referenced[d]; !ok {
			return fmt.Errorf("content %s is not referenced by any path", d)
		}
	}
	return nil
}

// Mapping returns the logical path to bytes view of the state, directories mapping to nil.
func (s *DeduplicatorState) Mapping() map[string][]byte {
	out := make(map[string][]byte, len(s.DestinationToFileHash))
	for p, d := range s.DestinationToFileHash {
		if d == nil {
			out[p] = nil
			continue
		}
		out[p] = s.FileHashToSource[*d]
	}
	return out
}
