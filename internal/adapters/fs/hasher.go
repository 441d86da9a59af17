// Package fs provides file system adapters for hashing, walking and package folder markers.
package fs

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes 160-bit BLAKE3 content digests and xxhash cache keys.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash consumes r once and returns the first 160 bits of its BLAKE3 sum.
func (h *Hasher) Hash(r io.Reader) (domain.Digest, error) {
	var d domain.Digest

	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return d, zerr.Wrap(err, domain.ErrFileHashFailed.Error())
	}

	copy(d[:], hasher.Sum(nil))
	return d, nil
}

// HashFile computes the content digest of the file at path.
func (h *Hasher) HashFile(path string) (domain.Digest, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return domain.Digest{}, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	d, err := h.Hash(f)
	if err != nil {
		return d, zerr.With(err, "path", path)
	}
	return d, nil
}

// Key returns the xxhash of the NUL-separated parts as 16 hex digits.
func (h *Hasher) Key(parts ...string) string {
	hasher := xxhash.New()
	for _, p := range parts {
		_, _ = hasher.WriteString(p)
		_, _ = hasher.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", hasher.Sum64())
}
