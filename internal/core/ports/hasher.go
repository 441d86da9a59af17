package ports

import (
	"io"

	"go.trai.ch/protobuild/internal/core/domain"
)

// Hasher computes content digests and cache keys.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// Hash consumes r once and returns its content digest.
	Hash(r io.Reader) (domain.Digest, error)
	// HashFile returns the content digest of the file at path.
	HashFile(path string) (domain.Digest, error)
	// Key returns a short stable key for the given parts.
	Key(parts ...string) string
}
