package ports

import (
	"context"

	"go.trai.ch/protobuild/internal/core/domain"
)

// PackRequest describes one pack operation.
type PackRequest struct {
	SourceDir  string
	Output     string
	Platform   string
	Format     domain.ArchiveFormat
	FilterFile string
	PackageID  string
	Version    string
}

// Packer builds distributable package archives from a module folder.
//
//go:generate mockgen -source=packer.go -destination=mocks/mock_packer.go -package=mocks
type Packer interface {
	Pack(ctx context.Context, req PackRequest) error
	Unify(ctx context.Context, output string, inputs []string) error
}
