package ports

import "context"

// PushRequest describes an archive upload to a package repository.
type PushRequest struct {
	RepositoryURL string
	APIKey        string
	ArchivePath   string
	Version       string
	Platform      string
	Branch        string
}

// RepushRequest points a repository branch at an already uploaded version.
type RepushRequest struct {
	RepositoryURL string
	APIKey        string
	Version       string
	Branch        string
}

// Repository uploads packages to a remote package repository.
//
//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks
type Repository interface {
	Push(ctx context.Context, req PushRequest) error
	Repush(ctx context.Context, req RepushRequest) error
}
