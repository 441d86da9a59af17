package source

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
)

// IndexSource speaks the package server protocol:
//
//	GET  <uri>/api                          package description
//	GET  <uri>/hash/<ref>                   commit for a branch or tag
//	HEAD <uri>/binary/<platform>/<commit>   prebuilt archive
//
// Source checkouts go through git on the advertised gitUrl.
type IndexSource struct {
	client HTTPDoer
	git    *GitSource
}

// NewIndexSource creates an IndexSource.
func NewIndexSource(client HTTPDoer, git *GitSource) *IndexSource {
	return &IndexSource{client: client, git: git}
}

// Name implements ports.Source.
func (s *IndexSource) Name() string { return "index" }

// Accepts implements ports.Source.
func (s *IndexSource) Accepts(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// PackageDescription is the success payload of <uri>/api.
type PackageDescription struct {
	GitURL       string `json:"gitUrl"`
	BinaryFormat string `json:"binaryFormat"`
}

// Lookup resolves ref to a commit and probes for a binary for platform.
func (s *IndexSource) Lookup(ctx context.Context, uri, ref, platform string) (*domain.ResolvedPackageMetadata, error) {
	base := strings.TrimSuffix(uri, "/")

	var envelope domain.Result[PackageDescription]
	if err := getJSON(ctx, s.client, base+"/api", &envelope); err != nil {
		return nil, err
	}
	desc, err := envelope.Unwrap()
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchUnreachable, uri, err)
	}

	format, err := domain.ParseArchiveFormat(desc.BinaryFormat)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchUnreachable, uri, err)
	}

	commit, err := s.resolveHash(ctx, base, ref)
	if err != nil {
		return nil, err
	}

	binaryURI := base + "/binary/" + url.PathEscape(platform) + "/" + commit
	available, err := exists(ctx, s.client, binaryURI)
	if err != nil {
		return nil, err
	}

	meta := &domain.ResolvedPackageMetadata{
		Source:          s.Name(),
		URI:             uri,
		Ref:             ref,
		Platform:        platform,
		Commit:          commit,
		BinaryAvailable: available,
		Format:          format,
		SourceAvailable: desc.GitURL != "",
		GitURI:          desc.GitURL,
	}
	if available {
		meta.BinaryURI = binaryURI
	}
	return meta, nil
}

func (s *IndexSource) resolveHash(ctx context.Context, base, ref string) (string, error) {
	if isCommitHash(ref) {
		return strings.ToLower(ref), nil
	}

	hashURI := base + "/hash/" + url.PathEscape(ref)
	resp, err := get(ctx, s.client, hashURI)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck // Body is fully consumed below

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", domain.NewFetchError(domain.FetchUnreachable, hashURI, err)
	}
	commit := strings.TrimSpace(string(data))
	if commit == "" {
		return "", domain.NewFetchError(domain.FetchRefNotFound, hashURI, errors.New("empty hash for "+ref))
	}
	return commit, nil
}

// DownloadBinary streams the platform archive.
func (s *IndexSource) DownloadBinary(ctx context.Context, meta *domain.ResolvedPackageMetadata, w io.Writer) error {
	if !meta.BinaryAvailable {
		return domain.NewFetchError(domain.FetchBinaryUnavailable, meta.URI, errors.New("no binary for "+meta.Platform))
	}
	return download(ctx, s.client, meta.BinaryURI, w)
}

// CheckoutSource clones the advertised git repository.
func (s *IndexSource) CheckoutSource(ctx context.Context, meta *domain.ResolvedPackageMetadata, dest string) error {
	if !meta.SourceAvailable {
		return domain.NewFetchError(domain.FetchSourceUnavailable, meta.URI, errors.New("package advertises no git repository"))
	}
	return s.git.CheckoutSource(ctx, meta, dest)
}
