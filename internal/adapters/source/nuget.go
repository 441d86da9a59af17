package source

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
)

const packageBaseAddressType = "PackageBaseAddress/3.0.0"

// NuGetSource handles NuGet v3 feeds addressed as https-nuget-v3://HOST/PATH/index.json|PackageId.
// The ref selects a version; the default ref selects the latest listed version.
type NuGetSource struct {
	client HTTPDoer
}

// NewNuGetSource creates a NuGetSource.
func NewNuGetSource(client HTTPDoer) *NuGetSource {
	return &NuGetSource{client: client}
}

// Name implements ports.Source.
func (s *NuGetSource) Name() string { return "nuget-v3" }

// Accepts implements ports.Source.
func (s *NuGetSource) Accepts(uri string) bool {
	return strings.HasPrefix(uri, "https-nuget-v3://") || strings.HasPrefix(uri, "http-nuget-v3://")
}

type serviceIndex struct {
	Resources []struct {
		ID   string `json:"@id"`
		Type string `json:"@type"`
	} `json:"resources"`
}

type versionIndex struct {
	Versions []string `json:"versions"`
}

// parseNuGetURI splits a feed URI into the service index URL and the package id.
func parseNuGetURI(uri string) (indexURL, packageID string, err error) {
	var rest string
	switch {
	case strings.HasPrefix(uri, "https-nuget-v3://"):
		rest = "https://" + strings.TrimPrefix(uri, "https-nuget-v3://")
	default:
		rest = "http://" + strings.TrimPrefix(uri, "http-nuget-v3://")
	}

	indexURL, packageID, ok := strings.Cut(rest, "|")
	if !ok || packageID == "" {
		return "", "", errors.New("expected FEED|PackageId")
	}
	return indexURL, packageID, nil
}

// Lookup reads the service index, then the package's version list in the flat container.
func (s *NuGetSource) Lookup(ctx context.Context, uri, ref, platform string) (*domain.ResolvedPackageMetadata, error) {
	indexURL, packageID, err := parseNuGetURI(uri)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchRefNotFound, uri, err)
	}

	var index serviceIndex
	if err := getJSON(ctx, s.client, indexURL, &index); err != nil {
		return nil, err
	}

	var base string
	for _, r := range index.Resources {
		if r.Type == packageBaseAddressType {
			base = strings.TrimSuffix(r.ID, "/")
			break
		}
	}
	if base == "" {
		return nil, domain.NewFetchError(domain.FetchUnreachable, uri, errors.New("feed has no "+packageBaseAddressType+" resource"))
	}

	id := strings.ToLower(packageID)
	var versions versionIndex
	if err := getJSON(ctx, s.client, base+"/"+id+"/index.json", &versions); err != nil {
		return nil, err
	}

	version, err := pickVersion(versions.Versions, ref)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchRefNotFound, uri, err)
	}

	v := strings.ToLower(version)
	return &domain.ResolvedPackageMetadata{
		Source:          s.Name(),
		URI:             uri,
		Ref:             ref,
		Platform:        platform,
		Commit:          version,
		BinaryAvailable: true,
		BinaryURI:       base + "/" + id + "/" + v + "/" + id + "." + v + ".nupkg",
		Format:          domain.FormatNuGetZip,
	}, nil
}

// pickVersion returns the version matching ref, or the last listed one for the default ref.
func pickVersion(versions []string, ref string) (string, error) {
	if len(versions) == 0 {
		return "", errors.New("package has no versions")
	}
	if ref == "" || ref == domain.DefaultGitRef {
		return versions[len(versions)-1], nil
	}
	for _, v := range versions {
		if strings.EqualFold(v, ref) {
			return v, nil
		}
	}
	return "", errors.New("version " + ref + " is not published")
}

// DownloadBinary streams the .nupkg.
func (s *NuGetSource) DownloadBinary(ctx context.Context, meta *domain.ResolvedPackageMetadata, w io.Writer) error {
	return download(ctx, s.client, meta.BinaryURI, w)
}

// CheckoutSource implements ports.Source. NuGet feeds carry no sources.
func (s *NuGetSource) CheckoutSource(_ context.Context, meta *domain.ResolvedPackageMetadata, _ string) error {
	return domain.NewFetchError(domain.FetchSourceUnavailable, meta.URI, errors.New("NuGet packages are binary only"))
}
