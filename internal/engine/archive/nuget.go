package archive

import (
	"encoding/xml"
	"path"
	"sort"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/engine/dedup"
	"go.trai.ch/zerr"
)

// NuGet metadata entry names.
const (
	ContentTypesName  = "[Content_Types].xml"
	RelationshipsName = "_rels/.rels"
	PackageInfoName   = "Package.xml"
)

const (
	contentTypesNS      = "http://schemas.openxmlformats.org/package/2006/content-types"
	relationshipsNS     = "http://schemas.openxmlformats.org/package/2006/relationships"
	nuspecNS            = "http://schemas.microsoft.com/packaging/2011/08/nuspec.xsd"
	manifestRelType     = "http://schemas.microsoft.com/packaging/2010/07/manifest"
	relationshipsCType  = "application/vnd.openxmlformats-package.relationships+xml"
	defaultContentType  = "application/octet"
	defaultPackageOwner = "protobuild"
)

// NuGetMetadata describes the package-level files of a nuget/zip archive.
type NuGetMetadata struct {
	ID        string
	Version   string
	Platforms []string
	GitCommit string
	GitURL    string
}

type contentTypes struct {
	XMLName  xml.Name             `xml:"Types"`
	NS       string               `xml:"xmlns,attr"`
	Defaults []contentTypeDefault `xml:"Default"`
}

type contentTypeDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type relationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	NS      string         `xml:"xmlns,attr"`
	Items   []relationship `xml:"Relationship"`
}

type relationship struct {
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
	ID     string `xml:"Id,attr"`
}

type nuspec struct {
	XMLName  xml.Name       `xml:"package"`
	NS       string         `xml:"xmlns,attr,omitempty"`
	Metadata nuspecMetadata `xml:"metadata"`
}

type nuspecMetadata struct {
	ID          string `xml:"id"`
	Version     string `xml:"version"`
	Authors     string `xml:"authors"`
	Description string `xml:"description"`
}

// PackageInfo is the custom Package.xml carried by nuget/zip archives.
type PackageInfo struct {
	XMLName   xml.Name `xml:"Package"`
	Platforms []string `xml:"Platforms>Platform"`
	GitCommit string   `xml:"Source>GitCommitHash,omitempty"`
	GitURL    string   `xml:"Source>GitUrl,omitempty"`
}

// ParsePackageInfo decodes a Package.xml document.
func ParsePackageInfo(data []byte) (*PackageInfo, error) {
	var info PackageInfo
	if err := xml.Unmarshal(data, &info); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", PackageInfoName)
	}
	return &info, nil
}

// AddNuGetMetadata adds the package-level files to state. It must run after the content has been
// added, since [Content_Types].xml lists the extensions present.
func AddNuGetMetadata(d *dedup.Deduplicator, state *domain.DeduplicatorState, meta NuGetMetadata) error {
	nuspecName := meta.ID + ".nuspec"

	platforms := append([]string(nil), meta.Platforms...)
	sort.Strings(platforms)

	docs := []struct {
		name string
		doc  any
	}{
		{nuspecName, nuspec{
			NS: nuspecNS,
			Metadata: nuspecMetadata{
				ID:          meta.ID,
				Version:     meta.Version,
				Authors:     defaultPackageOwner,
				Description: meta.ID,
			},
		}},
		{PackageInfoName, PackageInfo{Platforms: platforms, GitCommit: meta.GitCommit, GitURL: meta.GitURL}},
		{RelationshipsName, relationships{
			NS:    relationshipsNS,
			Items: []relationship{{Type: manifestRelType, Target: "/" + nuspecName, ID: "R1"}},
		}},
	}

	for _, entry := range docs {
		data, err := marshalXML(entry.doc)
		if err != nil {
			return err
		}
		if err := d.AddBytes(state, data, entry.name); err != nil {
			return err
		}
	}

	data, err := marshalXML(buildContentTypes(state))
	if err != nil {
		return err
	}
	return d.AddBytes(state, data, ContentTypesName)
}

// buildContentTypes lists every file extension present in state.
func buildContentTypes(state *domain.DeduplicatorState) contentTypes {
	seen := map[string]bool{"rels": true}
	types := contentTypes{
		NS:       contentTypesNS,
		Defaults: []contentTypeDefault{{Extension: "rels", ContentType: relationshipsCType}},
	}

	var exts []string
	for _, file := range state.Files() {
		ext := strings.TrimPrefix(path.Ext(file), ".")
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		types.Defaults = append(types.Defaults, contentTypeDefault{Extension: ext, ContentType: defaultContentType})
	}
	return types
}

func marshalXML(doc any) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error())
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// isMetadataEntry reports whether name is one of the package-level files of a nuget/zip archive.
func isMetadataEntry(name string) bool {
	switch name {
	case ContentTypesName, RelationshipsName, PackageInfoName:
		return true
	}
	return !strings.Contains(name, "/") && strings.HasSuffix(name, ".nuspec")
}

// nuspecIdentity returns the id and version of the first .nuspec found in entries.
func nuspecIdentity(entries map[string][]byte) (id, version string) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".nuspec") {
			continue
		}
		var spec nuspec
		if err := xml.Unmarshal(entries[name], &spec); err != nil {
			continue
		}
		return spec.Metadata.ID, spec.Metadata.Version
	}
	return "", ""
}
