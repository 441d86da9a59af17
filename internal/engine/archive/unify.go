package archive

import (
	"context"
	"sort"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// Unify merges single-platform nuget/zip packages into one package whose Package.xml lists every
// platform. When two inputs carry the same path, the first input wins.
func (a *Archiver) Unify(ctx context.Context, output string, inputs []string) error {
	if len(inputs) == 0 {
		return zerr.Wrap(domain.ErrPackFailed, "no packages to unify")
	}

	state := a.dedup.CreateState()
	platforms := map[string]bool{}
	var meta NuGetMetadata

	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		format, err := a.Detect(input)
		if err != nil {
			return err
		}
		if format != domain.FormatNuGetZip {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "only nuget/zip packages can be unified"), "path", input), "format", string(format))
		}

		entries, err := a.ReadFile(input)
		if err != nil {
			return err
		}

		if info, ok := entries[PackageInfoName]; ok {
			parsed, err := ParsePackageInfo(info)
			if err != nil {
				return zerr.With(err, "package", input)
			}
			for _, p := range parsed.Platforms {
				platforms[p] = true
			}
			if meta.GitCommit == "" {
				meta.GitCommit = parsed.GitCommit
				meta.GitURL = parsed.GitURL
			}
		}
		if meta.ID == "" {
			meta.ID, meta.Version = nuspecIdentity(entries)
		}

		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if isMetadataEntry(name) {
				continue
			}
			if domain.IsDirectoryPath(name) {
				a.dedup.AddDirectory(state, name)
				continue
			}
			if err := a.dedup.AddBytes(state, entries[name], name); err != nil {
				return err
			}
		}
	}

	for p := range platforms {
		meta.Platforms = append(meta.Platforms, p)
	}
	if meta.ID == "" {
		meta.ID = "Package"
	}

	if err := AddNuGetMetadata(a.dedup, state, meta); err != nil {
		return err
	}
	return a.WriteFile(output, domain.FormatNuGetZip, state, nil)
}
