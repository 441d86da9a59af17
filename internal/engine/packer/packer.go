// Package packer builds distributable package archives from a module folder.
package packer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/engine/archive"
	"go.trai.ch/protobuild/internal/engine/dedup"
	"go.trai.ch/zerr"
)

// DefaultVersion is used for nuget/zip packages when no version is given.
const DefaultVersion = "1.0.0"

// autoIgnores are base names never packaged in auto mode.
var autoIgnores = []string{"bin", "obj", domain.PackageMarkerName, domain.RedirectMarkerName}

// Packer implements ports.Packer.
type Packer struct {
	walker    *fs.Walker
	verifier  *fs.Verifier
	dedup     *dedup.Deduplicator
	archiver  ports.Archiver
	manifests ports.ManifestLoader
	tracer    ports.Tracer
	logger    ports.Logger
}

var _ ports.Packer = (*Packer)(nil)

// New creates a Packer.
func New(
	walker *fs.Walker,
	verifier *fs.Verifier,
	d *dedup.Deduplicator,
	archiver ports.Archiver,
	manifests ports.ManifestLoader,
	tracer ports.Tracer,
	logger ports.Logger,
) *Packer {
	return &Packer{
		walker:    walker,
		verifier:  verifier,
		dedup:     d,
		archiver:  archiver,
		manifests: manifests,
		tracer:    tracer,
		logger:    logger,
	}
}

// Pack writes req.SourceDir to req.Output. Structural checks run before any file is read.
func (p *Packer) Pack(ctx context.Context, req ports.PackRequest) error {
	ctx, span := p.tracer.Start(ctx, "pack "+req.SourceDir, ports.WithKind("pack"))
	defer span.End()

	err := p.pack(ctx, req)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (p *Packer) pack(ctx context.Context, req ports.PackRequest) error {
	source, err := filepath.Abs(req.SourceDir)
	if err != nil {
		return zerr.Wrap(err, domain.ErrPackFailed.Error())
	}
	output, err := filepath.Abs(req.Output)
	if err != nil {
		return zerr.Wrap(err, domain.ErrPackFailed.Error())
	}

	if err := p.verifier.VerifyModule(source); err != nil {
		return err
	}

	var filter *Filter
	if req.FilterFile != "" {
		filter, err = loadFilter(req.FilterFile)
		if err != nil {
			return err
		}
	}

	entries, err := p.selectEntries(source, output, filter)
	if err != nil {
		return err
	}

	prefix := ""
	if req.Format == domain.FormatNuGetZip {
		prefix = domain.NuGetNamespace + req.Platform + "/"
	}

	state := p.dedup.CreateState()
	for _, dir := range entries.dirs {
		p.dedup.AddDirectory(state, prefix+dir)
	}
	for _, dest := range entries.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.dedup.AddFile(state, filepath.Join(source, filepath.FromSlash(entries.files[dest])), prefix+dest); err != nil {
			return err
		}
	}

	if req.Format == domain.FormatNuGetZip {
		if err := p.addNuGetMetadata(state, source, req); err != nil {
			return err
		}
	}

	p.logger.Info(fmt.Sprintf("packing %d files (%d distinct) into %s", len(entries.files), len(state.FileHashToSource), output))
	if err := p.archiver.WriteFile(output, req.Format, state, p.progress(output)); err != nil {
		return err
	}
	p.logger.Info("wrote " + output)
	return nil
}

// selection is the packaged layout: directories plus packaged path to source path.
type selection struct {
	dirs  []string
	files map[string]string
	order []string
}

func (p *Packer) selectEntries(source, output string, filter *Filter) (*selection, error) {
	sel := &selection{files: make(map[string]string)}
	dirs := make(map[string]struct{})

	var candidates []string
	for e := range p.walker.Walk(source, autoIgnores) {
		if filepath.Join(source, filepath.FromSlash(e.Path)) == output {
			continue
		}
		if e.IsDir {
			if filter == nil {
				dirs[e.Path+"/"] = struct{}{}
			}
			continue
		}
		candidates = append(candidates, e.Path)
	}

	if filter == nil {
		for _, c := range candidates {
			sel.files[c] = c
		}
	} else {
		mapped, err := filter.Apply(candidates)
		if err != nil {
			return nil, err
		}
		sel.files = mapped
	}

	for dest := range sel.files {
		sel.order = append(sel.order, dest)
		for dir := path.Dir(dest); dir != "." && dir != "/"; dir = path.Dir(dir) {
			dirs[dir+"/"] = struct{}{}
		}
	}
	sort.Strings(sel.order)

	for d := range dirs {
		sel.dirs = append(sel.dirs, d)
	}
	sort.Strings(sel.dirs)
	return sel, nil
}

func loadFilter(filterPath string) (*Filter, error) {
	f, err := os.Open(filterPath) //nolint:gosec // Filter file is chosen by the user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFilterParseFailed.Error()), "path", filterPath)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	filter, err := ParseFilter(f)
	if err != nil {
		return nil, zerr.With(err, "path", filterPath)
	}
	return filter, nil
}

func (p *Packer) addNuGetMetadata(state *domain.DeduplicatorState, source string, req ports.PackRequest) error {
	meta := archive.NuGetMetadata{
		ID:        req.PackageID,
		Version:   req.Version,
		Platforms: []string{req.Platform},
	}
	if meta.ID == "" {
		module, err := p.manifests.Load(source)
		if err != nil {
			return err
		}
		meta.ID = module.Name
	}
	if meta.Version == "" {
		meta.Version = DefaultVersion
	}
	meta.GitCommit, meta.GitURL = gitInfo(source)

	return archive.AddNuGetMetadata(p.dedup, state, meta)
}

// gitInfo returns the HEAD commit and origin URL of the repository containing dir, if any.
func gitInfo(dir string) (commit, url string) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", ""
	}
	if head, err := repo.Head(); err == nil {
		commit = head.Hash().String()
	}
	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			url = urls[0]
		}
	}
	return commit, url
}

// progress logs compression progress in quarter steps.
func (p *Packer) progress(output string) ports.ProgressFunc {
	last := -1
	return func(done, total int) {
		if total == 0 {
			return
		}
		step := done * 4 / total
		if step == last {
			return
		}
		last = step
		p.logger.Info(fmt.Sprintf("%s: %d%% (%d/%d)", filepath.Base(output), step*25, done, total))
	}
}

// Unify merges single-platform nuget/zip packages into one.
func (p *Packer) Unify(ctx context.Context, output string, inputs []string) error {
	if len(inputs) == 0 {
		return zerr.Wrap(domain.ErrPackFailed, "no input packages to unify")
	}
	p.logger.Info(fmt.Sprintf("unifying %s into %s", strings.Join(inputs, ", "), output))
	return p.archiver.Unify(ctx, output, inputs)
}
