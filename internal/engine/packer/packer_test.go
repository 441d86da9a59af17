package packer_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/adapters/manifest"
	"go.trai.ch/protobuild/internal/adapters/telemetry"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/core/ports/mocks"
	"go.trai.ch/protobuild/internal/engine/archive"
	"go.trai.ch/protobuild/internal/engine/dedup"
	"go.trai.ch/protobuild/internal/engine/packer"
	"go.uber.org/mock/gomock"
)

func newPacker(t *testing.T) (*packer.Packer, *archive.Archiver) {
	t.Helper()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	d := dedup.New(fs.NewHasher())
	archiver := archive.New(d)
	p := packer.New(fs.NewWalker(), fs.NewVerifier(), d, archiver, manifest.NewLoader(), telemetry.NewNoOpTracer(), log)
	return p, archiver
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
		require.NoError(t, os.WriteFile(p, []byte(content), domain.FilePerm))
	}
}

func consoleModule(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Build/Module.xml":                  "<Module><Name>Console</Name></Module>",
		"Build/Projects/Console.definition": `<Project Name="Console" Path="Console" Type="App" />`,
		"Console/Program.cs":                "class Program {}",
	})
	return dir
}

func entryNames(entries map[string][]byte) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestPack_AutoMode(t *testing.T) {
	t.Parallel()

	p, archiver := newPacker(t)
	src := consoleModule(t)
	writeFiles(t, src, map[string]string{
		"Console/bin/Debug/Console.exe": "binary",
		"Console/obj/cache":             "intermediate",
		".pkg":                          "{}",
		".git/HEAD":                     "ref: refs/heads/master",
	})
	out := filepath.Join(t.TempDir(), "Console.tar.lzma")

	require.NoError(t, p.Pack(context.Background(), ports.PackRequest{
		SourceDir: src,
		Output:    out,
		Platform:  "Windows",
		Format:    domain.FormatTarLZMA,
	}))

	entries, err := archiver.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Build/",
		"Build/Module.xml",
		"Build/Projects/",
		"Build/Projects/Console.definition",
		"Console/",
		"Console/Program.cs",
	}, entryNames(entries))
	assert.Equal(t, "class Program {}", string(entries["Console/Program.cs"]))
}

func TestPack_OutputInsideSourceIsSkipped(t *testing.T) {
	t.Parallel()

	p, archiver := newPacker(t)
	src := consoleModule(t)
	out := filepath.Join(src, "Console.tar.gz")
	require.NoError(t, os.WriteFile(out, []byte("stale"), domain.FilePerm))

	require.NoError(t, p.Pack(context.Background(), ports.PackRequest{SourceDir: src, Output: out, Format: domain.FormatTarGzip}))

	entries, err := archiver.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, entries, "Console.tar.gz")
	assert.Len(t, entries, 6)
}

func TestPack_MissingManifest(t *testing.T) {
	t.Parallel()

	p, _ := newPacker(t)
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"Console/Program.cs": "class Program {}"})
	out := filepath.Join(t.TempDir(), "Console.tar.lzma")

	err := p.Pack(context.Background(), ports.PackRequest{SourceDir: src, Output: out, Format: domain.FormatTarLZMA})
	require.ErrorIs(t, err, domain.ErrMissingManifest)
	assert.NoFileExists(t, out)
}

func TestPack_MissingProjects(t *testing.T) {
	t.Parallel()

	p, _ := newPacker(t)
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"Build/Module.xml": "<Module/>"})

	err := p.Pack(context.Background(), ports.PackRequest{SourceDir: src, Output: filepath.Join(t.TempDir(), "x.tar.gz")})
	require.ErrorIs(t, err, domain.ErrMissingProjects)
}

func TestPack_PlatformFilters(t *testing.T) {
	t.Parallel()

	p, archiver := newPacker(t)
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"Build/Module.xml":                          "<Module><Name>Console</Name></Module>",
		"Build/Projects/Console.Windows.definition": "<Project><!-- WINDOWS --></Project>",
		"Build/Projects/Console.Linux.definition":   "<Project><!-- LINUX --></Project>",
		"Console/Program.cs":                        "class Program {}",
		"Filter.Windows.txt": "include ^Build/Module\\.xml$\n" +
			"include ^Build/Projects/Console\\.Windows\\.definition$\n" +
			"include ^Console/\n",
		"Filter.Linux.txt": "# Linux layout\n" +
			"include ^Build/\n" +
			"exclude \\.Windows\\.definition$\n" +
			"include ^Console/.*\\.cs$\n",
	})

	for _, platform := range []string{"Windows", "Linux"} {
		out := filepath.Join(t.TempDir(), platform+".tar.gz")
		require.NoError(t, p.Pack(context.Background(), ports.PackRequest{
			SourceDir:  src,
			Output:     out,
			Platform:   platform,
			Format:     domain.FormatTarGzip,
			FilterFile: filepath.Join(src, "Filter."+platform+".txt"),
		}))

		entries, err := archiver.ReadFile(out)
		require.NoError(t, err)
		assert.Len(t, entries, 6, platform)

		def := entries["Build/Projects/Console."+platform+".definition"]
		require.NotNil(t, def, platform)
		assert.Contains(t, string(def), strings.ToUpper(platform))
	}
}

func TestPack_FilterRewrite(t *testing.T) {
	t.Parallel()

	p, archiver := newPacker(t)
	src := consoleModule(t)
	writeFiles(t, src, map[string]string{
		"Filter.txt": "include ^Build/\ninclude ^Console/\n" +
			"rewrite ^Build/Projects/Console\\.definition$ Build/Projects/App.definition\n",
	})
	out := filepath.Join(t.TempDir(), "out.tar.gz")

	require.NoError(t, p.Pack(context.Background(), ports.PackRequest{
		SourceDir: src, Output: out, Format: domain.FormatTarGzip, FilterFile: filepath.Join(src, "Filter.txt"),
	}))

	entries, err := archiver.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, entries, "Build/Projects/App.definition")
	assert.NotContains(t, entries, "Build/Projects/Console.definition")
}

func TestPack_FilterRewriteMustMatchOnce(t *testing.T) {
	t.Parallel()

	p, _ := newPacker(t)
	src := consoleModule(t)
	writeFiles(t, src, map[string]string{
		"Filter.txt": "include .*\nrewrite ^Build/ Other/\n",
	})
	out := filepath.Join(t.TempDir(), "out.tar.gz")

	err := p.Pack(context.Background(), ports.PackRequest{
		SourceDir: src, Output: out, Format: domain.FormatTarGzip, FilterFile: filepath.Join(src, "Filter.txt"),
	})
	require.ErrorIs(t, err, domain.ErrFilterMatchCount)
	assert.NoFileExists(t, out)
}

func TestParseFilter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter string
	}{
		{name: "unknown verb", filter: "copy a b"},
		{name: "missing pattern", filter: "include"},
		{name: "bad regex", filter: "exclude ([a-"},
		{name: "rewrite without replacement", filter: "rewrite ^a$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := packer.ParseFilter(strings.NewReader(tt.filter))
			require.ErrorIs(t, err, domain.ErrFilterParseFailed)
		})
	}
}

func TestPack_NuGet(t *testing.T) {
	t.Parallel()

	p, archiver := newPacker(t)
	src := consoleModule(t)

	repo, err := git.PlainInit(src, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"https://git.example.com/Console.git"}})
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "Console.nupkg")
	require.NoError(t, p.Pack(context.Background(), ports.PackRequest{
		SourceDir: src,
		Output:    out,
		Platform:  "Linux",
		Format:    domain.FormatNuGetZip,
		Version:   "2.0.0",
	}))

	entries, err := archiver.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, entries, "protobuild/Linux/Console/Program.cs")
	assert.Contains(t, entries, "Console.nuspec")
	assert.Contains(t, entries, archive.ContentTypesName)
	assert.Contains(t, entries, archive.RelationshipsName)
	assert.Contains(t, string(entries["Console.nuspec"]), "<version>2.0.0</version>")

	info, err := archive.ParsePackageInfo(entries[archive.PackageInfoName])
	require.NoError(t, err)
	assert.Equal(t, []string{"Linux"}, info.Platforms)
	assert.Equal(t, hash.String(), info.GitCommit)
	assert.Equal(t, "https://git.example.com/Console.git", info.GitURL)

	extracted := t.TempDir()
	require.NoError(t, archiver.Extract(context.Background(), out, extracted, "Linux"))
	assert.FileExists(t, filepath.Join(extracted, "Console", "Program.cs"))
}

func TestPacker_Unify(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	archiver := mocks.NewMockArchiver(ctrl)

	d := dedup.New(fs.NewHasher())
	p := packer.New(fs.NewWalker(), fs.NewVerifier(), d, archiver, manifest.NewLoader(), telemetry.NewNoOpTracer(), log)

	archiver.EXPECT().Unify(gomock.Any(), "out.nupkg", []string{"a.nupkg", "b.nupkg"}).Return(nil)
	require.NoError(t, p.Unify(context.Background(), "out.nupkg", []string{"a.nupkg", "b.nupkg"}))

	require.ErrorIs(t, p.Unify(context.Background(), "out.nupkg", nil), domain.ErrPackFailed)
}
