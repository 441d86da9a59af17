package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/cmd/protobuild/commands"
	"go.trai.ch/protobuild/internal/app"
	"go.trai.ch/protobuild/internal/build"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
)

// mockApp records the last request of every command.
type mockApp struct {
	err error

	jsonLog  bool
	resolve  *app.ResolveRequest
	install  *app.InstallRequest
	upgrade  *app.PackageRequest
	all      *app.Scope
	toSource *app.PackageRequest
	toBinary *app.PackageRequest
	pack     *ports.PackRequest
	unify    []string
	push     *ports.PushRequest
	repush   *ports.RepushRequest
	precache *app.PrecacheRequest
}

func (m *mockApp) SetJSONLog(enable bool) { m.jsonLog = enable }

func (m *mockApp) Resolve(_ context.Context, req app.ResolveRequest) error {
	m.resolve = &req
	return m.err
}

func (m *mockApp) Install(_ context.Context, req app.InstallRequest) error {
	m.install = &req
	return m.err
}

func (m *mockApp) Upgrade(_ context.Context, req app.PackageRequest) error {
	m.upgrade = &req
	return m.err
}

func (m *mockApp) UpgradeAll(_ context.Context, scope app.Scope) error {
	m.all = &scope
	return m.err
}

func (m *mockApp) SwapToSource(_ context.Context, req app.PackageRequest) error {
	m.toSource = &req
	return m.err
}

func (m *mockApp) SwapToBinary(_ context.Context, req app.PackageRequest) error {
	m.toBinary = &req
	return m.err
}

func (m *mockApp) Pack(_ context.Context, req ports.PackRequest) error {
	m.pack = &req
	return m.err
}

func (m *mockApp) Unify(_ context.Context, output string, inputs []string) error {
	m.unify = append([]string{output}, inputs...)
	return m.err
}

func (m *mockApp) Push(_ context.Context, req ports.PushRequest) error {
	m.push = &req
	return m.err
}

func (m *mockApp) Repush(_ context.Context, req ports.RepushRequest) error {
	m.repush = &req
	return m.err
}

func (m *mockApp) Precache(_ context.Context, req app.PrecacheRequest) error {
	m.precache = &req
	return m.err
}

func execute(t *testing.T, m *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(m)
	cli.SetArgs(args)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Resolve(t *testing.T) {
	t.Run("keeps configured defaults for untouched flags", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "resolve", "--dir", "mod", "--platform", "Windows")
		require.NoError(t, err)
		require.NotNil(t, m.resolve)
		assert.Equal(t, app.Scope{Dir: "mod", Platform: "Windows", Redirects: []string{}}, m.resolve.Scope)
		assert.Nil(t, m.resolve.SafeResolve)
		assert.Nil(t, m.resolve.Parallel)
		assert.Nil(t, m.resolve.ContinueOnError)
		assert.False(t, m.resolve.SkipNested)
	})

	t.Run("wires flags correctly", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "resolve",
			"--safe-resolve", "--parallel=false", "--continue-on-error=false", "--skip-nested",
			"--redirect", "https://a=../A", "--redirect", "https://b=https://c",
			"--json-log")
		require.NoError(t, err)
		require.NotNil(t, m.resolve)
		require.NotNil(t, m.resolve.SafeResolve)
		assert.True(t, *m.resolve.SafeResolve)
		require.NotNil(t, m.resolve.Parallel)
		assert.False(t, *m.resolve.Parallel)
		require.NotNil(t, m.resolve.ContinueOnError)
		assert.False(t, *m.resolve.ContinueOnError)
		assert.True(t, m.resolve.SkipNested)
		assert.Equal(t, []string{"https://a=../A", "https://b=https://c"}, m.resolve.Redirects)
		assert.True(t, m.jsonLog)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		m := &mockApp{err: errors.New("simulated error")}
		_, err := execute(t, m, "resolve")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})
}

func TestCommands_Install(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "install", "https://example.com/Lib",
		"--ref", "v1", "--folder", "Deps/Lib", "--optional", "--binary")
	require.NoError(t, err)
	require.NotNil(t, m.install)
	assert.Equal(t, "https://example.com/Lib", m.install.URI)
	assert.Equal(t, "v1", m.install.Ref)
	assert.Equal(t, "Deps/Lib", m.install.Folder)
	assert.True(t, m.install.Optional)
	assert.True(t, m.install.Binary)
	assert.False(t, m.install.Source)

	_, err = execute(t, &mockApp{}, "install", "https://example.com/Lib", "--source", "--binary")
	require.Error(t, err)

	_, err = execute(t, &mockApp{}, "install")
	require.Error(t, err)
}

func TestCommands_PackageCommands(t *testing.T) {
	m := &mockApp{}

	_, err := execute(t, m, "upgrade", "https://example.com/A")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/A", m.upgrade.URI)

	_, err = execute(t, m, "upgrade-all", "--dir", "x")
	require.NoError(t, err)
	assert.Equal(t, "x", m.all.Dir)

	_, err = execute(t, m, "swap-to-source", "https://example.com/B")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/B", m.toSource.URI)

	_, err = execute(t, m, "swap-to-binary", "https://example.com/C")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/C", m.toBinary.URI)
}

func TestCommands_Pack(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "pack", "src", "out.nupkg",
		"--format", "nuget", "--platform", "Linux", "--filter", "Build/Publish.filter",
		"--id", "Lib", "--version", "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, &ports.PackRequest{
		SourceDir:  "src",
		Output:     "out.nupkg",
		Platform:   "Linux",
		Format:     domain.FormatNuGetZip,
		FilterFile: "Build/Publish.filter",
		PackageID:  "Lib",
		Version:    "2.0.0",
	}, m.pack)

	_, err = execute(t, &mockApp{}, "pack", "src", "out", "--format", "rar")
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = execute(t, m, "unify", "all.nupkg", "a.nupkg", "b.nupkg")
	require.NoError(t, err)
	assert.Equal(t, []string{"all.nupkg", "a.nupkg", "b.nupkg"}, m.unify)
}

func TestCommands_Push(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "push", "pkg.tar.lzma", "https://repo.example.com/Lib", "1.2.3", "Windows",
		"--branch", "stable", "--api-key", "secret")
	require.NoError(t, err)
	assert.Equal(t, &ports.PushRequest{
		RepositoryURL: "https://repo.example.com/Lib",
		APIKey:        "secret",
		ArchivePath:   "pkg.tar.lzma",
		Version:       "1.2.3",
		Platform:      "Windows",
		Branch:        "stable",
	}, m.push)

	t.Setenv("PROTOBUILD_API_KEY", "from-env")
	_, err = execute(t, m, "repush", "https://repo.example.com/Lib", "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, &ports.RepushRequest{
		RepositoryURL: "https://repo.example.com/Lib",
		APIKey:        "from-env",
		Version:       "1.2.3",
		Branch:        "master",
	}, m.repush)
}

func TestCommands_Precache(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "precache", "https://example.com/A", "--ref", "v3", "--platform", "MacOS")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/A", m.precache.URI)
	assert.Equal(t, "v3", m.precache.Ref)
	assert.Equal(t, "MacOS", m.precache.Platform)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "protobuild version "+build.Version+" (commit: "+build.Commit+", date: "+build.Date+")\n", out)
}
