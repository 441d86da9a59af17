package shell_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/adapters/shell"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/protobuild/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func redirects(t *testing.T) *domain.PackageRedirectTable {
	t.Helper()

	table, err := domain.NewRedirectTableFromDirectives([]string{"https://b.example.com/B=/src/B", "https://a.example.com/A=../A"})
	require.NoError(t, err)
	return table
}

func TestArguments(t *testing.T) {
	t.Parallel()

	args := shell.Arguments("/work/Sub", ports.ResolveOptions{
		Platform:             "Linux",
		Parallel:             true,
		ContinueOnError:      true,
		SkipNestedResolution: true,
		Redirects:            redirects(t),
	})

	assert.Equal(t, []string{
		"resolve",
		"--dir", "/work/Sub",
		"--platform", "Linux",
		"--safe-resolve=false",
		"--parallel=true",
		"--continue-on-error=true",
		"--skip-nested",
		"--redirect", "https://a.example.com/A=../A",
		"--redirect", "https://b.example.com/B=/src/B",
	}, args)
}

// writeScript creates a fake protobuild executable that prints its arguments and environment.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	path := filepath.Join(t.TempDir(), "protobuild")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)) //nolint:gosec // test executable
	return path
}

func TestProcessInvoker_Invoke(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "echo \"args: $*\"\nprintf 'cache: %s' \"$PROTOBUILD_CACHE_DIR\"\n")
	module := &domain.ModuleInfo{Name: "Sub", Path: t.TempDir()}

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	var lines []string
	log.EXPECT().Info(gomock.Any()).Do(func(msg string) { lines = append(lines, msg) }).Times(2)

	invoker := shell.NewProcessInvoker(script, "/tmp/shared-cache", log)
	err := invoker.Invoke(context.Background(), module, ports.ResolveOptions{Platform: "Windows", Redirects: redirects(t)})
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "args: resolve --dir "+module.Path+" --platform Windows"))
	assert.Contains(t, lines[0], "--redirect https://a.example.com/A=../A")
	assert.Equal(t, "cache: /tmp/shared-cache", lines[1])
}

func TestProcessInvoker_Failure(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "echo 'resolution failed' >&2\nexit 3\n")
	module := &domain.ModuleInfo{Name: "Sub", Path: t.TempDir()}

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.EqualError(t, err, "resolution failed")
	})

	invoker := shell.NewProcessInvoker(script, "", log)
	err := invoker.Invoke(context.Background(), module, ports.ResolveOptions{Platform: "Linux"})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrSubmoduleInvokeFailed.Error())
}
