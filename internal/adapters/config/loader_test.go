package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/adapters/config"
	"go.trai.ch/protobuild/internal/core/domain"
)

func newLoader(configDir string, env map[string]string) *config.FileSettingsLoader {
	l := config.NewLoader()
	l.ConfigDir = func() (string, error) { return configDir, nil }
	l.Getenv = func(k string) string { return env[k] }
	return l
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	l := newLoader(t.TempDir(), map[string]string{domain.CacheEnvVar: "/tmp/cache"})
	s, err := l.Load(t.TempDir())
	require.NoError(t, err)

	assert.True(t, s.Parallel)
	assert.True(t, s.ContinueOnError)
	assert.False(t, s.SafeResolve)
	assert.Equal(t, domain.InvokerInProcess, s.SubmoduleInvoker)
	assert.Equal(t, 5*time.Minute, s.HTTPTimeout)
	assert.Equal(t, "/tmp/cache", s.CacheDir)
	assert.GreaterOrEqual(t, s.MaxParallel, 1)
}

func TestLoad_WorkingDirectoryFile(t *testing.T) {
	t.Parallel()

	cwd := t.TempDir()
	content := `
cacheDir: /var/cache/protobuild
parallel: false
maxParallel: 3
continueOnError: false
safeResolve: true
httpTimeout: 30s
retries: 5
retryDelay: 250ms
submoduleInvoker: process
`
	require.NoError(t, os.WriteFile(filepath.Join(cwd, domain.SettingsFileName), []byte(content), 0o600))

	s, err := newLoader(t.TempDir(), nil).Load(cwd)
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/protobuild", s.CacheDir)
	assert.False(t, s.Parallel)
	assert.Equal(t, 3, s.MaxParallel)
	assert.False(t, s.ContinueOnError)
	assert.True(t, s.SafeResolve)
	assert.Equal(t, 30*time.Second, s.HTTPTimeout)
	assert.Equal(t, 5, s.Retries)
	assert.Equal(t, 250*time.Millisecond, s.RetryDelay)
	assert.Equal(t, domain.InvokerProcess, s.SubmoduleInvoker)
}

func TestLoad_UserConfigFallback(t *testing.T) {
	t.Parallel()

	configDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(configDir, "protobuild"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "protobuild", "config.yaml"), []byte("safeResolve: true\n"), 0o600))

	s, err := newLoader(configDir, nil).Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, s.SafeResolve)

	t.Run("working directory file wins", func(t *testing.T) {
		t.Parallel()

		cwd := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(cwd, domain.SettingsFileName), []byte("retries: 0\n"), 0o600))

		s, err := newLoader(configDir, nil).Load(cwd)
		require.NoError(t, err)
		assert.False(t, s.SafeResolve)
		assert.Equal(t, 0, s.Retries)
	})
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Parallel()

	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, domain.SettingsFileName), []byte("parallel: true\ncacheDir: /from/file\n"), 0o600))

	s, err := newLoader(t.TempDir(), map[string]string{
		domain.ParallelEnvVar: "0",
		domain.CacheEnvVar:    "/from/env",
	}).Load(cwd)
	require.NoError(t, err)
	assert.False(t, s.Parallel)
	assert.Equal(t, "/from/env", s.CacheDir)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{name: "invalid yaml", content: "parallel: [", wantErr: domain.ErrConfigParseFailed.Error()},
		{name: "invalid duration", content: "httpTimeout: soon", wantErr: domain.ErrConfigParseFailed.Error()},
		{name: "unknown invoker", content: "submoduleInvoker: thread", wantErr: "unknown submodule invoker"},
		{name: "negative retries", content: "retries: -1", wantErr: "retries must not be negative"},
		{name: "invalid parallel env", content: "", env: map[string]string{domain.ParallelEnvVar: "sometimes"}, wantErr: domain.ErrConfigParseFailed.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cwd := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(cwd, domain.SettingsFileName), []byte(tt.content), 0o600))

			_, err := newLoader(t.TempDir(), tt.env).Load(cwd)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
