// Package config provides the settings loader for protobuild.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileSettingsLoader implements ports.SettingsLoader using a YAML file.
// The working directory's protobuild.yaml takes precedence over the user config file.
type FileSettingsLoader struct {
	Filename string

	// ConfigDir returns the user configuration directory. Defaults to os.UserConfigDir.
	ConfigDir func() (string, error)
	// Getenv reads environment overrides. Defaults to os.Getenv.
	Getenv func(string) string
}

var _ ports.SettingsLoader = (*FileSettingsLoader)(nil)

// NewLoader creates a FileSettingsLoader with the default file name and environment.
func NewLoader() *FileSettingsLoader {
	return &FileSettingsLoader{
		Filename:  domain.SettingsFileName,
		ConfigDir: os.UserConfigDir,
		Getenv:    os.Getenv,
	}
}

// Load returns the settings for cwd: defaults, then the settings file, then the environment.
func (l *FileSettingsLoader) Load(cwd string) (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	path, err := l.discover(cwd)
	if err != nil {
		return nil, err
	}
	if path != "" {
		file, err := Load(path)
		if err != nil {
			return nil, err
		}
		if err := apply(&settings, file); err != nil {
			return nil, zerr.With(err, "path", path)
		}
	}

	if err := l.applyEnv(&settings); err != nil {
		return nil, err
	}

	if err := validate(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// discover returns the settings file to use, or "" when there is none.
func (l *FileSettingsLoader) discover(cwd string) (string, error) {
	candidates := []string{filepath.Join(cwd, l.Filename)}

	if l.ConfigDir != nil {
		if dir, err := l.ConfigDir(); err == nil && dir != "" {
			candidates = append(candidates, filepath.Join(dir, "protobuild", "config.yaml"))
		}
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", candidate)
		}
	}
	return "", nil
}

// Load reads and decodes a settings file.
func Load(path string) (*SettingsFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from the working directory or user config dir
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var file SettingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}
	return &file, nil
}

func apply(s *domain.Settings, f *SettingsFile) error {
	if f.CacheDir != nil {
		s.CacheDir = *f.CacheDir
	}
	if f.Parallel != nil {
		s.Parallel = *f.Parallel
	}
	if f.MaxParallel != nil {
		s.MaxParallel = *f.MaxParallel
	}
	if f.ContinueOnError != nil {
		s.ContinueOnError = *f.ContinueOnError
	}
	if f.SafeResolve != nil {
		s.SafeResolve = *f.SafeResolve
	}
	if f.Retries != nil {
		s.Retries = *f.Retries
	}
	if f.SubmoduleInvoker != nil {
		s.SubmoduleInvoker = *f.SubmoduleInvoker
	}

	if f.HTTPTimeout != nil {
		d, err := time.ParseDuration(*f.HTTPTimeout)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "key", "httpTimeout")
		}
		s.HTTPTimeout = d
	}
	if f.RetryDelay != nil {
		d, err := time.ParseDuration(*f.RetryDelay)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "key", "retryDelay")
		}
		s.RetryDelay = d
	}
	return nil
}

func (l *FileSettingsLoader) applyEnv(s *domain.Settings) error {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if dir := getenv(domain.CacheEnvVar); dir != "" {
		s.CacheDir = dir
	}
	if raw := getenv(domain.ParallelEnvVar); raw != "" {
		parallel, err := strconv.ParseBool(raw)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "env", domain.ParallelEnvVar)
		}
		s.Parallel = parallel
	}
	return nil
}

func validate(s *domain.Settings) error {
	switch s.SubmoduleInvoker {
	case domain.InvokerInProcess, domain.InvokerProcess:
	default:
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "unknown submodule invoker"), "submoduleInvoker", s.SubmoduleInvoker)
	}
	if s.MaxParallel < 1 {
		s.MaxParallel = 1
	}
	if s.Retries < 0 {
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "retries must not be negative"), "retries", s.Retries)
	}
	if s.CacheDir == "" {
		s.CacheDir = domain.DefaultCachePath()
	}
	return nil
}
