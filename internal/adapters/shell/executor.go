// Package shell resolves submodules by launching a separate protobuild process.
package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// ProcessInvoker implements ports.SubmoduleInvoker by running "<executable> resolve" in the
// submodule. The redirect table is serialized onto the child's command line.
type ProcessInvoker struct {
	executable string
	cacheDir   string
	logger     ports.Logger
}

var _ ports.SubmoduleInvoker = (*ProcessInvoker)(nil)

// NewProcessInvoker creates an invoker that launches executable. An empty executable means
// the running binary.
func NewProcessInvoker(executable, cacheDir string, logger ports.Logger) *ProcessInvoker {
	return &ProcessInvoker{executable: executable, cacheDir: cacheDir, logger: logger}
}

// Invoke runs resolution for module in a child process and waits for it.
func (p *ProcessInvoker) Invoke(ctx context.Context, module *domain.ModuleInfo, opts ports.ResolveOptions) error {
	executable := p.executable
	if executable == "" {
		self, err := os.Executable()
		if err != nil {
			return zerr.Wrap(err, domain.ErrSubmoduleInvokeFailed.Error())
		}
		executable = self
	}

	args := Arguments(module.Path, opts)
	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // re-invokes this tool
	cmd.Dir = module.Path
	cmd.Env = resolveEnvironment(os.Environ(), map[string]string{domain.CacheEnvVar: p.cacheDir})

	stdout := &logWriter{logger: p.logger, level: "info"}
	stderr := &logWriter{logger: p.logger, level: "error"}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		wrapped := zerr.Wrap(domain.ErrSubmoduleInvokeFailed, module.Name)
		wrapped = zerr.With(wrapped, "exit_code", exitCode)
		return zerr.With(wrapped, "module", module.Path)
	}
	return nil
}

// Arguments builds the child command line for resolving the module at dir.
func Arguments(dir string, opts ports.ResolveOptions) []string {
	args := []string{
		"resolve",
		"--dir", dir,
		"--platform", opts.Platform,
		"--safe-resolve=" + strconv.FormatBool(opts.SafeResolve),
		"--parallel=" + strconv.FormatBool(opts.Parallel),
		"--continue-on-error=" + strconv.FormatBool(opts.ContinueOnError),
	}
	if opts.SkipNestedResolution {
		args = append(args, "--skip-nested")
	}
	return append(args, opts.Redirects.Arguments()...)
}

// logWriter forwards complete lines to the logger and buffers partial ones.
type logWriter struct {
	mu     sync.Mutex
	logger ports.Logger
	level  string
	buf    bytes.Buffer
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line: keep it for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	scanner := bufio.NewScanner(&w.buf)
	for scanner.Scan() {
		w.emit(scanner.Text())
	}
	w.buf.Reset()
}

func (w *logWriter) emit(line string) {
	if line == "" {
		return
	}
	if w.level == "info" {
		w.logger.Info(line)
		return
	}
	w.logger.Error(errors.New(line))
}

// resolveEnvironment overlays non-empty overrides on the system environment.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	result := make([]string, 0, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		k, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if v, set := overrides[k]; set && v != "" {
			continue
		}
		result = append(result, entry)
	}
	for k, v := range overrides {
		if v != "" {
			result = append(result, k+"="+v)
		}
	}
	return result
}
