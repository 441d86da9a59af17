package domain

import (
	"runtime"
	"time"
)

// Submodule invoker names accepted in settings.
const (
	InvokerInProcess = "in-process"
	InvokerProcess   = "process"
)

// Settings holds the tool configuration after defaults, file and environment are applied.
type Settings struct {
	CacheDir         string
	Parallel         bool
	MaxParallel      int
	ContinueOnError  bool
	SafeResolve      bool
	HTTPTimeout      time.Duration
	Retries          int
	RetryDelay       time.Duration
	SubmoduleInvoker string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		CacheDir:         DefaultCachePath(),
		Parallel:         true,
		MaxParallel:      runtime.NumCPU(),
		ContinueOnError:  true,
		SafeResolve:      false,
		HTTPTimeout:      5 * time.Minute,
		Retries:          2,
		RetryDelay:       time.Second,
		SubmoduleInvoker: InvokerInProcess,
	}
}

// HostPlatform returns the platform name packages are resolved for by default.
func HostPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "Windows"
	case "darwin":
		return "MacOS"
	default:
		return "Linux"
	}
}
