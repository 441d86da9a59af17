package config

// SettingsFile represents the structure of protobuild.yaml.
// Pointer fields distinguish an omitted key from an explicit zero value.
type SettingsFile struct {
	CacheDir         *string `yaml:"cacheDir"`
	Parallel         *bool   `yaml:"parallel"`
	MaxParallel      *int    `yaml:"maxParallel"`
	ContinueOnError  *bool   `yaml:"continueOnError"`
	SafeResolve      *bool   `yaml:"safeResolve"`
	HTTPTimeout      *string `yaml:"httpTimeout"`
	Retries          *int    `yaml:"retries"`
	RetryDelay       *string `yaml:"retryDelay"`
	SubmoduleInvoker *string `yaml:"submoduleInvoker"`
}
