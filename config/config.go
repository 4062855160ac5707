// Package config handles loader configuration loading and management.
package config

// Config holds all loader settings.
type Config struct {
	Capture    CaptureConfig    `yaml:"capture"`
	Extensions ExtensionsConfig `yaml:"extensions"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CaptureConfig controls which optional document payloads are retained.
type CaptureConfig struct {
	// Extras retains application-specific extras payloads on every entity.
	Extras bool `yaml:"extras"`

	// Names retains entity names and enables by-name lookups.
	Names bool `yaml:"names"`
}

// ExtensionsConfig controls extension handling.
type ExtensionsConfig struct {
	// AllowList names extensions that may appear in a document's
	// extensionsRequired without failing validation, in addition to any
	// extensions with registered decoders.
	AllowList []string `yaml:"allow_list"`
}

// ResolverConfig holds buffer resolution settings.
type ResolverConfig struct {
	// Workers is the pool size for concurrent external buffer fetches.
	Workers int `yaml:"workers"`

	// MaxBufferSizeMB caps any single declared buffer length. Zero means
	// no cap.
	MaxBufferSizeMB int `yaml:"max_buffer_size_mb"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Extras: true,
			Names:  true,
		},
		Extensions: ExtensionsConfig{
			AllowList: nil,
		},
		Resolver: ResolverConfig{
			Workers:         4,
			MaxBufferSizeMB: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
