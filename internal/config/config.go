package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"apifp/internal/decl"
	"apifp/internal/fingerprint"
)

// CurrentVersion is the config schema version written by Save
const CurrentVersion = 1

// DirName is the per-project directory holding config and the snapshot database
const DirName = ".apifp"

// Config represents the complete apifp configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	// Algorithm is the fingerprint hash; APIFP_ALGORITHM overrides it
	Algorithm string `json:"algorithm" mapstructure:"algorithm"`
	// Visibility is "public" (public and protected declarations) or "all"
	Visibility string `json:"visibility" mapstructure:"visibility"`

	Denylist  DenylistConfig  `json:"denylist" mapstructure:"denylist"`
	Backends  BackendsConfig  `json:"backends" mapstructure:"backends"`
	Build     BuildConfig     `json:"build" mapstructure:"build"`
	Storage   StorageConfig   `json:"storage" mapstructure:"storage"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
	Telemetry TelemetryConfig `json:"telemetry" mapstructure:"telemetry"`
}

// DenylistConfig controls synthetic element exclusion
type DenylistConfig struct {
	// File is an optional TOML overlay applied to the default denylist
	File string `json:"file,omitempty" mapstructure:"file"`
	// IncludeSynthetic keeps compiler-injected elements in surfaces
	IncludeSynthetic bool `json:"includeSynthetic" mapstructure:"includeSynthetic"`
}

// BackendsConfig contains backend-specific configuration
type BackendsConfig struct {
	// Default forces one backend instead of choosing by input suffix
	Default string       `json:"default,omitempty" mapstructure:"default"`
	CSharp  CSharpConfig `json:"csharp" mapstructure:"csharp"`
	Scip    ScipConfig   `json:"scip" mapstructure:"scip"`
}

// CSharpConfig contains C# source backend configuration
type CSharpConfig struct {
	ImplicitUsings bool `json:"implicitUsings" mapstructure:"implicitUsings"`
	Strict         bool `json:"strict" mapstructure:"strict"`
}

// ScipConfig contains SCIP backend configuration
type ScipConfig struct {
	ImplicitUsings bool `json:"implicitUsings" mapstructure:"implicitUsings"`
	Strict         bool `json:"strict" mapstructure:"strict"`
}

// BuildConfig controls surface construction
type BuildConfig struct {
	// Workers > 1 renders and hashes elements on a worker pool
	Workers int `json:"workers" mapstructure:"workers"`
	// OnUnsupported is "skip" (warn and count) or "abort"
	OnUnsupported string `json:"onUnsupported" mapstructure:"onUnsupported"`
}

// StorageConfig locates the snapshot database
type StorageConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	// File additionally receives every record at debug level
	File string `json:"file,omitempty" mapstructure:"file"`
}

// TelemetryConfig controls build metrics export
type TelemetryConfig struct {
	// MetricsFile receives build counters in node-exporter textfile format
	MetricsFile string `json:"metricsFile,omitempty" mapstructure:"metricsFile"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:    CurrentVersion,
		Algorithm:  string(fingerprint.DefaultAlgorithm),
		Visibility: decl.VisibilityPublic.String(),
		Backends: BackendsConfig{
			CSharp: CSharpConfig{ImplicitUsings: true},
			Scip:   ScipConfig{ImplicitUsings: true},
		},
		Build: BuildConfig{
			Workers:       1,
			OnUnsupported: "skip",
		},
		Storage: StorageConfig{
			Path: filepath.Join(DirName, "apifp.db"),
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("algorithm", d.Algorithm)
	v.SetDefault("visibility", d.Visibility)
	v.SetDefault("denylist.file", d.Denylist.File)
	v.SetDefault("denylist.includeSynthetic", d.Denylist.IncludeSynthetic)
	v.SetDefault("backends.default", d.Backends.Default)
	v.SetDefault("backends.csharp.implicitUsings", d.Backends.CSharp.ImplicitUsings)
	v.SetDefault("backends.csharp.strict", d.Backends.CSharp.Strict)
	v.SetDefault("backends.scip.implicitUsings", d.Backends.Scip.ImplicitUsings)
	v.SetDefault("backends.scip.strict", d.Backends.Scip.Strict)
	v.SetDefault("build.workers", d.Build.Workers)
	v.SetDefault("build.onUnsupported", d.Build.OnUnsupported)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("telemetry.metricsFile", d.Telemetry.MetricsFile)
}

// LoadConfig loads configuration from .apifp/config.json under root. A missing
// file yields the defaults; APIFP_* environment variables override either.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, DirName))

	v.SetEnvPrefix("APIFP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the config file location under root
func Path(root string) string {
	return filepath.Join(root, DirName, "config.json")
}

// Save writes the configuration to .apifp/config.json
func (c *Config) Save(root string) error {
	configPath := Path(root)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, append(data, '\n'), 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if _, err := fingerprint.ParseAlgorithm(c.Algorithm); err != nil {
		return &ConfigError{Field: "algorithm", Message: err.Error()}
	}
	if _, err := decl.ParseVisibility(c.Visibility); err != nil {
		return &ConfigError{Field: "visibility", Message: err.Error()}
	}
	if c.Build.Workers < 0 {
		return &ConfigError{Field: "build.workers", Message: "must not be negative"}
	}
	switch c.Build.OnUnsupported {
	case "", "skip", "abort":
	default:
		return &ConfigError{Field: "build.onUnsupported", Message: "must be skip or abort"}
	}
	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
