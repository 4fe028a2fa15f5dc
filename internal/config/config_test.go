package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Algorithm != "xxh3-128" {
		t.Errorf("Algorithm = %q, want xxh3-128", cfg.Algorithm)
	}
	if cfg.Visibility != "public" {
		t.Errorf("Visibility = %q, want public", cfg.Visibility)
	}
	if !cfg.Backends.CSharp.ImplicitUsings {
		t.Error("C# implicit usings should be enabled by default")
	}
	if cfg.Build.OnUnsupported != "skip" {
		t.Errorf("OnUnsupported = %q, want skip", cfg.Build.OnUnsupported)
	}
	if cfg.Storage.Path != filepath.Join(".apifp", "apifp.db") {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Denylist.IncludeSynthetic {
		t.Error("synthetic elements should be excluded by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"defaults", func(*Config) {}, "", false},
		{"md5", func(c *Config) { c.Algorithm = "md5" }, "", false},
		{"visibility all", func(c *Config) { c.Visibility = "all" }, "", false},
		{"version 2 unsupported", func(c *Config) { c.Version = 2 }, "version", true},
		{"version 0 unsupported", func(c *Config) { c.Version = 0 }, "version", true},
		{"unknown algorithm", func(c *Config) { c.Algorithm = "sha1" }, "algorithm", true},
		{"unknown visibility", func(c *Config) { c.Visibility = "internal" }, "visibility", true},
		{"negative workers", func(c *Config) { c.Build.Workers = -1 }, "build.workers", true},
		{"unknown policy", func(c *Config) { c.Build.OnUnsupported = "ignore" }, "build.onUnsupported", true},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				ce, ok := err.(*ConfigError)
				if !ok {
					t.Fatalf("Validate() error type = %T, want *ConfigError", err)
				}
				if ce.Field != tt.field {
					t.Errorf("Field = %q, want %q", ce.Field, tt.field)
				}
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "version", Message: "unsupported version 99"}
	want := "config error in field 'version': unsupported version 99"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, ".apifp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `{
		"version": 1,
		"algorithm": "md5",
		"backends": {"csharp": {"strict": true}},
		"build": {"workers": 4}
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Algorithm != "md5" {
		t.Errorf("Algorithm = %q, want md5", cfg.Algorithm)
	}
	if !cfg.Backends.CSharp.Strict {
		t.Error("C# strict mode should be enabled per config")
	}
	if !cfg.Backends.CSharp.ImplicitUsings {
		t.Error("unset keys should keep their defaults")
	}
	if cfg.Build.Workers != 4 {
		t.Errorf("Build.Workers = %d, want 4", cfg.Build.Workers)
	}
	if cfg.Build.OnUnsupported != "skip" {
		t.Errorf("Build.OnUnsupported = %q, want skip", cfg.Build.OnUnsupported)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("APIFP_ALGORITHM", "blake2b-128")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Algorithm != "blake2b-128" {
		t.Errorf("Algorithm = %q, want blake2b-128", cfg.Algorithm)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, ".apifp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(tmpDir); err == nil {
		t.Error("LoadConfig() accepted malformed JSON")
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Visibility = "all"
	cfg.Telemetry.MetricsFile = "metrics.prom"
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(Path(tmpDir)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
