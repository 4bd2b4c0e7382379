package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Output.Format != "text" {
		t.Errorf("Expected format 'text', got %s", config.Output.Format)
	}
	if !config.Graph.ShowExceptionEdges {
		t.Error("Expected exception edges to be shown by default")
	}
	if config.Reachability.FollowExceptionEdges {
		t.Error("Expected the mark walk to skip exception edges by default")
	}
	if !config.Input.Recursive {
		t.Error("Expected recursive discovery by default")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.Output.Format = "html" }},
		{"negative goroutines", func(c *Config) { c.Performance.MaxGoroutines = -1 }},
		{"negative timeout", func(c *Config) { c.Performance.TimeoutSeconds = -5 }},
		{"no include patterns", func(c *Config) { c.Input.IncludePatterns = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".cilflow.toml")
	content := `
[output]
format = "json"
color = false

[graph]
show_exception_edges = false
method_filter = "Program.*"

[reachability]
follow_exception_edges = true

[performance]
max_goroutines = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Output.Format != "json" {
		t.Errorf("Expected format json, got %s", cfg.Output.Format)
	}
	if cfg.Output.Color {
		t.Error("Expected color=false from file")
	}
	if cfg.Graph.ShowExceptionEdges {
		t.Error("Expected show_exception_edges=false from file")
	}
	if cfg.Graph.MethodFilter != "Program.*" {
		t.Errorf("Expected method filter from file, got %q", cfg.Graph.MethodFilter)
	}
	if !cfg.Reachability.FollowExceptionEdges {
		t.Error("Expected follow_exception_edges=true from file")
	}
	if cfg.Performance.MaxGoroutines != 0 {
		t.Errorf("Expected explicit max_goroutines=0, got %d", cfg.Performance.MaxGoroutines)
	}
	// untouched values keep their defaults
	if !cfg.Input.Recursive {
		t.Error("Expected default recursive=true")
	}
	if cfg.Performance.TimeoutSeconds != DefaultConfig().Performance.TimeoutSeconds {
		t.Errorf("Expected default timeout, got %d", cfg.Performance.TimeoutSeconds)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cilflow.yaml")
	content := `output:
  format: yaml
reachability:
  report_unmarked_only: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Output.Format != "yaml" {
		t.Errorf("Expected format yaml, got %s", cfg.Output.Format)
	}
	if !cfg.Reachability.ReportUnmarkedOnly {
		t.Error("Expected report_unmarked_only=true")
	}
	if !cfg.Graph.ShowExceptionEdges {
		t.Error("Expected default show_exception_edges=true")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[output\nformat = "), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("Expected error for malformed TOML")
	}

	invalid := filepath.Join(dir, "invalid.toml")
	if err := os.WriteFile(invalid, []byte("[output]\nformat = \"html\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadConfig(invalid); err == nil {
		t.Error("Expected validation error for unsupported format")
	}
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}

	if got := FindConfigFile(nested); got != "" && filepath.Dir(got) == nested {
		t.Errorf("Expected no config in fresh directory, got %s", got)
	}

	path := filepath.Join(root, ".cilflow.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if got := FindConfigFile(nested); got != path {
		t.Errorf("Expected %s, got %s", path, got)
	}
}

func TestDefaultConfigTemplate(t *testing.T) {
	rendered, err := GenerateDefaultConfigTOML()
	if err != nil {
		t.Fatalf("failed to render template: %v", err)
	}
	if rendered == "" {
		t.Fatal("Expected non-empty template")
	}

	cfg, err := LoadDefaultConfigFromTOML()
	if err != nil {
		t.Fatalf("rendered template does not parse: %v", err)
	}

	def := DefaultConfig()
	if cfg.Output.Format != def.Output.Format {
		t.Errorf("Expected format %s, got %s", def.Output.Format, cfg.Output.Format)
	}
	if len(cfg.Input.IncludePatterns) != len(def.Input.IncludePatterns) {
		t.Errorf("Expected %d include patterns, got %d", len(def.Input.IncludePatterns), len(cfg.Input.IncludePatterns))
	}
	if cfg.Performance.MaxGoroutines != def.Performance.MaxGoroutines {
		t.Errorf("Expected max_goroutines %d, got %d", def.Performance.MaxGoroutines, cfg.Performance.MaxGoroutines)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected rendered config to validate: %v", err)
	}
}
