package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors Config with pointer fields so unset keys keep their defaults
type tomlConfig struct {
	Input        tomlInputConfig        `toml:"input"`
	Output       tomlOutputConfig       `toml:"output"`
	Graph        tomlGraphConfig        `toml:"graph"`
	Reachability tomlReachabilityConfig `toml:"reachability"`
	Performance  tomlPerformanceConfig  `toml:"performance"`
}

type tomlInputConfig struct {
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	Recursive       *bool    `toml:"recursive"`
}

type tomlOutputConfig struct {
	Format    string `toml:"format"`
	Directory string `toml:"directory"`
	Color     *bool  `toml:"color"`
}

type tomlGraphConfig struct {
	ShowExceptionEdges *bool  `toml:"show_exception_edges"`
	ShowInstructions   *bool  `toml:"show_instructions"`
	MethodFilter       string `toml:"method_filter"`
}

type tomlReachabilityConfig struct {
	FollowExceptionEdges *bool `toml:"follow_exception_edges"`
	ReportUnmarkedOnly   *bool `toml:"report_unmarked_only"`
}

type tomlPerformanceConfig struct {
	MaxGoroutines  *int `toml:"max_goroutines"`
	TimeoutSeconds *int `toml:"timeout_seconds"`
}

// TomlConfigLoader handles .cilflow.toml configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig reads a TOML file and merges it into the defaults
func (l *TomlConfigLoader) LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return l.parse(data)
}

func (l *TomlConfigLoader) parse(data []byte) (*Config, error) {
	var raw tomlConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse toml config: %w", err)
	}

	cfg := DefaultConfig()
	l.merge(cfg, &raw)
	return cfg, nil
}

// merge copies every set value of raw into cfg
func (l *TomlConfigLoader) merge(cfg *Config, raw *tomlConfig) {
	if len(raw.Input.IncludePatterns) > 0 {
		cfg.Input.IncludePatterns = raw.Input.IncludePatterns
	}
	if raw.Input.ExcludePatterns != nil {
		cfg.Input.ExcludePatterns = raw.Input.ExcludePatterns
	}
	setBool(&cfg.Input.Recursive, raw.Input.Recursive)

	if raw.Output.Format != "" {
		cfg.Output.Format = raw.Output.Format
	}
	if raw.Output.Directory != "" {
		cfg.Output.Directory = raw.Output.Directory
	}
	setBool(&cfg.Output.Color, raw.Output.Color)

	setBool(&cfg.Graph.ShowExceptionEdges, raw.Graph.ShowExceptionEdges)
	setBool(&cfg.Graph.ShowInstructions, raw.Graph.ShowInstructions)
	if raw.Graph.MethodFilter != "" {
		cfg.Graph.MethodFilter = raw.Graph.MethodFilter
	}

	setBool(&cfg.Reachability.FollowExceptionEdges, raw.Reachability.FollowExceptionEdges)
	setBool(&cfg.Reachability.ReportUnmarkedOnly, raw.Reachability.ReportUnmarkedOnly)

	if raw.Performance.MaxGoroutines != nil {
		cfg.Performance.MaxGoroutines = *raw.Performance.MaxGoroutines
	}
	if raw.Performance.TimeoutSeconds != nil {
		cfg.Performance.TimeoutSeconds = *raw.Performance.TimeoutSeconds
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
