package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/cilflow/domain"
)

// Config represents the main configuration structure
type Config struct {
	// Input holds method file discovery settings
	Input InputConfig `mapstructure:"input" yaml:"input" toml:"input"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" toml:"output"`

	// Graph holds flow graph rendering options
	Graph GraphConfig `mapstructure:"graph" yaml:"graph" toml:"graph"`

	// Reachability holds mark walk options
	Reachability ReachabilityConfig `mapstructure:"reachability" yaml:"reachability" toml:"reachability"`

	// Performance holds batch execution limits
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance" toml:"performance"`
}

// InputConfig holds file selection settings
type InputConfig struct {
	// IncludePatterns specifies doublestar patterns of files to include
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns" toml:"include_patterns"`

	// ExcludePatterns specifies doublestar patterns of files to skip
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns" toml:"exclude_patterns"`

	// Recursive controls whether directories are walked recursively
	Recursive bool `mapstructure:"recursive" yaml:"recursive" toml:"recursive"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv, dot
	Format string `mapstructure:"format" yaml:"format" toml:"format"`

	// Directory, when set, receives report files instead of stdout
	Directory string `mapstructure:"directory" yaml:"directory" toml:"directory"`

	// Color enables ANSI colors in text output
	Color bool `mapstructure:"color" yaml:"color" toml:"color"`
}

// GraphConfig holds flow graph rendering options
type GraphConfig struct {
	// ShowExceptionEdges includes exception dispatch edges in reports
	ShowExceptionEdges bool `mapstructure:"show_exception_edges" yaml:"show_exception_edges" toml:"show_exception_edges"`

	// ShowInstructions lists the instructions of every block
	ShowInstructions bool `mapstructure:"show_instructions" yaml:"show_instructions" toml:"show_instructions"`

	// MethodFilter keeps only methods whose name matches this glob
	MethodFilter string `mapstructure:"method_filter" yaml:"method_filter" toml:"method_filter"`
}

// ReachabilityConfig holds mark walk options
type ReachabilityConfig struct {
	// FollowExceptionEdges lets the walk cross exception dispatch edges
	FollowExceptionEdges bool `mapstructure:"follow_exception_edges" yaml:"follow_exception_edges" toml:"follow_exception_edges"`

	// ReportUnmarkedOnly hides methods whose blocks all reach an exit
	ReportUnmarkedOnly bool `mapstructure:"report_unmarked_only" yaml:"report_unmarked_only" toml:"report_unmarked_only"`
}

// PerformanceConfig holds batch execution limits
type PerformanceConfig struct {
	// MaxGoroutines bounds concurrent file processing, 0 = unbounded
	MaxGoroutines int `mapstructure:"max_goroutines" yaml:"max_goroutines" toml:"max_goroutines"`

	// TimeoutSeconds is the budget for a whole batch
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			IncludePatterns: append([]string(nil), domain.DefaultIncludePatterns...),
			ExcludePatterns: append([]string(nil), domain.DefaultExcludePatterns...),
			Recursive:       true,
		},
		Output: OutputConfig{
			Format: string(domain.DefaultOutputFormat),
			Color:  domain.DefaultColor,
		},
		Graph: GraphConfig{
			ShowExceptionEdges: domain.DefaultShowExceptionEdges,
		},
		Reachability: ReachabilityConfig{
			FollowExceptionEdges: domain.DefaultFollowExceptionEdges,
			ReportUnmarkedOnly:   domain.DefaultReportUnmarkedOnly,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  domain.DefaultMaxGoroutines,
			TimeoutSeconds: domain.DefaultTimeoutSeconds,
		},
	}
}

// LoadConfig loads configuration from file or returns default config.
// TOML files go through the TOML loader; YAML and JSON files are read with viper.
// An empty path triggers discovery from the current directory upward.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		if wd, err := os.Getwd(); err == nil {
			configPath = FindConfigFile(wd)
		}
	}

	if configPath == "" {
		return DefaultConfig(), nil
	}

	var (
		cfg *Config
		err error
	)
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		cfg, err = NewTomlConfigLoader().LoadConfig(configPath)
	default:
		cfg, err = loadWithViper(configPath)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadWithViper reads a YAML or JSON configuration file on top of the defaults
func loadWithViper(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// FindConfigFile walks up from startDir and returns the first configuration
// file found, or "" when there is none.
func FindConfigFile(startDir string) string {
	dir := startDir
	for {
		for _, candidate := range SupportedConfigFiles() {
			path := filepath.Join(dir, candidate)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// SupportedConfigFiles lists config file names in priority order
func SupportedConfigFiles() []string {
	return []string{
		".cilflow.toml",
		"cilflow.toml",
		".cilflow.yaml",
		".cilflow.yml",
		"cilflow.yaml",
		"cilflow.yml",
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if _, err := domain.ParseOutputFormat(c.Output.Format); err != nil {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, csv, dot", c.Output.Format)
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines must be >= 0, got %d", c.Performance.MaxGoroutines)
	}

	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	if len(c.Input.IncludePatterns) == 0 {
		return fmt.Errorf("input.include_patterns must not be empty")
	}

	return nil
}
