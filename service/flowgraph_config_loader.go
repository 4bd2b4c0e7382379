package service

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/config"
)

// FlowGraphConfigurationLoaderImpl implements the FlowGraphConfigurationLoader interface
type FlowGraphConfigurationLoaderImpl struct {
	flags *config.FlagTracker
}

// NewFlowGraphConfigurationLoader creates a loader. flags records which
// command line flags were given explicitly; a nil tracker means none were.
func NewFlowGraphConfigurationLoader(flags *config.FlagTracker) *FlowGraphConfigurationLoaderImpl {
	return &FlowGraphConfigurationLoaderImpl{flags: flags}
}

// LoadConfig loads flow graph settings from path. An empty path searches
// upward from the working directory.
func (cl *FlowGraphConfigurationLoaderImpl) LoadConfig(path string) (*domain.FlowGraphRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return cl.configToRequest(cfg), nil
}

// LoadDefaultConfig returns the discovered configuration, or the built-in
// defaults when none can be loaded
func (cl *FlowGraphConfigurationLoaderImpl) LoadDefaultConfig() *domain.FlowGraphRequest {
	if req, err := cl.LoadConfig(""); err == nil {
		return req
	}
	return cl.configToRequest(config.DefaultConfig())
}

// MergeConfig merges command line settings into base. Paths and the output
// writer always come from override; everything else only when its flag was
// given.
func (cl *FlowGraphConfigurationLoaderImpl) MergeConfig(base *domain.FlowGraphRequest, override *domain.FlowGraphRequest) *domain.FlowGraphRequest {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	ft := cl.flags
	merged := *base

	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	merged.OutputFormat = domain.OutputFormat(ft.MergeString(string(base.OutputFormat), string(override.OutputFormat), "format"))
	merged.OutputPath = mergeOutputPath(ft, base.OutputPath, override.OutputPath, "graph", merged.OutputFormat)

	merged.ShowExceptionEdges = ft.MergeBool(base.ShowExceptionEdges, override.ShowExceptionEdges, "exception-edges")
	merged.ShowInstructions = ft.MergeBool(base.ShowInstructions, override.ShowInstructions, "instructions")
	merged.Color = ft.MergeBool(base.Color, override.Color, "color")
	merged.MethodFilter = ft.MergeString(base.MethodFilter, override.MethodFilter, "method")

	if ft.WasSet("recursive") {
		merged.Recursive = override.Recursive
	}
	merged.IncludePatterns = ft.MergeStringSlice(base.IncludePatterns, override.IncludePatterns, "include")
	merged.ExcludePatterns = ft.MergeStringSlice(base.ExcludePatterns, override.ExcludePatterns, "exclude")

	merged.MaxGoroutines = ft.MergeInt(base.MaxGoroutines, override.MaxGoroutines, "jobs")
	merged.Timeout = ft.MergeDuration(base.Timeout, override.Timeout, "timeout")

	return &merged
}

func (cl *FlowGraphConfigurationLoaderImpl) configToRequest(cfg *config.Config) *domain.FlowGraphRequest {
	if cfg == nil {
		return domain.DefaultFlowGraphRequest()
	}

	format := domain.OutputFormat(cfg.Output.Format)
	return &domain.FlowGraphRequest{
		OutputFormat:       format,
		OutputPath:         ReportPath(cfg.Output.Directory, "graph", format),
		ShowExceptionEdges: domain.BoolPtr(cfg.Graph.ShowExceptionEdges),
		ShowInstructions:   domain.BoolPtr(cfg.Graph.ShowInstructions),
		Color:              domain.BoolPtr(cfg.Output.Color),
		MethodFilter:       cfg.Graph.MethodFilter,
		Recursive:          cfg.Input.Recursive,
		IncludePatterns:    cfg.Input.IncludePatterns,
		ExcludePatterns:    cfg.Input.ExcludePatterns,
		MaxGoroutines:      cfg.Performance.MaxGoroutines,
		Timeout:            time.Duration(cfg.Performance.TimeoutSeconds) * time.Second,
	}
}

// mergeOutputPath picks the report destination. A configured report
// directory follows the merged format so the extension stays right.
func mergeOutputPath(ft *config.FlagTracker, base, override, command string, format domain.OutputFormat) string {
	if ft.WasSet("output") {
		return override
	}
	if base == "" {
		return ""
	}
	return ReportPath(filepath.Dir(base), command, format)
}
