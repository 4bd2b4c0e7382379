package service

import (
	"fmt"
	"time"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/config"
)

// ReachabilityConfigurationLoaderImpl implements the ReachabilityConfigurationLoader interface
type ReachabilityConfigurationLoaderImpl struct {
	flags *config.FlagTracker
}

// NewReachabilityConfigurationLoader creates a loader that respects explicitly set flags
func NewReachabilityConfigurationLoader(flags *config.FlagTracker) *ReachabilityConfigurationLoaderImpl {
	return &ReachabilityConfigurationLoaderImpl{flags: flags}
}

// LoadConfig loads reachability settings from path
func (cl *ReachabilityConfigurationLoaderImpl) LoadConfig(path string) (*domain.ReachabilityRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return cl.configToRequest(cfg), nil
}

// LoadDefaultConfig returns the discovered configuration or the defaults
func (cl *ReachabilityConfigurationLoaderImpl) LoadDefaultConfig() *domain.ReachabilityRequest {
	if req, err := cl.LoadConfig(""); err == nil {
		return req
	}
	return cl.configToRequest(config.DefaultConfig())
}

// MergeConfig merges command line settings into base
func (cl *ReachabilityConfigurationLoaderImpl) MergeConfig(base *domain.ReachabilityRequest, override *domain.ReachabilityRequest) *domain.ReachabilityRequest {
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
	merged.OutputPath = mergeOutputPath(ft, base.OutputPath, override.OutputPath, "reach", merged.OutputFormat)
	merged.Color = ft.MergeBool(base.Color, override.Color, "color")

	merged.FollowExceptionEdges = ft.MergeBool(base.FollowExceptionEdges, override.FollowExceptionEdges, "follow-exceptions")
	merged.ReportUnmarkedOnly = ft.MergeBool(base.ReportUnmarkedOnly, override.ReportUnmarkedOnly, "unmarked-only")
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

func (cl *ReachabilityConfigurationLoaderImpl) configToRequest(cfg *config.Config) *domain.ReachabilityRequest {
	if cfg == nil {
		return domain.DefaultReachabilityRequest()
	}

	format := domain.OutputFormat(cfg.Output.Format)
	return &domain.ReachabilityRequest{
		OutputFormat:         format,
		OutputPath:           ReportPath(cfg.Output.Directory, "reach", format),
		Color:                domain.BoolPtr(cfg.Output.Color),
		FollowExceptionEdges: domain.BoolPtr(cfg.Reachability.FollowExceptionEdges),
		ReportUnmarkedOnly:   domain.BoolPtr(cfg.Reachability.ReportUnmarkedOnly),
		MethodFilter:         cfg.Graph.MethodFilter,
		Recursive:            cfg.Input.Recursive,
		IncludePatterns:      cfg.Input.IncludePatterns,
		ExcludePatterns:      cfg.Input.ExcludePatterns,
		MaxGoroutines:        cfg.Performance.MaxGoroutines,
		Timeout:              time.Duration(cfg.Performance.TimeoutSeconds) * time.Second,
	}
}
