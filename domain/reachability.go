package domain

import (
	"context"
	"io"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ludo-technologies/cilflow/internal/il"
)

// ReachabilityRequest represents a request to find blocks that cannot reach
// a normal method exit
type ReachabilityRequest struct {
	// Input files or directories
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
	Color        *bool // nil = use default (true), only affects text output

	// Analysis options
	FollowExceptionEdges *bool // nil = use default (false)
	ReportUnmarkedOnly   *bool // nil = use default (false)

	// MethodFilter keeps only methods whose name matches this glob
	MethodFilter string

	// File selection
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Configuration
	ConfigPath string

	// Performance
	MaxGoroutines int
	Timeout       time.Duration
}

// UnmarkedRange is a run of consecutive unmarked blocks
type UnmarkedRange struct {
	StartOffset  int      `json:"start_offset" yaml:"start_offset"`
	EndOffset    int      `json:"end_offset" yaml:"end_offset"`
	Blocks       []string `json:"blocks" yaml:"blocks"`
	Instructions []string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
}

// MethodReachability is the reachability result for one method
type MethodReachability struct {
	Name     string `json:"name" yaml:"name"`
	FilePath string `json:"file_path" yaml:"file_path"`

	TotalBlocks    int     `json:"total_blocks" yaml:"total_blocks"`
	MarkedBlocks   int     `json:"marked_blocks" yaml:"marked_blocks"`
	UnmarkedBlocks int     `json:"unmarked_blocks" yaml:"unmarked_blocks"`
	MarkedRatio    float64 `json:"marked_ratio" yaml:"marked_ratio"`

	// MarkedOffsets lists the first instruction offset of every marked block
	MarkedOffsets []int `json:"marked_offsets" yaml:"marked_offsets"`

	Unmarked []UnmarkedRange `json:"unmarked,omitempty" yaml:"unmarked,omitempty"`
}

// ReachabilitySummary aggregates a batch
type ReachabilitySummary struct {
	TotalFiles          int     `json:"total_files" yaml:"total_files"`
	TotalMethods        int     `json:"total_methods" yaml:"total_methods"`
	FailedMethods       int     `json:"failed_methods" yaml:"failed_methods"`
	MethodsWithUnmarked int     `json:"methods_with_unmarked" yaml:"methods_with_unmarked"`
	TotalBlocks         int     `json:"total_blocks" yaml:"total_blocks"`
	UnmarkedBlocks      int     `json:"unmarked_blocks" yaml:"unmarked_blocks"`
	OverallMarkedRatio  float64 `json:"overall_marked_ratio" yaml:"overall_marked_ratio"`
}

// ReachabilityResponse represents the result of a reachability run
type ReachabilityResponse struct {
	Methods []MethodReachability `json:"methods" yaml:"methods"`
	Summary ReachabilitySummary  `json:"summary" yaml:"summary"`

	Warnings []string `json:"warnings" yaml:"warnings"`
	Errors   []string `json:"errors" yaml:"errors"`

	GeneratedAt string      `json:"generated_at" yaml:"generated_at"`
	Version     string      `json:"version" yaml:"version"`
	Config      interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// ReachabilityService runs the backward mark walk over flow graphs
type ReachabilityService interface {
	// Analyze analyzes every method in req.Paths. The paths must already be
	// expanded to files.
	Analyze(ctx context.Context, req ReachabilityRequest) (*ReachabilityResponse, error)

	// AnalyzeMethod analyzes a single decoded method
	AnalyzeMethod(ctx context.Context, body *il.MethodBody, req ReachabilityRequest) (*MethodReachability, error)
}

// ReachabilityFormatter renders reachability responses
type ReachabilityFormatter interface {
	Format(response *ReachabilityResponse, format OutputFormat) (string, error)

	Write(response *ReachabilityResponse, format OutputFormat, writer io.Writer) error
}

// ReachabilityConfigurationLoader loads reachability settings from configuration files
type ReachabilityConfigurationLoader interface {
	LoadConfig(path string) (*ReachabilityRequest, error)

	LoadDefaultConfig() *ReachabilityRequest

	MergeConfig(base *ReachabilityRequest, override *ReachabilityRequest) *ReachabilityRequest
}

// DefaultReachabilityRequest returns a request with default values
func DefaultReachabilityRequest() *ReachabilityRequest {
	return &ReachabilityRequest{
		OutputFormat:         DefaultOutputFormat,
		Color:                BoolPtr(DefaultColor),
		FollowExceptionEdges: BoolPtr(DefaultFollowExceptionEdges),
		ReportUnmarkedOnly:   BoolPtr(DefaultReportUnmarkedOnly),
		Recursive:            true,
		IncludePatterns:      append([]string(nil), DefaultIncludePatterns...),
		ExcludePatterns:      append([]string(nil), DefaultExcludePatterns...),
		MaxGoroutines:        DefaultMaxGoroutines,
		Timeout:              DefaultTimeout,
	}
}

// Validate validates the reachability request
func (req *ReachabilityRequest) Validate() error {
	if len(req.Paths) == 0 {
		return NewInvalidInputError("at least one path must be specified", nil)
	}

	if req.OutputWriter == nil && req.OutputPath == "" {
		return NewInvalidInputError("output writer or output path is required", nil)
	}

	switch req.OutputFormat {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV:
	default:
		return NewInvalidInputError("invalid output format", NewUnsupportedFormatError(string(req.OutputFormat)))
	}

	if req.MethodFilter != "" && !doublestar.ValidatePattern(req.MethodFilter) {
		return NewInvalidInputError("invalid method filter: "+req.MethodFilter, nil)
	}

	if req.MaxGoroutines < 0 {
		return NewInvalidInputError("max goroutines must be >= 0", nil)
	}

	return nil
}

// MatchesMethod reports whether a method passes the request's method filter
func (req *ReachabilityRequest) MatchesMethod(name string) bool {
	return matchMethod(req.MethodFilter, name)
}
