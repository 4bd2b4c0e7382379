package domain

import (
	"context"
	"io"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ludo-technologies/cilflow/internal/il"
)

// FlowGraphRequest represents a request to build flow graphs for method files
type FlowGraphRequest struct {
	// Input files or directories
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string

	// Rendering options
	ShowExceptionEdges *bool // nil = use default (true)
	ShowInstructions   *bool // nil = use default (false)
	Color              *bool // nil = use default (true), only affects text output

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

// BlockInfo describes one basic block of a flow graph
type BlockInfo struct {
	ID            string   `json:"id" yaml:"id"`
	Handler       bool     `json:"handler" yaml:"handler"`
	StartOffset   int      `json:"start_offset" yaml:"start_offset"`
	EndOffset     int      `json:"end_offset" yaml:"end_offset"`
	Region        string   `json:"region,omitempty" yaml:"region,omitempty"`
	HandlerRegion string   `json:"handler_region,omitempty" yaml:"handler_region,omitempty"`
	Instructions  []string `json:"instructions,omitempty" yaml:"instructions,omitempty"`

	// ImmediateDominator is empty for the entry block and for blocks that
	// the entry cannot reach without raising.
	ImmediateDominator string `json:"idom,omitempty" yaml:"idom,omitempty"`
}

// EdgeInfo describes one edge of a flow graph
type EdgeInfo struct {
	ID   string `json:"id" yaml:"id"`
	Kind string `json:"kind" yaml:"kind"`
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`

	// ExceptionKinds lists the dispatch scenarios of an exception edge
	ExceptionKinds []string `json:"exception_kinds,omitempty" yaml:"exception_kinds,omitempty"`

	// LeaveBlock names the block holding the leave instruction of a leave edge
	LeaveBlock string `json:"leave_block,omitempty" yaml:"leave_block,omitempty"`
}

// RegionInfo describes one protected region or handler
type RegionInfo struct {
	ID          string `json:"id" yaml:"id"`
	Kind        string `json:"kind" yaml:"kind"`
	Clause      int    `json:"clause" yaml:"clause"`
	StartOffset int    `json:"start_offset" yaml:"start_offset"`
	EndOffset   int    `json:"end_offset,omitempty" yaml:"end_offset,omitempty"`
	Unbounded   bool   `json:"unbounded,omitempty" yaml:"unbounded,omitempty"`
	Parent      string `json:"parent,omitempty" yaml:"parent,omitempty"`
	FirstBlock  string `json:"first_block" yaml:"first_block"`
	CatchType   string `json:"catch_type,omitempty" yaml:"catch_type,omitempty"`
}

// FlowGraphStats contains aggregate counts for one method
type FlowGraphStats struct {
	Blocks         int `json:"blocks" yaml:"blocks"`
	HandlerBlocks  int `json:"handler_blocks" yaml:"handler_blocks"`
	Regions        int `json:"regions" yaml:"regions"`
	Edges          int `json:"edges" yaml:"edges"`
	ExceptionEdges int `json:"exception_edges" yaml:"exception_edges"`
	LeaveEdges     int `json:"leave_edges" yaml:"leave_edges"`
	Loops          int `json:"loops" yaml:"loops"`

	EdgesByKind        map[string]int `json:"edges_by_kind" yaml:"edges_by_kind"`
	ExceptionScenarios map[string]int `json:"exception_scenarios,omitempty" yaml:"exception_scenarios,omitempty"`
}

// MethodFlowGraph is the rendered flow graph of one method
type MethodFlowGraph struct {
	Name     string `json:"name" yaml:"name"`
	FilePath string `json:"file_path" yaml:"file_path"`

	Blocks  []BlockInfo  `json:"blocks" yaml:"blocks"`
	Edges   []EdgeInfo   `json:"edges" yaml:"edges"`
	Regions []RegionInfo `json:"regions" yaml:"regions"`

	Stats FlowGraphStats `json:"stats" yaml:"stats"`
}

// FlowGraphSummary aggregates a batch
type FlowGraphSummary struct {
	TotalFiles    int `json:"total_files" yaml:"total_files"`
	TotalMethods  int `json:"total_methods" yaml:"total_methods"`
	FailedMethods int `json:"failed_methods" yaml:"failed_methods"`
	TotalBlocks   int `json:"total_blocks" yaml:"total_blocks"`
	TotalEdges    int `json:"total_edges" yaml:"total_edges"`
	TotalRegions  int `json:"total_regions" yaml:"total_regions"`
}

// FlowGraphResponse represents the result of a flow graph build
type FlowGraphResponse struct {
	Methods []MethodFlowGraph `json:"methods" yaml:"methods"`
	Summary FlowGraphSummary  `json:"summary" yaml:"summary"`

	Warnings []string `json:"warnings" yaml:"warnings"`
	Errors   []string `json:"errors" yaml:"errors"`

	GeneratedAt string      `json:"generated_at" yaml:"generated_at"`
	Version     string      `json:"version" yaml:"version"`
	Config      interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// FlowGraphService builds flow graphs
type FlowGraphService interface {
	// Build builds the graph of every method in req.Paths. The paths must
	// already be expanded to files.
	Build(ctx context.Context, req FlowGraphRequest) (*FlowGraphResponse, error)

	// BuildMethod builds the graph of a single decoded method
	BuildMethod(ctx context.Context, body *il.MethodBody, req FlowGraphRequest) (*MethodFlowGraph, error)
}

// FlowGraphFormatter renders flow graph responses
type FlowGraphFormatter interface {
	// Format formats the response according to the specified format
	Format(response *FlowGraphResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *FlowGraphResponse, format OutputFormat, writer io.Writer) error
}

// FlowGraphConfigurationLoader loads flow graph settings from configuration files
type FlowGraphConfigurationLoader interface {
	LoadConfig(path string) (*FlowGraphRequest, error)

	LoadDefaultConfig() *FlowGraphRequest

	MergeConfig(base *FlowGraphRequest, override *FlowGraphRequest) *FlowGraphRequest
}

// DefaultFlowGraphRequest returns a request with default values
func DefaultFlowGraphRequest() *FlowGraphRequest {
	return &FlowGraphRequest{
		OutputFormat:       DefaultOutputFormat,
		ShowExceptionEdges: BoolPtr(DefaultShowExceptionEdges),
		ShowInstructions:   BoolPtr(false),
		Color:              BoolPtr(DefaultColor),
		Recursive:          true,
		IncludePatterns:    append([]string(nil), DefaultIncludePatterns...),
		ExcludePatterns:    append([]string(nil), DefaultExcludePatterns...),
		MaxGoroutines:      DefaultMaxGoroutines,
		Timeout:            DefaultTimeout,
	}
}

// Validate validates the flow graph request
func (req *FlowGraphRequest) Validate() error {
	if len(req.Paths) == 0 {
		return NewInvalidInputError("at least one path must be specified", nil)
	}

	if req.OutputWriter == nil && req.OutputPath == "" {
		return NewInvalidInputError("output writer or output path is required", nil)
	}

	if _, err := ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return NewInvalidInputError("invalid output format", err)
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
func (req *FlowGraphRequest) MatchesMethod(name string) bool {
	return matchMethod(req.MethodFilter, name)
}

func matchMethod(filter, name string) bool {
	if filter == "" {
		return true
	}
	ok, err := doublestar.Match(filter, name)
	return err == nil && ok
}
