package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/config"
	"github.com/ludo-technologies/cilflow/internal/il"
)

const (
	outputModeSummary  = "summary"
	outputModeDetailed = "detailed"
	outputModeFull     = "full"

	defaultMaxResults = 20

	// inlineSource is reported as the file path of methods given inline
	inlineSource = "<source>"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet constructs a handler set.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	return &HandlerSet{deps: deps}
}

// toolInput holds the arguments shared by all tools
type toolInput struct {
	path       string
	source     string
	method     string
	outputMode string
	maxResults int
	args       map[string]interface{}
	flags      *config.FlagTracker
}

// parseToolInput validates the common arguments. Every argument the caller
// supplied is recorded in the flag tracker under its command line name so it
// takes precedence over the configuration file.
func parseToolInput(request mcp.CallToolRequest) (*toolInput, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("invalid arguments format")
	}

	in := &toolInput{
		outputMode: outputModeSummary,
		maxResults: defaultMaxResults,
		args:       args,
		flags:      config.NewFlagTracker(),
	}
	// Reports are returned, never written to disk
	in.flags.Set("format")
	in.flags.Set("output")

	in.path, _ = args["path"].(string)
	in.source, _ = args["source"].(string)
	switch {
	case in.path == "" && in.source == "":
		return nil, mcp.NewToolResultError("either path or source is required")
	case in.path != "" && in.source != "":
		return nil, mcp.NewToolResultError("path and source are mutually exclusive")
	case in.path != "":
		if _, err := os.Stat(in.path); os.IsNotExist(err) {
			return nil, mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", in.path))
		}
	}

	if m, ok := args["method"].(string); ok {
		in.method = m
		in.flags.Set("method")
	}

	if om, ok := args["output_mode"].(string); ok {
		switch om {
		case outputModeSummary, outputModeDetailed, outputModeFull:
			in.outputMode = om
		default:
			return nil, mcp.NewToolResultError(fmt.Sprintf("unknown output_mode: %s", om))
		}
	}

	if mr, ok := args["max_results"].(float64); ok {
		if mr < 0 {
			return nil, mcp.NewToolResultError("max_results must be >= 0")
		}
		in.maxResults = int(mr)
	}

	return in, nil
}

// boolArg reads an optional boolean argument and marks flagName as given
func (in *toolInput) boolArg(key, flagName string, def bool) *bool {
	if v, ok := in.args[key].(bool); ok {
		in.flags.Set(flagName)
		return domain.BoolPtr(v)
	}
	return domain.BoolPtr(def)
}

// parseSource decodes the inline listing and applies the method filter
func (in *toolInput) parseSource(matches func(string) bool) ([]*il.MethodBody, error) {
	bodies, err := il.ParseAssembly(strings.NewReader(in.source))
	if err != nil {
		return nil, err
	}
	kept := bodies[:0]
	for _, b := range bodies {
		if matches(b.Name) {
			kept = append(kept, b)
		}
	}
	return kept, nil
}

// HandleBuildFlowGraph handles the build_flow_graph tool
func (h *HandlerSet) HandleBuildFlowGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, errResult := parseToolInput(request)
	if errResult != nil {
		return errResult, nil
	}

	req := *domain.DefaultFlowGraphRequest()
	req.OutputFormat = domain.OutputFormatJSON
	req.OutputWriter = io.Discard
	req.ConfigPath = h.deps.ConfigPath()
	req.MethodFilter = in.method
	req.ShowExceptionEdges = in.boolArg("exception_edges", "exception-edges", domain.DefaultShowExceptionEdges)
	req.ShowInstructions = in.boolArg("instructions", "instructions", false)

	var (
		result *domain.FlowGraphResponse
		err    error
	)
	if in.source != "" {
		result, err = h.buildInline(ctx, in, req)
	} else {
		req.Paths = []string{in.path}
		uc, buildErr := h.deps.BuildFlowGraphUseCase(in.flags)
		if buildErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create flow graph builder: %v", buildErr)), nil
		}
		result, err = uc.BuildAndReturn(ctx, req)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("flow graph build failed: %v", err)), nil
	}

	var responseData interface{}
	switch in.outputMode {
	case outputModeFull:
		responseData = result
	case outputModeDetailed:
		responseData = formatFlowGraphDetailed(result, in.maxResults)
	default:
		responseData = formatFlowGraphSummary(result, in.maxResults)
	}

	return jsonResult(responseData)
}

// buildInline builds every method of an inline listing
func (h *HandlerSet) buildInline(ctx context.Context, in *toolInput, req domain.FlowGraphRequest) (*domain.FlowGraphResponse, error) {
	bodies, err := in.parseSource(req.MatchesMethod)
	if err != nil {
		return nil, err
	}

	svc := h.deps.FlowGraphService()
	result := &domain.FlowGraphResponse{Methods: []domain.MethodFlowGraph{}, Warnings: []string{}, Errors: []string{}}
	result.Summary.TotalFiles = 1
	for _, body := range bodies {
		result.Summary.TotalMethods++
		mg, err := svc.BuildMethod(ctx, body, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			result.Summary.FailedMethods++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		mg.FilePath = inlineSource
		result.Methods = append(result.Methods, *mg)
		result.Summary.TotalBlocks += mg.Stats.Blocks
		result.Summary.TotalEdges += mg.Stats.Edges
		result.Summary.TotalRegions += mg.Stats.Regions
	}
	if len(bodies) == 0 {
		result.Warnings = append(result.Warnings, "No methods found to build")
	}
	return result, nil
}

// HandleFindUnreachableBlocks handles the find_unreachable_blocks tool
func (h *HandlerSet) HandleFindUnreachableBlocks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, errResult := parseToolInput(request)
	if errResult != nil {
		return errResult, nil
	}

	req := *domain.DefaultReachabilityRequest()
	req.OutputFormat = domain.OutputFormatJSON
	req.OutputWriter = io.Discard
	req.ConfigPath = h.deps.ConfigPath()
	req.MethodFilter = in.method
	req.FollowExceptionEdges = in.boolArg("follow_exceptions", "follow-exceptions", domain.DefaultFollowExceptionEdges)

	var (
		result *domain.ReachabilityResponse
		err    error
	)
	if in.source != "" {
		result, err = h.analyzeInline(ctx, in, req)
	} else {
		req.Paths = []string{in.path}
		uc, buildErr := h.deps.BuildReachabilityUseCase(in.flags)
		if buildErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create reachability analyzer: %v", buildErr)), nil
		}
		result, err = uc.AnalyzeAndReturn(ctx, req)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reachability analysis failed: %v", err)), nil
	}

	var responseData interface{}
	switch in.outputMode {
	case outputModeFull:
		responseData = result
	case outputModeDetailed:
		responseData = formatReachabilityDetailed(result, in.maxResults)
	default:
		responseData = formatReachabilitySummary(result, in.maxResults)
	}

	return jsonResult(responseData)
}

func (h *HandlerSet) analyzeInline(ctx context.Context, in *toolInput, req domain.ReachabilityRequest) (*domain.ReachabilityResponse, error) {
	bodies, err := in.parseSource(req.MatchesMethod)
	if err != nil {
		return nil, err
	}

	svc := h.deps.ReachabilityService()
	result := &domain.ReachabilityResponse{Methods: []domain.MethodReachability{}, Warnings: []string{}, Errors: []string{}}
	sum := &result.Summary
	sum.TotalFiles = 1
	for _, body := range bodies {
		sum.TotalMethods++
		mr, err := svc.AnalyzeMethod(ctx, body, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			sum.FailedMethods++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		mr.FilePath = inlineSource
		result.Methods = append(result.Methods, *mr)
		sum.TotalBlocks += mr.TotalBlocks
		sum.UnmarkedBlocks += mr.UnmarkedBlocks
		if mr.UnmarkedBlocks > 0 {
			sum.MethodsWithUnmarked++
		}
	}
	sum.OverallMarkedRatio = 1.0
	if sum.TotalBlocks > 0 {
		sum.OverallMarkedRatio = float64(sum.TotalBlocks-sum.UnmarkedBlocks) / float64(sum.TotalBlocks)
	}
	if len(bodies) == 0 {
		result.Warnings = append(result.Warnings, "No methods found to analyze")
	}
	return result, nil
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// limit returns n capped at maxResults; zero means no cap
func limit(n, maxResults int) int {
	if maxResults > 0 && n > maxResults {
		return maxResults
	}
	return n
}

func formatFlowGraphSummary(result *domain.FlowGraphResponse, maxResults int) map[string]interface{} {
	type MethodCounts struct {
		File           string `json:"file"`
		Method         string `json:"method"`
		Blocks         int    `json:"blocks"`
		HandlerBlocks  int    `json:"handler_blocks"`
		Regions        int    `json:"regions"`
		Edges          int    `json:"edges"`
		ExceptionEdges int    `json:"exception_edges"`
		LeaveEdges     int    `json:"leave_edges"`
		Loops          int    `json:"loops"`
	}

	n := limit(len(result.Methods), maxResults)
	methods := make([]MethodCounts, 0, n)
	for _, m := range result.Methods[:n] {
		methods = append(methods, MethodCounts{
			File:           m.FilePath,
			Method:         m.Name,
			Blocks:         m.Stats.Blocks,
			HandlerBlocks:  m.Stats.HandlerBlocks,
			Regions:        m.Stats.Regions,
			Edges:          m.Stats.Edges,
			ExceptionEdges: m.Stats.ExceptionEdges,
			LeaveEdges:     m.Stats.LeaveEdges,
			Loops:          m.Stats.Loops,
		})
	}

	return map[string]interface{}{
		"methods":   methods,
		"truncated": n < len(result.Methods),
		"summary":   result.Summary,
		"warnings":  result.Warnings,
		"errors":    result.Errors,
	}
}

func formatFlowGraphDetailed(result *domain.FlowGraphResponse, maxResults int) map[string]interface{} {
	n := limit(len(result.Methods), maxResults)
	return map[string]interface{}{
		"methods":   result.Methods[:n],
		"truncated": n < len(result.Methods),
		"summary":   result.Summary,
		"warnings":  result.Warnings,
		"errors":    result.Errors,
	}
}

func formatReachabilitySummary(result *domain.ReachabilityResponse, maxResults int) map[string]interface{} {
	type MethodCounts struct {
		File           string  `json:"file"`
		Method         string  `json:"method"`
		TotalBlocks    int     `json:"total_blocks"`
		UnmarkedBlocks int     `json:"unmarked_blocks"`
		MarkedRatio    float64 `json:"marked_ratio"`
	}

	// Only methods with unmarked code are listed; the summary covers all
	var methods []MethodCounts
	total := 0
	for _, m := range result.Methods {
		if m.UnmarkedBlocks == 0 {
			continue
		}
		total++
		if maxResults > 0 && len(methods) >= maxResults {
			continue
		}
		methods = append(methods, MethodCounts{
			File:           m.FilePath,
			Method:         m.Name,
			TotalBlocks:    m.TotalBlocks,
			UnmarkedBlocks: m.UnmarkedBlocks,
			MarkedRatio:    m.MarkedRatio,
		})
	}

	return map[string]interface{}{
		"methods":   methods,
		"truncated": len(methods) < total,
		"summary":   result.Summary,
		"warnings":  result.Warnings,
		"errors":    result.Errors,
	}
}

func formatReachabilityDetailed(result *domain.ReachabilityResponse, maxResults int) map[string]interface{} {
	type Issue struct {
		File         string   `json:"file"`
		Method       string   `json:"method"`
		StartOffset  string   `json:"start"`
		EndOffset    string   `json:"end"`
		Blocks       []string `json:"blocks"`
		Instructions []string `json:"instructions,omitempty"`
	}

	issues := []Issue{}
	total := 0
	for _, m := range result.Methods {
		for _, r := range m.Unmarked {
			total++
			if maxResults > 0 && len(issues) >= maxResults {
				continue
			}
			issues = append(issues, Issue{
				File:         m.FilePath,
				Method:       m.Name,
				StartOffset:  il.FormatOffset(r.StartOffset),
				EndOffset:    il.FormatOffset(r.EndOffset),
				Blocks:       r.Blocks,
				Instructions: r.Instructions,
			})
		}
	}

	return map[string]interface{}{
		"issues":    issues,
		"truncated": len(issues) < total,
		"summary":   result.Summary,
		"warnings":  result.Warnings,
		"errors":    result.Errors,
	}
}
