package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/mcp"
	"github.com/ludo-technologies/cilflow/service"
)

const throwing = `.method Throwing
  0: ldarg.0
  1: brtrue 4
  2: ldnull
  3: throw
  4: ret
.end
`

const guarded = `.method Guarded
  0: nop
  1: leave 5
  2: pop
  3: leave 5
  4: endfinally
  5: ret
  .try 0 to 2 catch System.Exception handler 2 to 4
  .try 0 to 4 finally handler 4 to 5
.end
`

const broken = `.method Broken
  0: endfinally
  1: ret
.end
`

func setupConfig(t *testing.T) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), ".cilflow.toml")
	require.NoError(t, os.WriteFile(configFile, []byte("[graph]\nshow_exception_edges = false\n"), 0o644))
	return configFile
}

func setupMethodFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "methods.il")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runTool(
	t *testing.T,
	arguments interface{},
	handlerFunc func(*mcp.HandlerSet, context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error),
) *mcplib.CallToolResult {
	t.Helper()
	deps := mcp.NewTestDependencies(service.NewMethodReader(), setupConfig(t))
	h := mcp.NewHandlerSet(deps)

	req := mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Arguments: arguments,
		},
	}

	res, err := handlerFunc(h, context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcplib.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decode(t *testing.T, res *mcplib.CallToolResult, v interface{}) {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), v))
}

func TestHandlers_ArgumentErrors(t *testing.T) {
	tests := map[string]struct {
		arguments    interface{}
		expectPrefix string
	}{
		"invalid_arguments_format": {
			arguments:    "not-a-map",
			expectPrefix: "invalid arguments format",
		},
		"neither_path_nor_source": {
			arguments:    map[string]interface{}{},
			expectPrefix: "either path or source is required",
		},
		"both_path_and_source": {
			arguments:    map[string]interface{}{"path": "x.il", "source": throwing},
			expectPrefix: "path and source are mutually exclusive",
		},
		"path_not_exist": {
			arguments:    map[string]interface{}{"path": "/non/existing/path"},
			expectPrefix: "path does not exist",
		},
		"bad_output_mode": {
			arguments:    map[string]interface{}{"source": throwing, "output_mode": "everything"},
			expectPrefix: "unknown output_mode",
		},
		"negative_max_results": {
			arguments:    map[string]interface{}{"source": throwing, "max_results": float64(-1)},
			expectPrefix: "max_results must be >= 0",
		},
	}

	handlers := map[string]func(*mcp.HandlerSet, context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error){
		"build_flow_graph":        (*mcp.HandlerSet).HandleBuildFlowGraph,
		"find_unreachable_blocks": (*mcp.HandlerSet).HandleFindUnreachableBlocks,
	}

	for tool, handler := range handlers {
		for name, tt := range tests {
			t.Run(tool+"/"+name, func(t *testing.T) {
				res := runTool(t, tt.arguments, handler)
				assert.True(t, res.IsError)
				assert.Contains(t, resultText(t, res), tt.expectPrefix)
			})
		}
	}
}

func TestHandleBuildFlowGraph_InlineSummary(t *testing.T) {
	res := runTool(t, map[string]interface{}{"source": guarded + throwing}, (*mcp.HandlerSet).HandleBuildFlowGraph)

	var got struct {
		Methods []struct {
			File    string `json:"file"`
			Method  string `json:"method"`
			Regions int    `json:"regions"`
			Blocks  int    `json:"blocks"`
		} `json:"methods"`
		Truncated bool                    `json:"truncated"`
		Summary   domain.FlowGraphSummary `json:"summary"`
	}
	decode(t, res, &got)

	require.Len(t, got.Methods, 2)
	assert.Equal(t, "Guarded", got.Methods[0].Method)
	assert.Equal(t, "<source>", got.Methods[0].File)
	assert.Equal(t, 4, got.Methods[0].Regions)
	assert.Equal(t, 3, got.Methods[1].Blocks)
	assert.False(t, got.Truncated)
	assert.Equal(t, 2, got.Summary.TotalMethods)
}

func TestHandleBuildFlowGraph_MaxResultsAndFilter(t *testing.T) {
	res := runTool(t, map[string]interface{}{
		"source":      guarded + throwing,
		"max_results": float64(1),
	}, (*mcp.HandlerSet).HandleBuildFlowGraph)

	var got struct {
		Methods   []map[string]interface{} `json:"methods"`
		Truncated bool                     `json:"truncated"`
	}
	decode(t, res, &got)
	assert.Len(t, got.Methods, 1)
	assert.True(t, got.Truncated)

	res = runTool(t, map[string]interface{}{
		"source": guarded + throwing,
		"method": "Throw*",
	}, (*mcp.HandlerSet).HandleBuildFlowGraph)
	decode(t, res, &got)
	require.Len(t, got.Methods, 1)
	assert.Equal(t, "Throwing", got.Methods[0]["method"])
}

func TestHandleBuildFlowGraph_MalformedMethodIsReported(t *testing.T) {
	res := runTool(t, map[string]interface{}{"source": broken + throwing}, (*mcp.HandlerSet).HandleBuildFlowGraph)

	var got struct {
		Methods []map[string]interface{} `json:"methods"`
		Errors  []string                 `json:"errors"`
		Summary domain.FlowGraphSummary  `json:"summary"`
	}
	decode(t, res, &got)
	assert.Len(t, got.Methods, 1)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "Broken")
	assert.Equal(t, 1, got.Summary.FailedMethods)
}

func TestHandleBuildFlowGraph_UnparsableSource(t *testing.T) {
	res := runTool(t, map[string]interface{}{"source": ".method X\n  zz: nop\n.end\n"}, (*mcp.HandlerSet).HandleBuildFlowGraph)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "flow graph build failed")
}

func TestHandleBuildFlowGraph_PathUsesConfig(t *testing.T) {
	path := setupMethodFile(t, guarded)

	// The configuration hides exception edges
	res := runTool(t, map[string]interface{}{"path": path, "output_mode": "full"}, (*mcp.HandlerSet).HandleBuildFlowGraph)
	var got domain.FlowGraphResponse
	decode(t, res, &got)
	require.Len(t, got.Methods, 1)
	for _, e := range got.Methods[0].Edges {
		assert.NotEqual(t, "exception", e.Kind)
	}

	// An explicit argument wins over the configuration
	res = runTool(t, map[string]interface{}{"path": path, "output_mode": "full", "exception_edges": true}, (*mcp.HandlerSet).HandleBuildFlowGraph)
	got = domain.FlowGraphResponse{}
	decode(t, res, &got)
	require.Len(t, got.Methods, 1)
	kinds := map[string]bool{}
	for _, e := range got.Methods[0].Edges {
		kinds[e.Kind] = true
	}
	assert.True(t, kinds["exception"])
}

func TestHandleFindUnreachableBlocks_Inline(t *testing.T) {
	res := runTool(t, map[string]interface{}{"source": throwing + guarded}, (*mcp.HandlerSet).HandleFindUnreachableBlocks)

	var summary struct {
		Methods []struct {
			Method         string `json:"method"`
			UnmarkedBlocks int    `json:"unmarked_blocks"`
		} `json:"methods"`
		Summary domain.ReachabilitySummary `json:"summary"`
	}
	decode(t, res, &summary)
	require.Len(t, summary.Methods, 1)
	assert.Equal(t, "Throwing", summary.Methods[0].Method)
	assert.Equal(t, 1, summary.Methods[0].UnmarkedBlocks)
	assert.Equal(t, 2, summary.Summary.TotalMethods)
	assert.Equal(t, 1, summary.Summary.MethodsWithUnmarked)

	res = runTool(t, map[string]interface{}{"source": throwing, "output_mode": "detailed"}, (*mcp.HandlerSet).HandleFindUnreachableBlocks)
	var detailed struct {
		Issues []struct {
			Method string   `json:"method"`
			Start  string   `json:"start"`
			End    string   `json:"end"`
			Blocks []string `json:"blocks"`
		} `json:"issues"`
	}
	decode(t, res, &detailed)
	require.Len(t, detailed.Issues, 1)
	assert.Equal(t, "IL_0002", detailed.Issues[0].Start)
	assert.Equal(t, "IL_0003", detailed.Issues[0].End)
	assert.Len(t, detailed.Issues[0].Blocks, 1)
}

func TestHandleFindUnreachableBlocks_Path(t *testing.T) {
	path := setupMethodFile(t, throwing)

	res := runTool(t, map[string]interface{}{"path": path, "output_mode": "full"}, (*mcp.HandlerSet).HandleFindUnreachableBlocks)
	var got domain.ReachabilityResponse
	decode(t, res, &got)
	require.Len(t, got.Methods, 1)
	assert.Equal(t, path, got.Methods[0].FilePath)
	assert.Equal(t, 2, got.Methods[0].MarkedBlocks)
}
