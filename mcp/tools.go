package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all cilflow MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	s.AddTool(mcp.NewTool("build_flow_graph",
		mcp.WithDescription("Build control flow graphs of CIL method bodies: basic blocks, protected regions, leave chains through finally handlers and exception dispatch edges"),
		mcp.WithString("path",
			mcp.Description("Method file (.il, .yaml, .yml, .json) or directory to read. Either path or source is required")),
		mcp.WithString("source",
			mcp.Description("Inline method listing in .il syntax, used instead of path")),
		mcp.WithString("method",
			mcp.Description("Only build methods whose name matches this glob")),
		mcp.WithBoolean("exception_edges",
			mcp.Description("Include exception edges (default: true)")),
		mcp.WithBoolean("instructions",
			mcp.Description("List the instructions of every block (default: false)")),
		mcp.WithString("output_mode",
			mcp.Enum(outputModeSummary, outputModeDetailed, outputModeFull),
			mcp.Description("summary: counts per method; detailed: blocks, edges and regions; full: the complete report (default: summary)")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of methods to return, 0 = no limit (default: 20)")),
	), h.HandleBuildFlowGraph)

	s.AddTool(mcp.NewTool("find_unreachable_blocks",
		mcp.WithDescription("Find blocks of CIL methods from which no normal method exit can be reached"),
		mcp.WithString("path",
			mcp.Description("Method file (.il, .yaml, .yml, .json) or directory to read. Either path or source is required")),
		mcp.WithString("source",
			mcp.Description("Inline method listing in .il syntax, used instead of path")),
		mcp.WithString("method",
			mcp.Description("Only analyze methods whose name matches this glob")),
		mcp.WithBoolean("follow_exceptions",
			mcp.Description("Also walk exception edges (default: false)")),
		mcp.WithString("output_mode",
			mcp.Enum(outputModeSummary, outputModeDetailed, outputModeFull),
			mcp.Description("summary: counts per method; detailed: unmarked ranges; full: the complete report (default: summary)")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of methods to return, 0 = no limit (default: 20)")),
	), h.HandleFindUnreachableBlocks)
}
