package main

import (
	"flag"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/ludo-technologies/cilflow/internal/version"
	"github.com/ludo-technologies/cilflow/mcp"
)

const serverName = "cilflow"

func main() {
	configPath := flag.String("config", "", "Configuration file path (default: search from the working directory)")
	verbose := flag.Bool("verbose", false, "Log debug output to stderr")
	flag.Parse()

	// stdout carries JSON-RPC, so logs go to stderr
	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		Level(level).With().Timestamp().Logger()

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	mcp.RegisterTools(server, mcp.NewHandlerSet(mcp.NewDependencies(*configPath, logger)))

	logger.Info().
		Str("version", version.Short()).
		Strs("tools", []string{"build_flow_graph", "find_unreachable_blocks"}).
		Msg("server ready, waiting for MCP client connection")

	if err := mcpserver.ServeStdio(server); err != nil {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
