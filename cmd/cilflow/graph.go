package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/cilflow/app"
	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/config"
	"github.com/ludo-technologies/cilflow/service"
)

// GraphCommand represents the graph command
type GraphCommand struct {
	format         string
	outputPath     string
	configPath     string
	methodFilter   string
	exceptionEdges bool
	instructions   bool
	color          bool
	recursive      bool
	include        []string
	exclude        []string
	jobs           int
	timeout        time.Duration
}

// NewGraphCommand creates a new graph command with default settings
func NewGraphCommand() *GraphCommand {
	return &GraphCommand{
		format:         string(domain.DefaultOutputFormat),
		exceptionEdges: domain.DefaultShowExceptionEdges,
		color:          domain.DefaultColor,
		recursive:      true,
		include:        domain.DefaultIncludePatterns,
		exclude:        domain.DefaultExcludePatterns,
		jobs:           domain.DefaultMaxGoroutines,
		timeout:        domain.DefaultTimeout,
	}
}

// CreateCobraCommand creates the cobra command for flow graph building
func (c *GraphCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [paths...]",
		Short: "Build control flow graphs for CIL methods",
		Long: `Build the control flow graph of every method found in the given files
or directories and print the blocks, edges and protected regions.

Exception edges carry the dispatch scenarios under which an exception can
travel them. Leave edges follow a leave instruction through each finally
handler it has to run.

Examples:
  cilflow graph Program.il
  cilflow graph --format dot --method 'Main' Program.il | dot -Tsvg > main.svg
  cilflow graph --format json --output reports/ src/
  cilflow graph --exception-edges=false --instructions bodies/`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.runGraph,
	}

	cmd.Flags().StringVarP(&c.format, "format", "f", c.format, "Output format (text|json|yaml|csv|dot)")
	cmd.Flags().StringVarP(&c.outputPath, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().StringVarP(&c.configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&c.methodFilter, "method", "", "Only build methods whose name matches this glob")
	cmd.Flags().BoolVar(&c.exceptionEdges, "exception-edges", c.exceptionEdges, "Include exception edges")
	cmd.Flags().BoolVar(&c.instructions, "instructions", false, "List the instructions of every block")
	cmd.Flags().BoolVar(&c.color, "color", c.color, "Colorize text output")
	cmd.Flags().BoolVar(&c.recursive, "recursive", c.recursive, "Recurse into subdirectories")
	cmd.Flags().StringSliceVar(&c.include, "include", c.include, "Include file patterns")
	cmd.Flags().StringSliceVar(&c.exclude, "exclude", c.exclude, "Exclude file patterns")
	cmd.Flags().IntVarP(&c.jobs, "jobs", "j", c.jobs, "Number of files processed concurrently")
	cmd.Flags().DurationVar(&c.timeout, "timeout", c.timeout, "Time limit for the whole run")

	return cmd
}

func (c *GraphCommand) runGraph(cmd *cobra.Command, args []string) error {
	flags := config.NewFlagTrackerFromFlagSet(cmd.Flags())
	useColor := resolveColor(flags, c.color, cmd)

	req := domain.FlowGraphRequest{
		Paths:              args,
		OutputFormat:       domain.OutputFormat(c.format),
		OutputWriter:       commandOutput(cmd, useColor),
		OutputPath:         c.outputPath,
		ShowExceptionEdges: domain.BoolPtr(c.exceptionEdges),
		ShowInstructions:   domain.BoolPtr(c.instructions),
		Color:              domain.BoolPtr(useColor),
		MethodFilter:       c.methodFilter,
		Recursive:          c.recursive,
		IncludePatterns:    c.include,
		ExcludePatterns:    c.exclude,
		ConfigPath:         c.configPath,
		MaxGoroutines:      c.jobs,
		Timeout:            c.timeout,
	}

	reader := service.NewMethodReader()
	graphService := service.NewFlowGraphService(reader, logger)
	graphService.SetProgressManager(service.NewProgressManager("Building flow graphs"))

	useCase, err := app.NewFlowGraphUseCaseBuilder().
		WithService(graphService).
		WithMethodReader(reader).
		WithFormatter(service.NewFlowGraphFormatter(useColor)).
		WithConfigLoader(service.NewFlowGraphConfigurationLoader(flags)).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
	if err != nil {
		return fmt.Errorf("failed to create flow graph use case: %w", err)
	}

	logger.Debug().Strs("paths", args).Str("format", c.format).Msg("building flow graphs")
	return useCase.Execute(cmd.Context(), req)
}

// resolveColor turns color off when stdout is not a terminal, unless
// --color was given explicitly
func resolveColor(flags *config.FlagTracker, requested bool, cmd *cobra.Command) bool {
	if flags.WasSet("color") {
		return requested
	}
	if cmd.OutOrStdout() != os.Stdout || !isTerminal(os.Stdout) {
		flags.Set("color")
		return false
	}
	return requested
}

// commandOutput picks the report writer. Colored text goes through a
// colorable stdout so ANSI sequences also render on Windows consoles.
func commandOutput(cmd *cobra.Command, useColor bool) io.Writer {
	if useColor && cmd.OutOrStdout() == os.Stdout {
		return stdout()
	}
	return cmd.OutOrStdout()
}

// NewGraphCmd creates and returns the graph cobra command
func NewGraphCmd() *cobra.Command {
	return NewGraphCommand().CreateCobraCommand()
}
