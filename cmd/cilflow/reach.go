package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/cilflow/app"
	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/config"
	"github.com/ludo-technologies/cilflow/service"
)

// ReachCommand represents the reach command
type ReachCommand struct {
	format           string
	outputPath       string
	configPath       string
	methodFilter     string
	followExceptions bool
	unmarkedOnly     bool
	color            bool
	recursive        bool
	include          []string
	exclude          []string
	jobs             int
	timeout          time.Duration
}

// NewReachCommand creates a new reach command with default settings
func NewReachCommand() *ReachCommand {
	return &ReachCommand{
		format:           string(domain.DefaultOutputFormat),
		followExceptions: domain.DefaultFollowExceptionEdges,
		unmarkedOnly:     domain.DefaultReportUnmarkedOnly,
		color:            domain.DefaultColor,
		recursive:        true,
		include:          domain.DefaultIncludePatterns,
		exclude:          domain.DefaultExcludePatterns,
		jobs:             domain.DefaultMaxGoroutines,
		timeout:          domain.DefaultTimeout,
	}
}

// CreateCobraCommand creates the cobra command for exit reachability
func (c *ReachCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reach [paths...]",
		Short: "Report blocks that cannot reach a normal method exit",
		Long: `Walk every flow graph backwards from its returning blocks and report
the blocks that were never reached. Such blocks always end in a throw or
loop forever.

By default only normal and leave edges are followed. With
--follow-exceptions a block also counts as marked when a handler it can
throw into reaches an exit.

Examples:
  cilflow reach Program.il
  cilflow reach --unmarked-only --format csv src/
  cilflow reach --follow-exceptions --method 'Parse*' bodies/`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.runReach,
	}

	cmd.Flags().StringVarP(&c.format, "format", "f", c.format, "Output format (text|json|yaml|csv)")
	cmd.Flags().StringVarP(&c.outputPath, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().StringVarP(&c.configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&c.methodFilter, "method", "", "Only analyze methods whose name matches this glob")
	cmd.Flags().BoolVar(&c.followExceptions, "follow-exceptions", c.followExceptions, "Also walk exception edges")
	cmd.Flags().BoolVar(&c.unmarkedOnly, "unmarked-only", c.unmarkedOnly, "Only list methods with unmarked blocks")
	cmd.Flags().BoolVar(&c.color, "color", c.color, "Colorize text output")
	cmd.Flags().BoolVar(&c.recursive, "recursive", c.recursive, "Recurse into subdirectories")
	cmd.Flags().StringSliceVar(&c.include, "include", c.include, "Include file patterns")
	cmd.Flags().StringSliceVar(&c.exclude, "exclude", c.exclude, "Exclude file patterns")
	cmd.Flags().IntVarP(&c.jobs, "jobs", "j", c.jobs, "Number of files processed concurrently")
	cmd.Flags().DurationVar(&c.timeout, "timeout", c.timeout, "Time limit for the whole run")

	return cmd
}

func (c *ReachCommand) runReach(cmd *cobra.Command, args []string) error {
	flags := config.NewFlagTrackerFromFlagSet(cmd.Flags())
	useColor := resolveColor(flags, c.color, cmd)

	req := domain.ReachabilityRequest{
		Paths:                args,
		OutputFormat:         domain.OutputFormat(c.format),
		OutputWriter:         commandOutput(cmd, useColor),
		OutputPath:           c.outputPath,
		Color:                domain.BoolPtr(useColor),
		FollowExceptionEdges: domain.BoolPtr(c.followExceptions),
		ReportUnmarkedOnly:   domain.BoolPtr(c.unmarkedOnly),
		MethodFilter:         c.methodFilter,
		Recursive:            c.recursive,
		IncludePatterns:      c.include,
		ExcludePatterns:      c.exclude,
		ConfigPath:           c.configPath,
		MaxGoroutines:        c.jobs,
		Timeout:              c.timeout,
	}

	reader := service.NewMethodReader()
	reachService := service.NewReachabilityService(reader, logger)
	reachService.SetProgressManager(service.NewProgressManager("Analyzing reachability"))

	useCase, err := app.NewReachabilityUseCaseBuilder().
		WithService(reachService).
		WithMethodReader(reader).
		WithFormatter(service.NewReachabilityFormatter(useColor)).
		WithConfigLoader(service.NewReachabilityConfigurationLoader(flags)).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
	if err != nil {
		return fmt.Errorf("failed to create reachability use case: %w", err)
	}

	logger.Debug().Strs("paths", args).Bool("follow_exceptions", c.followExceptions).Msg("analyzing reachability")
	return useCase.Execute(cmd.Context(), req)
}

// NewReachCmd creates and returns the reach cobra command
func NewReachCmd() *cobra.Command {
	return NewReachCommand().CreateCobraCommand()
}
