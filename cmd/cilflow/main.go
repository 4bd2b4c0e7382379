package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/cilflow/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "cilflow",
	Short: "Control flow graphs for CIL method bodies",
	Long: `cilflow builds control flow graphs for CIL method bodies, including
protected regions, leave chains through finally handlers and exception
dispatch edges, and reports blocks that can never reach a normal exit.

Methods are read from .il listings or from YAML and JSON method documents.`,
	Version:           version.Short(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewGraphCmd())
	rootCmd.AddCommand(NewReachCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(stderr(), err, isTerminal(os.Stderr))
		os.Exit(1)
	}
}
