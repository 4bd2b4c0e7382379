package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// logger is shared by all commands; it stays silent until setupLogging runs
var logger = zerolog.Nop()

func setupLogging(cmd *cobra.Command, _ []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	logger = newLogger(stderr(), verbose, isTerminal(os.Stderr))
	return nil
}

// newLogger writes human readable log lines. Only warnings are shown
// unless verbose is set.
func newLogger(w io.Writer, verbose, color bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// stdout returns a writer that renders ANSI colors on every platform
func stdout() io.Writer {
	return colorable.NewColorableStdout()
}

func stderr() io.Writer {
	return colorable.NewColorableStderr()
}
