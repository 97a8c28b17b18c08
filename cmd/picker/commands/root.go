// Package commands implements the picker CLI.
package commands

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/quantpick/pkg/logger"
)

// options shared by every subcommand
type rootOptions struct {
	verbose bool
}

func (o *rootOptions) logger(w io.Writer) zerolog.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Pretty: true, Output: w})
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "picker",
		Short: "Pick a fixed-size portfolio from a price history",
		Long: `picker runs the QAOA-style portfolio search locally, without the HTTP service.

Examples:
  picker select --file prices.csv --budget 2
  picker select --file prices.csv --budget 3 --depth 2 --grid 6 --json
  picker stats --file prices.csv`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newSelectCmd(opts))
	root.AddCommand(newStatsCmd(opts))

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
