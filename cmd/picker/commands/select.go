package commands

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/quantpick/internal/modules/quantum"
	"github.com/aristath/quantpick/internal/modules/selection"
	"github.com/aristath/quantpick/internal/modules/statistics"
)

type selectOptions struct {
	file    string
	params  selection.Params
	workers int
	maxEval int
	seed    uint64
	policy  string
	json    bool
}

func newSelectCmd(root *rootOptions) *cobra.Command {
	opts := &selectOptions{}

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select a portfolio from a CSV of daily closes",
		Long: `Reads a CSV whose first column is a date and whose other columns are
closing prices per ticker, computes mean returns and covariance, then runs the
angle grid search and prints the picked tickers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "CSV price file (required)")
	f.IntVar(&opts.params.Budget, "budget", 2, "number of assets to pick")
	f.IntVar(&opts.params.Depth, "depth", 1, "circuit layers")
	f.IntVar(&opts.params.Grid, "grid", 4, "angle grid points per axis")
	f.IntVar(&opts.params.Shots, "shots", 1024, "samples per circuit")
	f.IntVar(&opts.workers, "workers", runtime.NumCPU(), "circuits evaluated concurrently")
	f.IntVar(&opts.maxEval, "max-evaluations", selection.DefaultMaxEvaluations, "reject larger searches (0 disables)")
	f.Uint64Var(&opts.seed, "seed", 42, "sampler seed")
	f.StringVar(&opts.policy, "degenerate-policy", "fail", "zero-variance handling in the fallback (fail|rank)")
	f.BoolVar(&opts.json, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSelect(cmd *cobra.Command, root *rootOptions, opts *selectOptions) error {
	log := root.logger(cmd.ErrOrStderr())

	policy, err := selection.ParseDegeneratePolicy(opts.policy)
	if err != nil {
		return err
	}

	provider := statistics.NewProvider(nil, nil, 0, log)
	stats, err := provider.FromFile(cmd.Context(), opts.file)
	if err != nil {
		return err
	}

	simulator := quantum.NewSimulator(quantum.SimulatorConfig{Seed: opts.seed})
	selector := selection.NewSelector(simulator, selection.Options{
		Workers:        opts.workers,
		MaxEvaluations: opts.maxEval,
		Degenerate:     policy,
	}, nil, log)

	result, err := selector.Select(cmd.Context(), stats.Problem(), opts.params)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "picks:       %s\n", strings.Join(result.Picks, ", "))
	fmt.Fprintf(out, "source:      %s\n", result.Source)
	fmt.Fprintf(out, "evaluations: %d\n", result.Evaluations)
	if score := result.BestScore(); score != nil {
		fmt.Fprintf(out, "best score:  %.6f\n", *score)
	}
	return nil
}
