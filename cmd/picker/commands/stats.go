package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/quantpick/internal/modules/statistics"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print mean returns and variances for a CSV of daily closes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := statistics.NewProvider(nil, nil, 0, root.logger(cmd.ErrOrStderr()))
			stats, err := provider.FromFile(cmd.Context(), file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TICKER\tMEAN\tVARIANCE")
			for i, ticker := range stats.Tickers {
				fmt.Fprintf(tw, "%s\t%.6f\t%.6f\n", ticker, stats.Mu[i], stats.Cov[i][i])
			}
			fmt.Fprintf(tw, "\nobservations: %d\n", stats.Observations)
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV price file (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print mu and cov as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
