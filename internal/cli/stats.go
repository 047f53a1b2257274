package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daydemir/ci-recovery/internal/history"
	"github.com/daydemir/ci-recovery/internal/metrics"
)

var (
	statsJSON           bool
	statsPrometheusFile string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate recovery statistics",
	Long: `Show total attempts, success rate, average duration and the most
common error messages across all recorded attempts.

Examples:
  ci-recovery stats
  ci-recovery stats --json
  ci-recovery stats --prometheus-file /var/lib/node_exporter/ci_recovery.prom`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := history.Stats(cmd.Context(), s.store)
		if err != nil {
			return fmt.Errorf("cannot read attempt history: %w", err)
		}

		if statsPrometheusFile != "" {
			if err := metrics.WriteTextfile(statsPrometheusFile, s.store); err != nil {
				return err
			}
		}

		if statsJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		s.display.Stats(stats)
		if statsPrometheusFile != "" {
			s.display.Success(fmt.Sprintf("Wrote metrics to %s", statsPrometheusFile))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print statistics as JSON")
	statsCmd.Flags().StringVar(&statsPrometheusFile, "prometheus-file", "", "also write Prometheus textfile metrics to this path")
	rootCmd.AddCommand(statsCmd)
}
