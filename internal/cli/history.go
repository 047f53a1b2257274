package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded recovery attempts",
	Long: `List recorded recovery attempts, oldest first.

Examples:
  ci-recovery history
  ci-recovery history --limit 5
  ci-recovery history --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		attempts, err := s.store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("cannot read attempt history: %w", err)
		}
		if historyLimit > 0 && len(attempts) > historyLimit {
			attempts = attempts[len(attempts)-historyLimit:]
		}

		if historyJSON {
			data, err := json.MarshalIndent(attempts, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		s.display.History(attempts)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "show only the most recent N attempts (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print attempts as JSON")
	rootCmd.AddCommand(historyCmd)
}
