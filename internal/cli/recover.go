package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daydemir/ci-recovery/internal/recovery"
	"github.com/daydemir/ci-recovery/internal/types"
)

var (
	recoverPasses int
	recoverStrict bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Diagnose and repair the build",
	Long: `Run the type-check, lint and build commands, classify their failures,
apply rule-based fixes and run the verification build.

Exits 0 when the build is healthy (or was repaired) and 1 when manual
intervention is required. Every attempt is recorded in the attempt history.

Examples:
  ci-recovery recover               Single pass (default)
  ci-recovery recover --passes 3    Retry up to 3 passes
  ci-recovery recover --strict      Treat unrecognised failures as failures`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if cmd.Flags().Changed("strict") {
			s.config.Recovery.Strict = recoverStrict
		}
		passes := s.config.Recovery.MaxPasses
		if cmd.Flags().Changed("passes") {
			passes = recoverPasses
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		controller, err := recovery.NewForProject(s.projectDir, s.config, s.store, s.logger.Logger)
		if err != nil {
			return err
		}
		pass := 0
		controller.OnAttempt = func(a *types.RecoveryAttempt) {
			pass++
			s.display.Pass(pass, passes)
			s.display.Attempt(a)
		}

		if !controller.RecoverWithRetries(ctx, passes) {
			return errRecoveryFailed
		}
		return nil
	},
}

func init() {
	recoverCmd.Flags().IntVarP(&recoverPasses, "passes", "n", 1, "maximum diagnose, fix and verify passes")
	recoverCmd.Flags().BoolVar(&recoverStrict, "strict", false, "verify the build when analysis fails without recognisable errors")
	rootCmd.AddCommand(recoverCmd)
}
