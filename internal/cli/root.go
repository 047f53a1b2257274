package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version  = "0.1.0"
	cfgFile  string
	dirFlag  string
	noColor  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ci-recovery",
	Short: "Diagnose and repair failing CI builds",
	Long: `ci-recovery inspects the output of a build pipeline, classifies the
failures, applies rule-based fixes and re-verifies the build.

Get started:
  ci-recovery init        Create .ci-recovery/config.yaml
  ci-recovery recover     Run one diagnose, fix and verify pass
  ci-recovery stats       Show aggregate results over past attempts
  ci-recovery history     List recorded attempts`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env files are fine
		_ = godotenv.Load()
		if dirFlag != "" {
			_ = godotenv.Load(filepath.Join(dirFlag, ".env"))
		}
		return nil
	},
}

// Execute runs the root command and prints any error
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && err != errRecoveryFailed {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .ci-recovery/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "C", "", "project directory (default is the nearest directory containing .ci-recovery/)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate(fmt.Sprintf("ci-recovery version %s\n", version))
}
