package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daydemir/ci-recovery/internal/display"
	"github.com/daydemir/ci-recovery/internal/workspace"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ci-recovery in a project",
	Long: `Initialize ci-recovery in the current directory (or --dir).

Creates .ci-recovery/ folder with:
  - config.yaml  Analysis, fix and verification commands
  - .gitignore   Keeps the attempt history out of version control`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := dirFlag
		if dir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir = cwd
		}

		stateDir, err := workspace.Init(dir, initForce)
		if err != nil {
			return err
		}

		d := display.NewWithOptions(noColor)
		d.Success(fmt.Sprintf("Initialized %s", stateDir))
		fmt.Println("\nEdit the commands to match your pipeline, then run 'ci-recovery recover'.")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing configuration")
	rootCmd.AddCommand(initCmd)
}
