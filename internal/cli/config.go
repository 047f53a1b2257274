package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/daydemir/ci-recovery/internal/config"
	"github.com/daydemir/ci-recovery/internal/workspace"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "View or modify configuration",
	Long: `View or modify ci-recovery configuration.

Examples:
  ci-recovery config                               Show all config
  ci-recovery config commands.verify               Get a specific value
  ci-recovery config commands.verify "make build"  Set a value`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			dir, err := projectDir()
			if err != nil {
				return err
			}
			configPath = workspace.ConfigPath(dir)
		}

		switch len(args) {
		case 0:
			return showConfig(configPath)
		case 1:
			return getConfigValue(configPath, args[0])
		case 2:
			return setConfigValue(configPath, args[0], args[1])
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(configPath string) error {
	content, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no config at %s, run 'ci-recovery init' first", configPath)
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	fmt.Println(string(content))
	return nil
}

// getConfigValue prints the effective value, including defaults and
// environment overrides
func getConfigValue(configPath, key string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	v := viper.New()
	if err := v.MergeConfigMap(config.ToMap(cfg)); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	value := v.Get(key)
	if value == nil {
		return fmt.Errorf("key not found: %s", key)
	}

	fmt.Println(value)
	return nil
}

func setConfigValue(configPath, key, value string) error {
	if !config.IsKnownKey(key) {
		return fmt.Errorf("unknown config key: %s", key)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// Handle array values (comma-separated)
	if strings.Contains(value, ",") && config.IsListKey(key) {
		v.Set(key, strings.Split(value, ","))
	} else {
		v.Set(key, value)
	}

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}
