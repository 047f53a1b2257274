package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/daydemir/ci-recovery/internal/workspace"
)

// EnvPrefix is the prefix for environment overrides, e.g. CI_RECOVERY_LOG_LEVEL
const EnvPrefix = "CI_RECOVERY"

// Config represents the ci-recovery configuration
type Config struct {
	Commands    CommandsConfig    `mapstructure:"commands"`
	Remediation RemediationConfig `mapstructure:"remediation"`
	Log         LogConfig         `mapstructure:"log"`
	History     HistoryConfig     `mapstructure:"history"`
	Recovery    RecoveryConfig    `mapstructure:"recovery"`
}

// CommandsConfig holds the shell commands the engine runs
type CommandsConfig struct {
	TypeCheck           string `mapstructure:"type_check"`
	Lint                string `mapstructure:"lint"`
	Build               string `mapstructure:"build"`
	DependencyCheck     string `mapstructure:"dependency_check"` // Empty disables the check
	Verify              string `mapstructure:"verify"`
	LintFix             string `mapstructure:"lint_fix"`
	InstallModule       string `mapstructure:"install_module"` // {module} is replaced by the module name
	CleanDependencies   string `mapstructure:"clean_dependencies"`
	InstallDependencies string `mapstructure:"install_dependencies"`
	SchemaGenerate      string `mapstructure:"schema_generate"`
}

// RemediationConfig tunes the fix routines
type RemediationConfig struct {
	UnusedPrefix       string   `mapstructure:"unused_prefix"`
	ReturnType         string   `mapstructure:"return_type"`
	CompilerConfigFile string   `mapstructure:"compiler_config_file"`
	SchemaKeywords     []string `mapstructure:"schema_keywords"`
}

// LogConfig controls the process log
type LogConfig struct {
	File   string `mapstructure:"file"` // Relative to the project root
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

// HistoryConfig selects the attempt store
type HistoryConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | memory
	Path   string `mapstructure:"path"`   // Relative to the project root
}

// RecoveryConfig contains controller settings
type RecoveryConfig struct {
	MaxPasses int  `mapstructure:"max_passes"`
	Strict    bool `mapstructure:"strict"`
}

// Load reads the config from the project root. A missing file yields the
// defaults, still subject to environment overrides.
func Load(projectDir string) (*Config, error) {
	return LoadFile(workspace.ConfigPath(projectDir))
}

// LoadFile reads the config from an explicit path. A missing file yields the
// defaults.
func LoadFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v)

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Commands: CommandsConfig{
			TypeCheck:           "npm run type-check --workspaces",
			Lint:                "npm run lint --workspaces",
			Build:               "npm run build --workspaces",
			Verify:              "npm run build --workspace=packages/core",
			LintFix:             "npm run lint --workspaces -- --fix",
			InstallModule:       "npm install {module}",
			CleanDependencies:   "rm -rf node_modules package-lock.json",
			InstallDependencies: "npm install",
			SchemaGenerate:      "npm run db:generate",
		},
		Remediation: RemediationConfig{
			UnusedPrefix:       "_",
			ReturnType:         "any",
			CompilerConfigFile: "tsconfig.json",
			SchemaKeywords:     []string{"prisma", "@prisma"},
		},
		Log: LogConfig{
			File:   "ci-recovery.log",
			Level:  "info",
			Format: "console",
		},
		History: HistoryConfig{
			Driver: "sqlite",
			Path:   workspace.Dir + "/history.db",
		},
		Recovery: RecoveryConfig{
			MaxPasses: 1,
		},
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	switch c.History.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("history.driver: invalid value %q, must be one of: sqlite, memory", c.History.Driver)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: invalid value %q, must be one of: console, json", c.Log.Format)
	}
	if c.Recovery.MaxPasses < 1 {
		return fmt.Errorf("recovery.max_passes: must be at least 1")
	}
	if c.Commands.Verify == "" {
		return fmt.Errorf("commands.verify: field is required")
	}
	return nil
}

// registerDefaults makes every key known to viper so env overrides apply
// even when no config file exists.
func registerDefaults(v *viper.Viper) {
	for section, values := range ToMap(DefaultConfig()) {
		for key, value := range values.(map[string]any) {
			v.SetDefault(section+"."+key, value)
		}
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Commands.Verify == "" {
		cfg.Commands.Verify = defaults.Commands.Verify
	}
	if cfg.Commands.InstallModule == "" {
		cfg.Commands.InstallModule = defaults.Commands.InstallModule
	}
	if cfg.Remediation.UnusedPrefix == "" {
		cfg.Remediation.UnusedPrefix = defaults.Remediation.UnusedPrefix
	}
	if cfg.Remediation.ReturnType == "" {
		cfg.Remediation.ReturnType = defaults.Remediation.ReturnType
	}
	if cfg.Remediation.CompilerConfigFile == "" {
		cfg.Remediation.CompilerConfigFile = defaults.Remediation.CompilerConfigFile
	}
	if len(cfg.Remediation.SchemaKeywords) == 0 {
		cfg.Remediation.SchemaKeywords = defaults.Remediation.SchemaKeywords
	}
	if cfg.Log.File == "" {
		cfg.Log.File = defaults.Log.File
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
	if cfg.History.Driver == "" {
		cfg.History.Driver = defaults.History.Driver
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaults.History.Path
	}
	if cfg.Recovery.MaxPasses == 0 {
		cfg.Recovery.MaxPasses = defaults.Recovery.MaxPasses
	}
}
