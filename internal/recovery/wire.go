package recovery

import (
	"go.uber.org/zap"

	"github.com/daydemir/ci-recovery/internal/config"
	"github.com/daydemir/ci-recovery/internal/history"
	"github.com/daydemir/ci-recovery/internal/patcher"
	"github.com/daydemir/ci-recovery/internal/remediation"
	"github.com/daydemir/ci-recovery/internal/runner"
	"github.com/daydemir/ci-recovery/internal/vcs"
)

// ControllerConfig maps the loaded configuration onto controller settings
func ControllerConfig(cfg *config.Config) Config {
	return Config{
		TypeCheckCommand:       cfg.Commands.TypeCheck,
		LintCommand:            cfg.Commands.Lint,
		BuildCommand:           cfg.Commands.Build,
		DependencyCheckCommand: cfg.Commands.DependencyCheck,
		VerifyCommand:          cfg.Commands.Verify,
		Strict:                 cfg.Recovery.Strict,
	}
}

// RemediationConfig maps the loaded configuration onto dispatcher settings
func RemediationConfig(cfg *config.Config) remediation.Config {
	return remediation.Config{
		LintFixCommand:             cfg.Commands.LintFix,
		InstallModuleCommand:       cfg.Commands.InstallModule,
		CleanDependenciesCommand:   cfg.Commands.CleanDependencies,
		InstallDependenciesCommand: cfg.Commands.InstallDependencies,
		SchemaGenerateCommand:      cfg.Commands.SchemaGenerate,
		UnusedPrefix:               cfg.Remediation.UnusedPrefix,
		ReturnType:                 cfg.Remediation.ReturnType,
		CompilerConfigFile:         cfg.Remediation.CompilerConfigFile,
		SchemaKeywords:             cfg.Remediation.SchemaKeywords,
	}
}

// NewForProject assembles a controller that runs commands with bash in
// projectDir and records attempts in store. It fails when bash cannot be found.
func NewForProject(projectDir string, cfg *config.Config, store history.Store, logger *zap.Logger) (*Controller, error) {
	r := runner.NewShellRunner(projectDir, logger)
	if err := r.Check(); err != nil {
		return nil, err
	}
	d := remediation.NewDispatcher(RemediationConfig(cfg), r, patcher.New(projectDir), logger)

	c := New(ControllerConfig(cfg), r, d, store, logger)
	c.Revision = func() string { return vcs.Revision(projectDir) }
	return c, nil
}
