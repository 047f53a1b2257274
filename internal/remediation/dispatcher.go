// Package remediation maps recognised build errors to deterministic fixes.
package remediation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/daydemir/ci-recovery/internal/patcher"
	"github.com/daydemir/ci-recovery/internal/runner"
	"github.com/daydemir/ci-recovery/internal/types"
)

// Config holds the commands and conventions the fix routines use
type Config struct {
	LintFixCommand             string
	InstallModuleCommand       string // {module} is replaced by the quoted module name
	CleanDependenciesCommand   string
	InstallDependenciesCommand string
	SchemaGenerateCommand      string

	UnusedPrefix       string
	ReturnType         string
	CompilerConfigFile string
	SchemaKeywords     []string
}

// Dispatcher selects and runs the fix routine for each build error
type Dispatcher struct {
	config  Config
	runner  runner.Runner
	patcher *patcher.Patcher
	logger  *zap.Logger

	// OnDispatch, when set, is called for every error before it is handled
	OnDispatch func(types.BuildError)
}

// NewDispatcher creates a dispatcher
func NewDispatcher(cfg Config, r runner.Runner, p *patcher.Patcher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		config:  cfg,
		runner:  r,
		patcher: p,
		logger:  logger,
	}
}

// session tracks once-per-attempt remediations
type session struct {
	done map[string]bool
}

// once reports whether key is being handled for the first time in this session
func (s *session) once(key string) bool {
	if s.done[key] {
		return false
	}
	s.done[key] = true
	return true
}

// Dispatch remediates errs in order and returns the actions taken.
// It never panics and never stops early: a failed remediation is recorded
// as an action and the next error is still handled.
func (d *Dispatcher) Dispatch(ctx context.Context, errs []types.BuildError) []string {
	s := &session{done: make(map[string]bool)}
	var actions []string

	for _, e := range errs {
		if d.OnDispatch != nil {
			d.OnDispatch(e)
		}
		actions = append(actions, d.dispatchOne(ctx, s, e)...)
	}

	return actions
}

func (d *Dispatcher) dispatchOne(ctx context.Context, s *session, e types.BuildError) (actions []string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("remediation panicked",
				zap.String("category", e.Category.String()),
				zap.String("message", e.Message),
				zap.Any("panic", r))
			actions = append(actions, fmt.Sprintf("Failed to remediate %s: %v", e.Category, r))
		}
	}()

	switch e.Category {
	case types.CategoryTypeError:
		return d.fixTypeError(ctx, s, e)
	case types.CategoryLintIssue:
		return d.fixLintIssue(ctx, s)
	case types.CategoryDependencyIssue:
		return d.fixDependencyIssue(ctx, s)
	case types.CategoryConfigurationIssue:
		return d.fixConfigurationIssue(ctx, s, e)
	}
	return nil
}

// record logs an action at info level and returns it
func (d *Dispatcher) record(action string) string {
	d.logger.Info(action)
	return action
}

// recordFailure logs a failed action at error level and returns it
func (d *Dispatcher) recordFailure(action string, err error) string {
	d.logger.Error(action, zap.Error(err))
	return action
}
