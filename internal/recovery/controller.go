// Package recovery runs the diagnose, remediate and verify loop over a
// project checkout and records every attempt.
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daydemir/ci-recovery/internal/history"
	"github.com/daydemir/ci-recovery/internal/parser"
	"github.com/daydemir/ci-recovery/internal/remediation"
	"github.com/daydemir/ci-recovery/internal/runner"
	"github.com/daydemir/ci-recovery/internal/types"
)

// Config holds the analysis and verification commands
type Config struct {
	TypeCheckCommand       string
	LintCommand            string
	BuildCommand           string
	DependencyCheckCommand string // Empty skips the dependency check
	VerifyCommand          string

	// Strict treats a failed analysis command with no parsed errors as a
	// failure to verify rather than a clean build
	Strict bool
}

// Analysis pairs a command with the parser for its output
type Analysis struct {
	Name    string
	Command string
	Parser  parser.Parser
}

// Controller drives recovery attempts
type Controller struct {
	config     Config
	runner     runner.Runner
	dispatcher *remediation.Dispatcher
	store      history.Store
	logger     *zap.Logger

	// Now and NewID are replaceable for tests
	Now   func() time.Time
	NewID func() string
	// Revision returns the checkout revision recorded with each attempt
	Revision func() string
	// OnAttempt, when set, receives every finished attempt after it is recorded
	OnAttempt func(*types.RecoveryAttempt)
}

// New creates a controller
func New(cfg Config, r runner.Runner, d *remediation.Dispatcher, store history.Store, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		config:     cfg,
		runner:     r,
		dispatcher: d,
		store:      store,
		logger:     logger,
		Now:        time.Now,
		NewID:      NewAttemptID,
		Revision:   func() string { return "" },
	}
}

// NewAttemptID returns a time-ordered attempt identifier
func NewAttemptID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "recovery_" + id.String()
}

// Analyses lists the analysis steps in detection order
func (c *Controller) Analyses() []Analysis {
	steps := []Analysis{
		{Name: "type-check", Command: c.config.TypeCheckCommand, Parser: parser.TypeCheckParser{}},
		{Name: "lint", Command: c.config.LintCommand, Parser: parser.LintParser{}},
		{Name: "build", Command: c.config.BuildCommand, Parser: parser.BuildParser{}},
	}
	if c.config.DependencyCheckCommand != "" {
		steps = append(steps, Analysis{Name: "dependency-check", Command: c.config.DependencyCheckCommand, Parser: parser.DependencyParser{}})
	}
	return steps
}

// Recover runs a single attempt and reports whether the build is healthy.
// It never panics.
func (c *Controller) Recover(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovery process failed", zap.Any("panic", r))
			ok = false
		}
	}()
	return c.RunAttempt(ctx).Success
}

// RecoverWithRetries runs up to passes attempts, stopping at the first success
func (c *Controller) RecoverWithRetries(ctx context.Context, passes int) bool {
	if passes < 1 {
		passes = 1
	}
	for pass := 1; pass <= passes; pass++ {
		if pass > 1 {
			if ctx.Err() != nil {
				return false
			}
			c.logger.Info("Retrying recovery", zap.Int("pass", pass), zap.Int("passes", passes))
		}
		if c.Recover(ctx) {
			return true
		}
	}
	return false
}

// RunAttempt performs one analyze, remediate and verify cycle and records it.
// An unexpected error or panic aborts the cycle; the attempt is still
// recorded with success false.
func (c *Controller) RunAttempt(ctx context.Context) *types.RecoveryAttempt {
	start := c.Now()
	attempt := &types.RecoveryAttempt{
		ID:        c.NewID(),
		Timestamp: start,
		Errors:    []types.BuildError{},
		Actions:   []string{},
		Revision:  c.revision(),
	}

	c.logger.Info("Starting recovery attempt", zap.String("id", attempt.ID), zap.String("revision", attempt.Revision))

	if err := c.cycle(ctx, attempt); err != nil {
		c.logger.Error("Recovery attempt aborted", zap.String("id", attempt.ID), zap.Error(err))
		attempt.Success = false
	}

	attempt.Duration = c.Now().Sub(start).Milliseconds()
	if attempt.Duration < 0 {
		attempt.Duration = 0
	}

	if attempt.Success {
		c.logger.Info(fmt.Sprintf("Recovery attempt %s succeeded in %dms", attempt.ID, attempt.Duration))
	} else {
		c.logger.Warn(fmt.Sprintf("Recovery attempt %s failed in %dms", attempt.ID, attempt.Duration))
	}

	if c.store != nil {
		// Aborted attempts are recorded even when ctx is already cancelled
		if err := c.store.Append(context.WithoutCancel(ctx), *attempt); err != nil {
			c.logger.Error("Failed to record recovery attempt", zap.String("id", attempt.ID), zap.Error(err))
		}
	}

	if c.OnAttempt != nil {
		c.OnAttempt(attempt)
	}
	return attempt
}

// cycle runs the state machine, converting panics into errors
func (c *Controller) cycle(ctx context.Context, attempt *types.RecoveryAttempt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	errs, analysisFailed, err := c.analyze(ctx)
	if err != nil {
		return err
	}
	attempt.Errors = errs

	if len(errs) == 0 {
		if analysisFailed && c.config.Strict {
			c.logger.Warn("Analysis failed without recognisable errors, verifying build")
			attempt.Success = c.verify(ctx)
			return nil
		}
		c.logger.Info("No build errors detected")
		attempt.Success = true
		return nil
	}

	c.logger.Info(fmt.Sprintf("Detected %d build errors", len(errs)))

	if actions := c.dispatcher.Dispatch(ctx, errs); actions != nil {
		attempt.Actions = actions
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled before verification: %w", err)
	}

	attempt.Success = c.verify(ctx)
	return nil
}

// analyze runs every analysis step and collects parsed errors in detection
// order. It reports whether any step exited non-zero.
func (c *Controller) analyze(ctx context.Context) ([]types.BuildError, bool, error) {
	errs := []types.BuildError{}
	failed := false

	for _, step := range c.Analyses() {
		if err := ctx.Err(); err != nil {
			return nil, failed, fmt.Errorf("cancelled during %s: %w", step.Name, err)
		}
		if step.Command == "" {
			continue
		}

		_, err := c.runner.Run(ctx, step.Command)
		if err == nil {
			continue
		}
		failed = true

		parsed := step.Parser.Parse(runner.OutputOf(err))
		c.logger.Debug("Analysis step failed",
			zap.String("step", step.Name),
			zap.Int("errors", len(parsed)))
		errs = append(errs, parsed...)
	}

	return errs, failed, nil
}

func (c *Controller) verify(ctx context.Context) bool {
	if _, err := c.runner.Run(ctx, c.config.VerifyCommand); err != nil {
		c.logger.Warn("Verification build failed", zap.String("command", c.config.VerifyCommand))
		return false
	}
	c.logger.Info("Verification build passed")
	return true
}

func (c *Controller) revision() (rev string) {
	if c.Revision == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			rev = ""
		}
	}()
	return c.Revision()
}

// Stats derives statistics from the attempt log
func (c *Controller) Stats(ctx context.Context) (types.RecoveryStats, error) {
	if c.store == nil {
		return history.ComputeStats(nil), nil
	}
	return history.Stats(ctx, c.store)
}
