// Package runner executes external build commands and captures their output.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Runner executes a shell command string synchronously.
// A non-nil error carries the captured output, see OutputOf.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// CommandError is returned when a command exits non-zero or cannot start
type CommandError struct {
	Command  string
	Output   string
	ExitCode int // -1 when the process never ran to completion
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// OutputOf returns the text captured by a failed command, or err's message
// when err did not come from a Runner.
func OutputOf(err error) string {
	if err == nil {
		return ""
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Output
	}
	return err.Error()
}

// ShellRunner runs commands through bash in a fixed working directory
type ShellRunner struct {
	Dir    string
	Shell  string
	logger *zap.Logger
}

// NewShellRunner creates a runner rooted at dir
func NewShellRunner(dir string, logger *zap.Logger) *ShellRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShellRunner{
		Dir:    dir,
		Shell:  "bash",
		logger: logger,
	}
}

// Run executes command and returns its combined stdout/stderr.
// No timeout is applied here; ctx is the only way to stop a running command.
func (r *ShellRunner) Run(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Shell, "-c", command)
	cmd.Dir = r.Dir

	r.logger.Debug("running command", zap.String("command", command), zap.String("dir", r.Dir))

	output, err := cmd.CombinedOutput()
	text := string(output)
	if err == nil {
		return text, nil
	}

	cmdErr := &CommandError{
		Command:  command,
		Output:   text,
		ExitCode: -1,
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	if text == "" && cmdErr.ExitCode < 0 {
		cmdErr.Output = err.Error()
	}

	r.logger.Debug("command failed",
		zap.String("command", command),
		zap.Int("exit_code", cmdErr.ExitCode),
		zap.Int("output_bytes", len(text)))

	return text, cmdErr
}
