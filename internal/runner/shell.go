package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// commonShellPaths are checked when the shell is not on PATH
var commonShellPaths = []string{
	"/bin/bash",
	"/usr/bin/bash",
	"/usr/local/bin/bash",
	"/opt/homebrew/bin/bash",
}

// ResolveShell finds the shell binary, checking PATH and common locations
func ResolveShell(shell string) (string, error) {
	if filepath.IsAbs(shell) {
		if _, err := os.Stat(shell); err != nil {
			return "", shellNotFoundError(shell)
		}
		return shell, nil
	}

	if path, err := exec.LookPath(shell); err == nil {
		return path, nil
	}

	for _, p := range commonShellPaths {
		if filepath.Base(p) != shell {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", shellNotFoundError(shell)
}

// Check resolves the runner's shell so a missing shell fails before any
// analysis command is attempted
func (r *ShellRunner) Check() error {
	path, err := ResolveShell(r.Shell)
	if err != nil {
		return err
	}
	r.Shell = path
	return nil
}

func shellNotFoundError(shell string) error {
	return fmt.Errorf(`%s not found

Analysis and fix commands run through %s -c. Install it, or make sure it
is on PATH for the CI step that runs ci-recovery`, shell, shell)
}
