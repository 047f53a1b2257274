package workspace

import (
	"errors"
	"os"
	"path/filepath"
)

// Dir is the per-project state directory
const Dir = ".ci-recovery"

var ErrNoProject = errors.New("no ci-recovery project found (run 'ci-recovery init' first)")
var ErrProjectExists = errors.New("ci-recovery project already initialized (use --force to overwrite)")

// Find walks up from start looking for a .ci-recovery/ directory
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		statePath := filepath.Join(dir, Dir)
		if info, err := os.Stat(statePath); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// Resolve returns the project root containing start, or start itself when
// no project has been initialized. CI checkouts rarely carry a .ci-recovery/.
func Resolve(start string) (string, error) {
	root, err := Find(start)
	if errors.Is(err, ErrNoProject) {
		return filepath.Abs(start)
	}
	return root, err
}

// Path returns the .ci-recovery directory path for a project
func Path(projectDir string) string {
	return filepath.Join(projectDir, Dir)
}

// ConfigPath returns the config.yaml path
func ConfigPath(projectDir string) string {
	return filepath.Join(projectDir, Dir, "config.yaml")
}

// Join resolves a project-relative path; absolute paths are returned as is
func Join(projectDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectDir, path)
}
