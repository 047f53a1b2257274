package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Init creates a .ci-recovery/ directory with a default config in projectDir
func Init(projectDir string, force bool) (string, error) {
	statePath := Path(projectDir)

	if _, err := os.Stat(statePath); err == nil {
		if !force {
			return "", ErrProjectExists
		}
		if err := os.RemoveAll(statePath); err != nil {
			return "", fmt.Errorf("failed to remove existing project state: %w", err)
		}
	}

	if err := os.MkdirAll(statePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", statePath, err)
	}

	if err := writeFile(ConfigPath(projectDir), defaultConfig); err != nil {
		return "", err
	}

	// History and logs are per machine
	if err := writeFile(filepath.Join(statePath, ".gitignore"), "history.db\n"); err != nil {
		return "", err
	}

	return statePath, nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

const defaultConfig = `# ci-recovery configuration
commands:
  type_check: npm run type-check --workspaces
  lint: npm run lint --workspaces
  build: npm run build --workspaces
  dependency_check: ""            # e.g. "npm ls --all"; empty disables the check
  verify: npm run build --workspace=packages/core
  lint_fix: npm run lint --workspaces -- --fix
  install_module: npm install {module}
  clean_dependencies: rm -rf node_modules package-lock.json
  install_dependencies: npm install
  schema_generate: npm run db:generate

remediation:
  unused_prefix: "_"
  return_type: any
  compiler_config_file: tsconfig.json
  schema_keywords:
    - prisma
    - "@prisma"

log:
  file: ci-recovery.log          # relative to the project root
  level: info                    # debug | info | warn | error
  format: console                # console | json

history:
  driver: sqlite                 # sqlite | memory
  path: .ci-recovery/history.db

recovery:
  max_passes: 1                  # diagnose/fix/verify cycles per run
  strict: false                  # verify even when failing output could not be parsed
`
