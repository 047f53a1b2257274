package remediation

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/daydemir/ci-recovery/internal/patcher"
	"github.com/daydemir/ci-recovery/internal/types"
)

var (
	cannotFindModule = regexp.MustCompile(`Cannot find module '([^']+)'`)
	cannotResolve    = regexp.MustCompile(`Can't resolve '([^']+)'`)
	moduleNotFound   = regexp.MustCompile(`(?i)module not found:?\s*['"]?([^'"\s]+)`)
	unusedIdentifier = regexp.MustCompile(`'([^']+)' is declared but (?:its value is )?never read`)
	missingReturn    = regexp.MustCompile(`(?i)missing return type|lacks return-type annotation`)
)

// compilerConfig is the known-good compiler configuration written on reset
const compilerConfig = `{
  "compilerOptions": {
    "target": "ES2020",
    "module": "commonjs",
    "moduleResolution": "node",
    "lib": ["ES2020"],
    "strict": false,
    "esModuleInterop": true,
    "skipLibCheck": true,
    "forceConsistentCasingInFileNames": true,
    "declaration": true,
    "declarationMap": true,
    "sourceMap": true
  },
  "include": ["src/**/*"],
  "exclude": ["node_modules", "dist", "**/*.test.ts"]
}
`

// ExtractModuleName returns the module named in a missing-module diagnostic
func ExtractModuleName(message string) string {
	for _, pattern := range []*regexp.Regexp{cannotFindModule, cannotResolve} {
		if m := pattern.FindStringSubmatch(message); m != nil {
			return m[1]
		}
	}

	m := moduleNotFound.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	// "Module not found: Error: ..." names no module
	if strings.HasSuffix(m[1], ":") {
		return ""
	}
	return strings.TrimRight(m[1], ".,;)")
}

// PackageName reduces a module import path to the installable package,
// e.g. "lodash/fp" -> "lodash", "@scope/pkg/sub" -> "@scope/pkg".
func PackageName(module string) string {
	parts := strings.Split(module, "/")
	if strings.HasPrefix(module, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// ExtractUnusedIdentifier returns the identifier named in an unused-variable diagnostic
func ExtractUnusedIdentifier(message string) string {
	if m := unusedIdentifier.FindStringSubmatch(message); m != nil {
		return m[1]
	}
	return ""
}

func (d *Dispatcher) fixTypeError(ctx context.Context, s *session, e types.BuildError) []string {
	var actions []string

	if module := ExtractModuleName(e.Message); module != "" {
		actions = append(actions, d.installModule(ctx, s, module)...)
	}

	if name := ExtractUnusedIdentifier(e.Message); name != "" && e.HasLocation() {
		actions = append(actions, d.fixUnusedVariable(e, name))
	}

	if missingReturn.MatchString(e.Message) && e.HasLocation() {
		actions = append(actions, d.addReturnType(e))
	}

	return actions
}

func (d *Dispatcher) installModule(ctx context.Context, s *session, module string) []string {
	if !s.once("install:" + module) {
		return nil
	}
	if strings.HasPrefix(module, ".") || strings.HasPrefix(module, "/") {
		return []string{d.record(fmt.Sprintf("Skipped install of relative module: %s", module))}
	}

	pkg := PackageName(module)
	label := module
	if pkg != module {
		label = fmt.Sprintf("%s (package %s)", module, pkg)
	}

	command := strings.ReplaceAll(d.config.InstallModuleCommand, "{module}", shellQuote(pkg))
	if _, err := d.runner.Run(ctx, command); err != nil {
		return []string{d.recordFailure(fmt.Sprintf("Failed to install module: %s", label), err)}
	}
	return []string{d.record(fmt.Sprintf("Installed missing module: %s", label))}
}

func (d *Dispatcher) fixUnusedVariable(e types.BuildError, name string) string {
	changed, err := d.patcher.PatchLine(e.File, e.Line, patcher.PrefixIdentifier(name, d.config.UnusedPrefix))
	switch {
	case err != nil:
		return d.recordFailure(fmt.Sprintf("Failed to fix unused variable '%s' in %s", name, e.Location()), err)
	case !changed:
		return d.record(fmt.Sprintf("Unused variable '%s' not found in %s", name, e.Location()))
	default:
		return d.record(fmt.Sprintf("Fixed unused variable '%s' in %s", name, e.Location()))
	}
}

func (d *Dispatcher) addReturnType(e types.BuildError) string {
	changed, err := d.patcher.PatchLine(e.File, e.Line, patcher.AddReturnType(d.config.ReturnType))
	switch {
	case err != nil:
		return d.recordFailure(fmt.Sprintf("Failed to add return type annotation in %s", e.Location()), err)
	case !changed:
		return d.record(fmt.Sprintf("No unannotated function signature in %s", e.Location()))
	default:
		return d.record(fmt.Sprintf("Added return type annotation in %s", e.Location()))
	}
}

// fixLintIssue runs the linter's auto-fix once per attempt, however many
// lint issues were reported.
func (d *Dispatcher) fixLintIssue(ctx context.Context, s *session) []string {
	if !s.once("lint") {
		return nil
	}
	if d.config.LintFixCommand == "" {
		return []string{d.record("Skipped lint auto-fix: no command configured")}
	}
	if _, err := d.runner.Run(ctx, d.config.LintFixCommand); err != nil {
		return []string{d.recordFailure("Lint auto-fix failed", err)}
	}
	return []string{d.record("Applied lint auto-fixes")}
}

// fixDependencyIssue wipes the dependency cache and lock file, then reinstalls
func (d *Dispatcher) fixDependencyIssue(ctx context.Context, s *session) []string {
	if !s.once("dependencies") {
		return nil
	}
	if d.config.CleanDependenciesCommand != "" {
		if _, err := d.runner.Run(ctx, d.config.CleanDependenciesCommand); err != nil {
			return []string{d.recordFailure("Failed to reinstall dependencies", err)}
		}
	}
	if _, err := d.runner.Run(ctx, d.config.InstallDependenciesCommand); err != nil {
		return []string{d.recordFailure("Failed to reinstall dependencies", err)}
	}
	return []string{d.record("Reinstalled dependencies")}
}

func (d *Dispatcher) fixConfigurationIssue(ctx context.Context, s *session, e types.BuildError) []string {
	var actions []string

	if d.mentionsCompilerConfig(e.Message) && s.once("compiler-config") {
		if err := d.patcher.WriteFile(d.config.CompilerConfigFile, []byte(compilerConfig)); err != nil {
			actions = append(actions, d.recordFailure("Failed to reset compiler configuration", err))
		} else {
			actions = append(actions, d.record(fmt.Sprintf("Reset compiler configuration (%s)", d.config.CompilerConfigFile)))
		}
	}

	if d.mentionsSchema(e.Message) && s.once("schema") {
		switch {
		case d.config.SchemaGenerateCommand == "":
			actions = append(actions, d.record("Skipped schema client regeneration: no command configured"))
		default:
			if _, err := d.runner.Run(ctx, d.config.SchemaGenerateCommand); err != nil {
				actions = append(actions, d.recordFailure("Failed to regenerate schema client", err))
			} else {
				actions = append(actions, d.record("Regenerated schema client"))
			}
		}
	}

	return actions
}

// mentionsCompilerConfig matches the config file name without its extension,
// so "tsconfig.json" is recognised from messages like "tsconfig.build.json".
func (d *Dispatcher) mentionsCompilerConfig(message string) bool {
	base := filepath.Base(d.config.CompilerConfigFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem != "" && strings.Contains(message, stem)
}

func (d *Dispatcher) mentionsSchema(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range d.config.SchemaKeywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// shellQuote wraps s in single quotes for bash
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
