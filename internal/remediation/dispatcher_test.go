package remediation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/daydemir/ci-recovery/internal/patcher"
	"github.com/daydemir/ci-recovery/internal/runner"
	"github.com/daydemir/ci-recovery/internal/types"
)

func testConfig() Config {
	return Config{
		LintFixCommand:             "npm run lint -- --fix",
		InstallModuleCommand:       "npm install {module}",
		CleanDependenciesCommand:   "rm -rf node_modules package-lock.json",
		InstallDependenciesCommand: "npm install",
		SchemaGenerateCommand:      "npm run db:generate",
		UnusedPrefix:               "_",
		ReturnType:                 "any",
		CompilerConfigFile:         "tsconfig.json",
		SchemaKeywords:             []string{"prisma", "@prisma"},
	}
}

func newTestDispatcher(t *testing.T, fake *runner.FakeRunner) (*Dispatcher, string, *observer.ObservedLogs) {
	t.Helper()
	dir := t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewDispatcher(testConfig(), fake, patcher.New(dir), zap.New(core)), dir, logs
}

func typeError(file string, line int, message string) types.BuildError {
	return types.BuildError{
		Category: types.CategoryTypeError,
		File:     file,
		Line:     line,
		Message:  message,
		Severity: types.SeverityError,
	}
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func containsAction(actions []string, substr string) bool {
	for _, a := range actions {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}

func TestMissingModuleInstalls(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, _, _ := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/a.ts", 1, "module not found: foo"),
	})

	assert.Equal(t, []string{"Installed missing module: foo"}, actions)
	assert.Equal(t, []string{"npm install 'foo'"}, fake.Calls)
}

func TestMissingModuleInstallFailureStillRecorded(t *testing.T) {
	fake := runner.NewFakeRunner(map[string]runner.Response{
		"npm install 'foo'": {Output: "npm ERR! 404 Not Found", ExitCode: 1},
	})
	d, _, logs := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/a.ts", 1, "module not found: foo"),
	})

	require.Len(t, actions, 1)
	assert.Contains(t, actions[0], "foo")
	assert.Equal(t, "Failed to install module: foo", actions[0])
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestExtractModuleName(t *testing.T) {
	tests := map[string]string{
		"Cannot find module 'lodash' or its corresponding type declarations.": "lodash",
		"module not found: foo":                                            "foo",
		"Module not found: Error: Can't resolve '@scope/ui' in '/repo/src'": "@scope/ui",
		"Module not found: 'react-dom'":                                    "react-dom",
		"Type 'string' is not assignable to type 'number'.":                "",
		"module not found: foo.":                                           "foo",
		"Module not found: left-pad, required by app":                      "left-pad",
		"Module not found: Error: Package path ./x is not exported":        "",
	}
	for message, want := range tests {
		assert.Equal(t, want, ExtractModuleName(message), message)
	}
}

func TestBundlerErrorWithoutModuleInstallsNothing(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, _, _ := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/a.ts", 1, "Module not found: Error: Package path ./x is not exported from package /repo/node_modules/y"),
		typeError("src/b.ts", 2, "module not found: bar."),
	})

	assert.Equal(t, []string{"Installed missing module: bar"}, actions)
	assert.Equal(t, []string{"npm install 'bar'"}, fake.Calls)
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "lodash", PackageName("lodash/fp"))
	assert.Equal(t, "@scope/pkg", PackageName("@scope/pkg/sub/path"))
	assert.Equal(t, "zod", PackageName("zod"))
}

func TestDeepImportInstallsPackage(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, _, _ := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/a.ts", 1, "Cannot find module 'lodash/fp'"),
		typeError("src/b.ts", 2, "Cannot find module 'lodash/fp'"),
	})

	assert.Equal(t, []string{"Installed missing module: lodash/fp (package lodash)"}, actions)
	assert.Equal(t, []string{"npm install 'lodash'"}, fake.Calls)
}

func TestRelativeModuleIsNotInstalled(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, _, _ := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/a.ts", 1, "Cannot find module './utils'"),
	})

	assert.Empty(t, fake.Calls)
	assert.True(t, containsAction(actions, "./utils"))
}

func TestUnusedVariableRenamed(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, dir, _ := newTestDispatcher(t, fake)

	lines := make([]string, 12)
	for i := range lines {
		lines[i] = "// filler"
	}
	lines[9] = "  const x = compute()"
	path := writeSource(t, dir, "src/a.ts", strings.Join(lines, "\n"))

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/a.ts", 10, "'x' is declared but its value is never read"),
	})

	require.Len(t, actions, 1)
	assert.Contains(t, actions[0], "src/a.ts:10")
	assert.True(t, strings.HasPrefix(actions[0], "Fixed unused variable"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "  const _x = compute()", strings.Split(string(content), "\n")[9])
}

func TestUnusedVariablePatchFailureIsAction(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, _, _ := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/missing.ts", 3, "'y' is declared but its value is never read"),
		typeError("src/a.ts", 1, "module not found: foo"),
	})

	require.Len(t, actions, 2)
	assert.Contains(t, actions[0], "Failed to fix unused variable 'y' in src/missing.ts:3")
	assert.Equal(t, "Installed missing module: foo", actions[1])
}

func TestUnusedVariableWithoutFileIsIgnored(t *testing.T) {
	d, _, _ := newTestDispatcher(t, runner.NewFakeRunner(nil))
	actions := d.Dispatch(context.Background(), []types.BuildError{{
		Category: types.CategoryTypeError,
		Message:  "'y' is declared but its value is never read",
		Severity: types.SeverityError,
	}})
	assert.Empty(t, actions)
}

func TestMissingReturnType(t *testing.T) {
	d, dir, _ := newTestDispatcher(t, runner.NewFakeRunner(nil))
	path := writeSource(t, dir, "src/load.ts", "export function load(id) {\n  return id\n}\n")

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/load.ts", 1, "Missing return type on function."),
	})

	assert.Equal(t, []string{"Added return type annotation in src/load.ts:1"}, actions)
	content, _ := os.ReadFile(path)
	assert.True(t, strings.HasPrefix(string(content), "export function load(id): any {"))
}

func TestUnrecognisedTypeErrorLeftAlone(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, _, _ := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/a.ts", 4, "Type 'string' is not assignable to type 'number'."),
	})

	assert.Empty(t, actions)
	assert.Empty(t, fake.Calls)
}

func TestLintAutoFixRunsOncePerDispatch(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, _, _ := newTestDispatcher(t, fake)

	lint := types.BuildError{Category: types.CategoryLintIssue, Message: "3:7 error no-unused-vars", Severity: types.SeverityError}
	actions := d.Dispatch(context.Background(), []types.BuildError{lint, lint, lint})

	assert.Equal(t, []string{"Applied lint auto-fixes"}, actions)
	assert.Equal(t, 1, fake.Called("npm run lint -- --fix"))

	// A new dispatch is a new attempt
	d.Dispatch(context.Background(), []types.BuildError{lint})
	assert.Equal(t, 2, fake.Called("npm run lint -- --fix"))
}

func TestLintAutoFixFailure(t *testing.T) {
	fake := runner.NewFakeRunner(map[string]runner.Response{
		"npm run lint -- --fix": {ExitCode: 1},
	})
	d, _, _ := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{
		{Category: types.CategoryLintIssue, Message: "warning", Severity: types.SeverityWarning},
	})
	assert.Equal(t, []string{"Lint auto-fix failed"}, actions)
}

func TestDependencyReinstall(t *testing.T) {
	dep := types.BuildError{Category: types.CategoryDependencyIssue, Message: "npm ERR! code ERESOLVE", Severity: types.SeverityError}

	t.Run("success", func(t *testing.T) {
		fake := runner.NewFakeRunner(nil)
		d, _, _ := newTestDispatcher(t, fake)

		actions := d.Dispatch(context.Background(), []types.BuildError{dep, dep})
		assert.Equal(t, []string{"Reinstalled dependencies"}, actions)
		assert.Equal(t, []string{"rm -rf node_modules package-lock.json", "npm install"}, fake.Calls)
	})

	t.Run("install fails", func(t *testing.T) {
		fake := runner.NewFakeRunner(map[string]runner.Response{
			"npm install": {ExitCode: 1, Output: "ERESOLVE"},
		})
		d, _, _ := newTestDispatcher(t, fake)

		actions := d.Dispatch(context.Background(), []types.BuildError{dep})
		assert.Equal(t, []string{"Failed to reinstall dependencies"}, actions)
	})
}

func TestConfigurationReset(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, dir, _ := newTestDispatcher(t, fake)
	writeSource(t, dir, "tsconfig.json", `{"compilerOptions": {"target": "bogus"}}`)

	cfgErr := types.BuildError{
		Category: types.CategoryConfigurationIssue,
		Message:  "ERROR: error TS5023: Unknown compiler option in tsconfig.json",
		Severity: types.SeverityError,
	}
	actions := d.Dispatch(context.Background(), []types.BuildError{cfgErr, cfgErr})

	assert.Equal(t, []string{"Reset compiler configuration (tsconfig.json)"}, actions)
	content, err := os.ReadFile(filepath.Join(dir, "tsconfig.json"))
	require.NoError(t, err)
	assert.Equal(t, compilerConfig, string(content))
	assert.Empty(t, fake.Calls)
}

func TestSchemaRegeneration(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, _, _ := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{{
		Category: types.CategoryConfigurationIssue,
		Message:  "Failed: @prisma/client did not initialize yet",
		Severity: types.SeverityError,
	}})

	assert.Equal(t, []string{"Regenerated schema client"}, actions)
	assert.Equal(t, []string{"npm run db:generate"}, fake.Calls)
}

func TestUnrelatedConfigurationIssue(t *testing.T) {
	fake := runner.NewFakeRunner(nil)
	d, _, _ := newTestDispatcher(t, fake)

	actions := d.Dispatch(context.Background(), []types.BuildError{{
		Category: types.CategoryConfigurationIssue,
		Message:  "Failed to compile.",
		Severity: types.SeverityError,
	}})
	assert.Empty(t, actions)
	assert.Empty(t, fake.Calls)
}

func TestDispatchRecoversFromPanics(t *testing.T) {
	d, _, logs := newTestDispatcher(t, runner.NewFakeRunner(nil))
	calls := 0
	d.OnDispatch = func(e types.BuildError) {
		calls++
	}
	// A nil patcher makes the unused-variable routine panic
	d.patcher = nil

	actions := d.Dispatch(context.Background(), []types.BuildError{
		typeError("src/a.ts", 1, "'x' is declared but its value is never read"),
		typeError("src/a.ts", 2, "module not found: foo"),
	})

	assert.Equal(t, 2, calls)
	require.Len(t, actions, 2)
	assert.True(t, strings.HasPrefix(actions[0], "Failed to remediate type-error"))
	assert.Equal(t, "Installed missing module: foo", actions[1])
	assert.Equal(t, 1, logs.FilterMessage("remediation panicked").Len())
}
