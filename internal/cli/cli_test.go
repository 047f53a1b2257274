package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/ci-recovery/internal/types"
	"github.com/daydemir/ci-recovery/internal/workspace"
)

// run executes the root command with every flag reset to its default
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
	noColor = true

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeProject(t *testing.T, verify string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := workspace.Init(dir, false)
	require.NoError(t, err)

	content := "commands:\n" +
		"  type_check: \"true\"\n" +
		"  lint: \"true\"\n" +
		"  build: \"true\"\n" +
		"  verify: \"" + verify + "\"\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(workspace.ConfigPath(dir), []byte(content), 0644))
	return dir
}

func TestRecoverCleanProjectRecordsAttempts(t *testing.T) {
	dir := writeProject(t, "true")

	_, err := run(t, "recover", "--dir", dir)
	require.NoError(t, err)
	_, err = run(t, "recover", "--dir", dir)
	require.NoError(t, err)

	out, err := run(t, "stats", "--json", "--dir", dir)
	require.NoError(t, err)

	var stats types.RecoveryStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.TotalAttempts)
	assert.Equal(t, 1.0, stats.SuccessRate)
	assert.Equal(t, []string{}, stats.CommonErrors)

	_, err = os.Stat(filepath.Join(dir, "ci-recovery.log"))
	assert.NoError(t, err)
}

func TestRecoverFailureReturnsError(t *testing.T) {
	dir := t.TempDir()
	_, err := workspace.Init(dir, false)
	require.NoError(t, err)
	content := "commands:\n" +
		"  type_check: \"echo 'src/a.ts:1:1 - error TS2322: bad type'; exit 2\"\n" +
		"  lint: \"true\"\n" +
		"  build: \"true\"\n" +
		"  verify: \"false\"\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(workspace.ConfigPath(dir), []byte(content), 0644))

	_, err = run(t, "recover", "--dir", dir)
	assert.ErrorIs(t, err, errRecoveryFailed)

	out, err := run(t, "history", "--json", "--dir", dir)
	require.NoError(t, err)
	var attempts []types.RecoveryAttempt
	require.NoError(t, json.Unmarshal([]byte(out), &attempts))
	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Success)
	require.Len(t, attempts[0].Errors, 1)
	assert.Equal(t, "bad type", attempts[0].Errors[0].Message)
}

func TestRecoverPassesFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := workspace.Init(dir, false)
	require.NoError(t, err)
	content := "commands:\n" +
		"  type_check: \"true\"\n" +
		"  lint: \"echo '1:1 error semi'; exit 1\"\n" +
		"  lint_fix: \"true\"\n" +
		"  build: \"true\"\n" +
		"  verify: \"false\"\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(workspace.ConfigPath(dir), []byte(content), 0644))

	_, err = run(t, "recover", "--passes", "3", "--dir", dir)
	assert.ErrorIs(t, err, errRecoveryFailed)

	out, err := run(t, "history", "--json", "--dir", dir)
	require.NoError(t, err)
	var attempts []types.RecoveryAttempt
	require.NoError(t, json.Unmarshal([]byte(out), &attempts))
	require.Len(t, attempts, 3)
	assert.Equal(t, []string{"Applied lint auto-fixes"}, attempts[2].Actions)

	out, err = run(t, "history", "--json", "--limit", "2", "--dir", dir)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &attempts))
	assert.Len(t, attempts, 2)
}

func TestStatsPrometheusFile(t *testing.T) {
	dir := writeProject(t, "true")
	_, err := run(t, "recover", "--dir", dir)
	require.NoError(t, err)

	promFile := filepath.Join(t.TempDir(), "ci_recovery.prom")
	_, err = run(t, "stats", "--json", "--prometheus-file", promFile, "--dir", dir)
	require.NoError(t, err)

	content, err := os.ReadFile(promFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ci_recovery_attempts_total 1")
}

func TestConfigGetAndSet(t *testing.T) {
	dir := writeProject(t, "true")

	_, err := run(t, "config", "commands.verify", "make build", "--dir", dir)
	require.NoError(t, err)

	_, err = run(t, "config", "no.such_key", "x", "--dir", dir)
	assert.Error(t, err)

	_, err = run(t, "config", "commands.verify", "--dir", dir)
	require.NoError(t, err)

	content, err := os.ReadFile(workspace.ConfigPath(dir))
	require.NoError(t, err)
	assert.Contains(t, string(content), "make build")
}

func TestInitRefusesExistingProject(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "init", "--dir", dir)
	require.NoError(t, err)

	_, err = run(t, "init", "--dir", dir)
	assert.ErrorIs(t, err, workspace.ErrProjectExists)

	_, err = run(t, "init", "--force", "--dir", dir)
	assert.NoError(t, err)
}
