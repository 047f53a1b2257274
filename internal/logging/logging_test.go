package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "ci-recovery.log")
	var console bytes.Buffer

	logger, err := New(Options{Level: "info", Format: "console", File: logFile, Console: &console, NoColor: true})
	require.NoError(t, err)

	logger.Info("Starting recovery attempt")
	logger.Error("Recovery attempt failed")
	logger.Debug("hidden at info level")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	for _, out := range []string{console.String(), string(content)} {
		assert.Contains(t, out, "INFO\tStarting recovery attempt")
		assert.Contains(t, out, "ERROR\tRecovery attempt failed")
		assert.NotContains(t, out, "hidden at info level")
	}
}

func TestNewAppendsToExistingFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "ci-recovery.log")
	require.NoError(t, os.WriteFile(logFile, []byte("previous run\n"), 0644))

	logger, err := New(Options{Level: "info", Format: "json", File: logFile, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	logger.Info("next run")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "previous run", lines[0])
	assert.Contains(t, lines[1], `"msg":"next run"`)
	assert.Contains(t, lines[1], `"level":"INFO"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Info("discarded")
	assert.NoError(t, logger.Close())
}
