package cli

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/daydemir/ci-recovery/internal/config"
	"github.com/daydemir/ci-recovery/internal/display"
	"github.com/daydemir/ci-recovery/internal/history"
	"github.com/daydemir/ci-recovery/internal/logging"
	"github.com/daydemir/ci-recovery/internal/workspace"
)

// errRecoveryFailed makes the process exit non-zero without an extra message
var errRecoveryFailed = errors.New("recovery failed")

// session bundles what every command needs for one project
type session struct {
	projectDir string
	config     *config.Config
	logger     *logging.Logger
	store      history.Store
	display    *display.Display
}

// projectDir resolves --dir or the working directory to the project root
func projectDir() (string, error) {
	start := dirFlag
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = cwd
	}
	return workspace.Resolve(start)
}

// loadConfig reads --config when given, else the project config
func loadConfig(dir string) (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load(dir)
}

// openSession loads config, logger and attempt store for the project
func openSession() (*session, error) {
	dir, err := projectDir()
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logFile := ""
	if cfg.Log.File != "" {
		logFile = workspace.Join(dir, cfg.Log.File)
	}
	logger, err := logging.New(logging.Options{
		Level:   level,
		Format:  cfg.Log.Format,
		File:    logFile,
		NoColor: noColor,
	})
	if err != nil {
		return nil, err
	}

	store, err := openStore(dir, cfg)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	logger.Debug("Session opened",
		zap.String("project", dir),
		zap.String("history", cfg.History.Driver))

	return &session{
		projectDir: dir,
		config:     cfg,
		logger:     logger,
		store:      store,
		display:    display.NewWithOptions(noColor),
	}, nil
}

func openStore(dir string, cfg *config.Config) (history.Store, error) {
	switch cfg.History.Driver {
	case "memory":
		return history.NewMemoryStore(), nil
	case "sqlite":
		store, err := history.NewSQLiteStore(workspace.Join(dir, cfg.History.Path))
		if err != nil {
			return nil, fmt.Errorf("cannot open attempt history: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown history driver %q", cfg.History.Driver)
}

// Close releases the store and flushes the log file
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("Failed to close attempt history", zap.Error(err))
	}
	_ = s.logger.Close()
}
