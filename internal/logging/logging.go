// Package logging configures the process-wide logrus logger used by
// every stage of the ingestion pipeline. Callers construct one Logger
// at startup (see cmd/kgctl) and thread it explicitly through the
// orchestrator and its components rather than reaching for a global.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Config controls format, level, and optional file output.
type Config struct {
	Level      string // "debug", "info", "warn", "error"
	JSON       bool
	OutputFile string // empty = stdout only
}

// New builds a *logrus.Logger from Config. Errors creating the output
// file directory or opening the file are returned; kgctl aborts startup
// on them.
func New(cfg Config) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	writers := []io.Writer{os.Stdout}
	if cfg.OutputFile != "" {
		if dir := filepath.Dir(cfg.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log directory %s: %w", dir, err)
			}
		}
		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", cfg.OutputFile, err)
		}
		writers = append(writers, f)
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger, nil
}

// Stage returns a child entry tagged with the pipeline stage name, the
// convention used across every component in this module.
func Stage(logger *logrus.Logger, stage string) *logrus.Entry {
	return logger.WithField("stage", stage)
}
