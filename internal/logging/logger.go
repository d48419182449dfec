// Package logging owns the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tgienger/tasktrack/internal/config"
)

// Logger is the global logrus instance.
var Logger = logrus.New()

var (
	once    sync.Once
	initErr error
	rotator *lumberjack.Logger
)

// Init configures Logger from cfg. Only the first call has any effect.
// When quiet is set and no file is configured, output is discarded so log
// lines do not tear the terminal board.
func Init(cfg config.LoggingConfig, quiet bool) error {
	once.Do(func() {
		initErr = apply(Logger, cfg, quiet)
		if initErr == nil {
			Event("LOGGER_INITIALIZED").WithField("level", Logger.GetLevel().String()).Debug("logger initialized")
		}
	})
	return initErr
}

func apply(l *logrus.Logger, cfg config.LoggingConfig, quiet bool) error {
	if err := SetLevel(l, cfg.Level); err != nil {
		return err
	}

	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stderr
	switch {
	case cfg.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			Compress:   true,
		}
		out = rotator
	case quiet:
		out = io.Discard
	}
	l.SetOutput(out)
	return nil
}

// SetLevel parses and applies a level name
func SetLevel(l *logrus.Logger, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)
	return nil
}

// Event starts an entry tagged with a stable event name such as DB_CONNECTED
func Event(name string) *logrus.Entry {
	return Logger.WithField("event", name)
}

// Close flushes and closes the rotating log file, if any
func Close() error {
	if rotator == nil {
		return nil
	}
	return rotator.Close()
}
