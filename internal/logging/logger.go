// Package logging hands out per-component logrus loggers that share one
// configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls every logger returned by NewLogger.
type Config struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	// GALLERY_LOG_LEVEL overrides it.
	Level string `yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `yaml:"format"`

	// File, when set, receives log output instead of stderr.
	File string `yaml:"file"`
}

var (
	mu      sync.Mutex
	base    = newBase()
	loggers = map[string]*logrus.Entry{}
	openLog io.Closer
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// Configure applies cfg to the shared logger. It is safe to call more than once;
// a previously opened log file is closed.
func Configure(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	levelStr := strings.TrimSpace(cfg.Level)
	if v := strings.TrimSpace(os.Getenv("GALLERY_LOG_LEVEL")); v != "" {
		levelStr = v
	}
	if levelStr == "" {
		levelStr = "warn"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	base.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	if openLog != nil {
		_ = openLog.Close()
		openLog = nil
	}
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		base.SetOutput(f)
		openLog = f
	} else {
		base.SetOutput(os.Stderr)
	}
	return nil
}

// SetOutput redirects the shared logger; tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(w)
}

// NewLogger returns the logger for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[component]; ok {
		return l
	}
	l := base.WithField("component", component)
	loggers[component] = l
	return l
}

// DailyFile returns <dir>/logs/<component>-<date>.log.
func DailyFile(dir, component string, now time.Time) string {
	return filepath.Join(dir, "logs", fmt.Sprintf("%s-%s.log", component, now.Format("2006-01-02")))
}
