// Package logger writes structured logs to a file. The terminal belongs to the
// TUI, so nothing here ever writes to stdout or stderr after Init succeeds.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu       sync.Mutex
	base     *slog.Logger
	levelVar = new(slog.LevelVar)
	logFile  *os.File
)

// Init opens path for appending and installs a text handler on it.
// Calling Init again replaces the previous file.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	base = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	base.Info("logger initialized", "path", path)
	return nil
}

// SetDebug toggles debug level output.
func SetDebug(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
		return
	}
	levelVar.Set(slog.LevelInfo)
}

// Component returns a logger tagged with the component name. Before Init it
// returns a logger that drops everything.
func Component(name string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if base == nil {
		return Discard()
	}
	return base.With(slog.String("component", name))
}

// Discard returns a logger that writes nowhere.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	base = nil
}
