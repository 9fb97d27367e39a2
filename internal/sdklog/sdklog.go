// Package sdklog implements the façade's ambient logging concern (spec
// SPEC_FULL.md §2): a small log/slog-backed file logger with Off/Error/
// Debug levels and a Structured() escape hatch. The history reconciler,
// the wallet manager and the ERC-20 client each declare their own
// Warn-only Logger interface, which *Logger satisfies; the façade itself
// holds a *Logger. Grounded on internal/config/logging.go's Logger, generalized
// from a CLI-output-formatting logger into the façade's cross-cutting
// warning sink (walletmanager's "ignore storage failure with a
// warning", the history reconciler's per-hash fetch-failure log).
package sdklog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the logger's verbosity, mirroring the teacher's LogLevel.
type Level int

// Supported levels.
const (
	LevelOff Level = iota
	LevelError
	LevelDebug
)

// ParseLevel parses a level string, defaulting to LevelError on any
// unrecognised value (matching the teacher's fail-safe default).
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LevelOff
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelError
	}
}

// String returns the level's lower-case name.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelDebug:
		return "debug"
	case LevelError:
		return "error"
	default:
		return "error"
	}
}

// Logger is a file-backed logger shared by every façade component. The
// zero value is not usable; construct with New or Null.
type Logger struct {
	mu      sync.Mutex
	level   Level
	file    *os.File
	slogger *slog.Logger
}

// New opens (creating if needed) filePath and returns a Logger at
// level. Passing level LevelOff or an empty filePath returns a logger
// that discards everything, matching the teacher's "off or no path"
// short-circuit.
func New(level Level, filePath string) (*Logger, error) {
	l := &Logger{level: level}

	if level == LevelOff || filePath == "" {
		return l, nil
	}

	if strings.HasPrefix(filePath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		filePath = filepath.Join(home, filePath[2:])
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- path comes from validated configuration, not raw user input
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	l.file = f
	l.slogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slogLevel(level)}))
	return l, nil
}

// Null returns a Logger that discards every message, for tests and
// hosts that don't want file logging.
func Null() *Logger {
	return &Logger{level: LevelOff}
}

func slogLevel(l Level) slog.Level {
	if l == LevelDebug {
		return slog.LevelDebug
	}
	return slog.LevelError
}

// Structured returns the underlying *slog.Logger, or nil if logging is
// disabled — the escape hatch for callers that want structured attrs.
func (l *Logger) Structured() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slogger
}

// Debug logs a debug-level message.
func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }

// Warn logs at the same disposition as Error: this core has no
// separate warning level, and every "ignore with a warning" path in
// the façade/wallet-manager/reconciler logs through this method.
func (l *Logger) Warn(format string, args ...any) { l.log(LevelError, format, args...) }

// Error logs an error-level message.
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.level == LevelOff || level > l.level || l.file == nil {
		return
	}

	ts := time.Now().Format("2006-01-02 15:04:05.000")
	_, _ = fmt.Fprintf(l.file, "%s [%s] %s\n", ts, strings.ToUpper(level.String()), fmt.Sprintf(format, args...))
}

// LogAttrs logs a structured record through slog, a no-op if logging
// is disabled.
func (l *Logger) LogAttrs(ctx context.Context, level Level, msg string, attrs ...slog.Attr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level == LevelOff || l.slogger == nil {
		return
	}
	l.slogger.LogAttrs(ctx, slogLevel(level), msg, attrs...)
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
