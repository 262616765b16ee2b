// Package colors provides console output helpers for the sirkin CLI.
package colors

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Color constants
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

const checkmark = "✓"

// Logger defines the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	debugEnabled bool
	logger       Logger
	mu           sync.RWMutex

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func init() {
	if val := os.Getenv("SIRKIN_DEBUG"); val == "true" || val == "1" {
		debugEnabled = true
	}
}

// SetDebug enables or disables debug output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debugEnabled = enabled
}

// SetLogger sets the structured logger to mirror console output.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// SetOutput redirects console output. Nil writers restore the process defaults.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

// emit mirrors msg to the structured logger and writes the formatted line.
// A failed console write falls back to a plain stderr line so errors are
// never swallowed.
func emit(lvl level, toStdout bool, format, msg string, logArgs ...any) {
	mu.RLock()
	l := logger
	w := stderr
	if toStdout {
		w = stdout
	}
	mu.RUnlock()

	if l != nil {
		switch lvl {
		case levelDebug:
			l.Debug(msg, logArgs...)
		case levelInfo:
			l.Info(msg, logArgs...)
		case levelWarn:
			l.Warn(msg, logArgs...)
		case levelError:
			l.Error(msg, logArgs...)
		}
	}

	if _, err := fmt.Fprintf(w, format, msg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to print message %q: %v\n", msg, err)
	}
}

// Error outputs an error message to stderr.
func Error(msgs ...string) {
	emit(levelError, false, Red+"Error:"+Reset+" %s"+Reset+"\n", strings.Join(msgs, " "))
}

// Success outputs a success message to stdout.
func Success(msgs ...string) {
	emit(levelInfo, true, Green+checkmark+Reset+" %s"+Reset+"\n", strings.Join(msgs, " "), "type", "success")
}

// Warning outputs a warning message to stderr.
func Warning(msgs ...string) {
	emit(levelWarn, false, Yellow+"Warning:"+Reset+" %s"+Reset+"\n", strings.Join(msgs, " "))
}

// Info outputs an informational message to stdout.
func Info(msgs ...string) {
	emit(levelInfo, true, Blue+"%s"+Reset+"\n", strings.Join(msgs, " "))
}

// Debug outputs a debug message to stderr if debug is enabled.
func Debug(msgs ...string) {
	mu.RLock()
	enabled := debugEnabled
	mu.RUnlock()
	if !enabled {
		return
	}
	emit(levelDebug, false, Cyan+"Debug:"+Reset+" %s"+Reset+"\n", strings.Join(msgs, " "))
}
