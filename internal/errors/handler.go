// Package errors routes user-facing messages to the console or the TUI and
// attaches remediation hints to errors.
package errors

import (
	stderrors "errors"
	"sync"
)

// ErrorHandler receives user-facing messages. The CLI prints them; the TUI
// keeps them for its status line.
type ErrorHandler interface {
	Error(msg string)
	Warning(msg string)
	Info(msg string)
	Success(msg string)
}

// ColorOutput is the console surface the CLI handler writes to.
type ColorOutput interface {
	Error(msgs ...string)
	Warning(msgs ...string)
	Info(msgs ...string)
	Success(msgs ...string)
}

// CLIHandler prints messages through a ColorOutput. Calls are serialized so
// concurrent refresh failures do not interleave their lines.
type CLIHandler struct {
	colors ColorOutput
	mu     sync.Mutex
}

var _ ErrorHandler = (*CLIHandler)(nil)

// NewCLIHandler returns a handler writing to colors.
func NewCLIHandler(colors ColorOutput) *CLIHandler {
	return &CLIHandler{colors: colors}
}

func (h *CLIHandler) Error(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.colors.Error(msg)
}

func (h *CLIHandler) Warning(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.colors.Warning(msg)
}

func (h *CLIHandler) Info(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.colors.Info(msg)
}

func (h *CLIHandler) Success(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.colors.Success(msg)
}

// Report prints err and, when one is attached, its hint. A nil error is ignored.
func Report(h ErrorHandler, err error) {
	if err == nil {
		return
	}
	h.Error(err.Error())
	if hint := HintOf(err); hint != "" {
		h.Info("hint: " + hint)
	}
}

type hintError struct {
	err  error
	hint string
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }

// WithHint annotates err with a remediation hint. A nil error stays nil.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hintError{err: err, hint: hint}
}

// HintOf returns the outermost hint attached to err, or "".
func HintOf(err error) string {
	var he *hintError
	if stderrors.As(err, &he) {
		return he.hint
	}
	return ""
}
