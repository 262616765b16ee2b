package main

import (
	"errors"
	"testing"

	apperrors "github.com/Sirkin25/sirkin-dashboard-sub000/internal/errors"
	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	errors []string
	infos  []string
}

func (h *recordingHandler) Error(msg string)   { h.errors = append(h.errors, msg) }
func (h *recordingHandler) Warning(msg string) {}
func (h *recordingHandler) Info(msg string)    { h.infos = append(h.infos, msg) }
func (h *recordingHandler) Success(msg string) {}

func TestRunSuccess(t *testing.T) {
	h := &recordingHandler{}

	code := run(func() error { return nil }, h)

	assert.Equal(t, 0, code)
	assert.Empty(t, h.errors)
}

func TestRunReportsErrorWithHint(t *testing.T) {
	h := &recordingHandler{}
	err := apperrors.WithHint(errors.New("sheet id not configured"), "set sheet_id")

	code := run(func() error { return err }, h)

	assert.Equal(t, 1, code)
	assert.Equal(t, []string{"sheet id not configured"}, h.errors)
	assert.Equal(t, []string{"hint: set sheet_id"}, h.infos)
}
