package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/colors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockColorOutput struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockColorOutput) record(kind string, msgs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("%s:%s", kind, msgs[0]))
}

func (m *mockColorOutput) Error(msgs ...string)   { m.record("error", msgs) }
func (m *mockColorOutput) Warning(msgs ...string) { m.record("warning", msgs) }
func (m *mockColorOutput) Info(msgs ...string)    { m.record("info", msgs) }
func (m *mockColorOutput) Success(msgs ...string) { m.record("success", msgs) }

func TestCLIHandlerForwardsEachLevel(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	handler.Error("e")
	handler.Warning("w")
	handler.Info("i")
	handler.Success("s")

	assert.Equal(t, []string{"error:e", "warning:w", "info:i", "success:s"}, mock.calls)
}

func TestReportPrintsHint(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	base := stderrors.New("sheet returned 403")
	err := fmt.Errorf("refresh overview: %w", WithHint(base, "share the sheet with anyone who has the link"))
	Report(handler, err)

	require.Len(t, mock.calls, 2)
	assert.Equal(t, "error:refresh overview: sheet returned 403", mock.calls[0])
	assert.Equal(t, "info:hint: share the sheet with anyone who has the link", mock.calls[1])
	assert.ErrorIs(t, err, base)
}

func TestReportWithoutHintOrError(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	Report(handler, nil)
	Report(handler, stderrors.New("plain"))

	assert.Equal(t, []string{"error:plain"}, mock.calls)
	assert.Nil(t, WithHint(nil, "unused"))
	assert.Empty(t, HintOf(stderrors.New("x")))
}

func TestDefaultCLIHandlerWritesThroughColors(t *testing.T) {
	var out, errOut bytes.Buffer
	colors.SetOutput(&out, &errOut)
	t.Cleanup(func() { colors.SetOutput(nil, nil) })

	handler := NewDefaultCLIHandler()
	handler.Error("adapter error")
	handler.Success("adapter success")

	assert.Contains(t, errOut.String(), "adapter error")
	assert.Contains(t, out.String(), "adapter success")
}

func TestTUIHandlerStoresAndNotifies(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var got []Message
	handler := NewTUIHandler(func() time.Time { return fixed }, func(m Message) { got = append(got, m) })

	_, ok := handler.Latest()
	require.False(t, ok)

	handler.Warning("offline")
	handler.Success("refreshed")

	latest, ok := handler.Latest()
	require.True(t, ok)
	assert.Equal(t, "refreshed", latest.Text)
	assert.Equal(t, MessageTypeSuccess, latest.Type)
	assert.Equal(t, fixed, latest.Timestamp)
	require.Len(t, got, 2)
	assert.Equal(t, MessageTypeWarning, got[0].Type)

	handler.Clear()
	assert.Empty(t, handler.All())
}

func TestTUIHandlerIsBounded(t *testing.T) {
	handler := NewTUIHandler(nil, nil)
	for i := 0; i < DefaultTUICapacity+5; i++ {
		handler.Info(fmt.Sprintf("m%d", i))
	}

	all := handler.All()
	require.Len(t, all, DefaultTUICapacity)
	assert.Equal(t, "m5", all[0].Text)
	assert.Equal(t, fmt.Sprintf("m%d", DefaultTUICapacity+4), all[len(all)-1].Text)
}
