package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "nested", "sirkin.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestSnapshotRoundTripAndReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSnapshot(ctx, "expenses", []byte(`[1]`), first))
	snap, err := s.LoadSnapshot(ctx, "expenses")
	require.NoError(t, err)
	assert.Equal(t, "expenses", snap.Kind)
	assert.Equal(t, []byte(`[1]`), snap.Payload)
	assert.True(t, first.Equal(snap.FetchedAt))

	second := first.Add(time.Minute)
	require.NoError(t, s.SaveSnapshot(ctx, "expenses", []byte(`[1,2]`), second))
	snap, err = s.LoadSnapshot(ctx, "expenses")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2]`), snap.Payload)
	assert.True(t, second.Equal(snap.FetchedAt))
}

func TestLoadSnapshotNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadSnapshot(context.Background(), "payments")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveSnapshotRequiresKind(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveSnapshot(context.Background(), "", []byte("x"), time.Now())
	require.Error(t, err)
}

func TestRecordRunAssignsUUID(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	id, err := s.RecordRun(context.Background(), Run{Tab: "overview", StartedAt: start, FinishedAt: start.Add(time.Second)})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	_, err = s.RecordRun(context.Background(), Run{ID: "not-a-uuid", Tab: "overview"})
	require.Error(t, err)

	_, err = s.RecordRun(context.Background(), Run{})
	require.Error(t, err)
}

func TestListRunsNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tabs := []string{"overview", "expenses", "payments"}
	for i, tab := range tabs {
		started := base.Add(time.Duration(i) * 500 * time.Millisecond)
		run := Run{Tab: tab, StartedAt: started, FinishedAt: started.Add(100 * time.Millisecond)}
		if tab == "expenses" {
			run.Error = "sheet unavailable"
		}
		_, err := s.RecordRun(ctx, run)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "payments", runs[0].Tab)
	assert.Equal(t, "expenses", runs[1].Tab)
	assert.True(t, runs[1].Failed())
	assert.Equal(t, "sheet unavailable", runs[1].Error)
	assert.True(t, base.Add(time.Second).Equal(runs[0].StartedAt))

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.False(t, all[2].Failed())
}

func TestPruneRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := range 4 {
		started := base.AddDate(0, 0, i)
		_, err := s.RecordRun(ctx, Run{Tab: "overview", StartedAt: started, FinishedAt: started})
		require.NoError(t, err)
	}

	removed, err := s.PruneRuns(ctx, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sirkin.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(ctx, "balance", []byte(`{}`), time.Now()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.LoadSnapshot(ctx, "balance")
	require.NoError(t, err)
}
