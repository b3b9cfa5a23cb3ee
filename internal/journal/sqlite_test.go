package journal

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/retry"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndByRun(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, "run-1", "custom", []byte(`{"a":1}`), map[string]string{"k": "v"}))
	require.NoError(t, store.Append(ctx, "run-2", "custom", nil, nil))
	require.NoError(t, store.Append(ctx, "run-1", "other", []byte(`{}`), nil))

	events, err := store.ByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "custom", events[0].Type())
	assert.Equal(t, "run-1", events[0].RunID())
	assert.JSONEq(t, `{"a":1}`, string(events[0].Payload()))
	assert.Equal(t, map[string]string{"k": "v"}, events[0].Metadata())
	assert.Equal(t, "other", events[1].Type())
	assert.Less(t, events[0].ID(), events[1].ID())
	assert.False(t, events[0].Timestamp().IsZero())

	none, err := store.ByRun(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordAndRuns(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	ok := NewRunID()
	_, err := uuid.Parse(ok)
	require.NoError(t, err)

	require.NoError(t, Record(ctx, store, ok, TypeRunStarted, RunStarted{From: "2.4.8", To: "3.5.0", Strict: true}))
	require.NoError(t, Record(ctx, store, ok, TypeValidationPassed, Validation{Version: "2.4.8"}))
	require.NoError(t, Record(ctx, store, ok, TypeHopCompleted, HopCompleted{From: "2.4.8", To: "3.0.0", DurationMS: 4}))
	require.NoError(t, Record(ctx, store, ok, TypeRunCompleted, RunCompleted{DurationMS: 12, PendingMarkers: 1}))

	bad := NewRunID()
	require.NoError(t, Record(ctx, store, bad, TypeRunStarted, RunStarted{From: "3.4.0", To: "3.5.0"}))
	require.NoError(t, Record(ctx, store, bad, TypeRunFailed, RunFailed{Stage: "validate", Hop: "3.4.0->3.5.0", Error: "boom"}))

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byID := map[string]RunSummary{}
	for _, r := range runs {
		byID[r.RunID] = r
	}
	assert.Equal(t, bad, runs[0].RunID, "newest first")

	good := byID[ok]
	assert.Equal(t, StatusCompleted, good.Status)
	assert.Equal(t, "2.4.8", good.From)
	assert.Equal(t, "3.5.0", good.To)
	assert.Equal(t, 1, good.HopsCompleted)
	assert.Equal(t, 1, good.Validations)
	assert.Equal(t, 1, good.PendingMarkers)
	assert.EqualValues(t, 12_000_000, good.Duration)
	require.NotNil(t, good.CompletedAt)

	failed := byID[bad]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "validate", failed.ErrorStage)
	assert.Equal(t, "3.4.0->3.5.0", failed.ErrorHop)
	assert.Equal(t, "boom", failed.ErrorMessage)
}

func TestRecord_UnmarshalablePayload(t *testing.T) {
	store := newStore(t)
	err := Record(t.Context(), store, "r", TypeRunStarted, make(chan int))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryJournal))
}

func TestClosedStoreReturnsJournalError(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Append(context.Background(), "r", "x", nil, nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryJournal))
}

func TestPersistentStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, Record(t.Context(), store, "r", TypeRunStarted, RunStarted{From: "a", To: "b"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.ByRun(t.Context(), "r")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSummarize_RunningAndUnknownEvents(t *testing.T) {
	events := []Event{
		&BaseEvent{EventID: 1, EventRunID: "a", EventType: TypeRunStarted, EventPayload: []byte(`not json`)},
		&BaseEvent{EventID: 2, EventRunID: "a", EventType: "something_else", EventPayload: []byte(`{}`)},
		&BaseEvent{EventID: 3, EventRunID: "", EventType: TypeRunStarted, EventPayload: []byte(`{}`)},
	}
	runs := Summarize(events)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusRunning, runs[0].Status)
	assert.Nil(t, runs[0].CompletedAt)
}

func TestIsBusy(t *testing.T) {
	assert.False(t, isBusy(nil))
	assert.False(t, isBusy(fmt.Errorf("wrapped: %w", io.EOF)))
}

func TestAppend_WithCustomRetryPolicy(t *testing.T) {
	s := newStore(t)
	s.SetRetryPolicy(retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 1))

	require.NoError(t, s.Append(t.Context(), "run-1", TypeRunStarted, nil, nil))
	events, err := s.ByRun(t.Context(), "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.JSONEq(t, "{}", string(events[0].Payload()))
}
