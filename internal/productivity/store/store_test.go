package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oicomi/oicomi/internal/productivity/domain/memo"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
	"github.com/oicomi/oicomi/internal/productivity/store"
	"github.com/oicomi/oicomi/internal/shared/eventbus"
)

// fakeBackend records persistence calls and can be told to fail.
type fakeBackend struct {
	mu          sync.Mutex
	saved       []uuid.UUID
	updated     []uuid.UUID
	memoSaves   int
	failSave    error
	failUpdate  error
	failMemo    error
	savedByUser map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{savedByUser: make(map[string]int)}
}

func (f *fakeBackend) LoadTasks(ctx context.Context, identityID string) ([]*task.Task, error) {
	return nil, nil
}

func (f *fakeBackend) SaveTask(ctx context.Context, identityID string, t *task.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave != nil {
		return f.failSave
	}
	f.saved = append(f.saved, t.ID())
	f.savedByUser[identityID]++
	return nil
}

func (f *fakeBackend) UpdateTask(ctx context.Context, identityID string, id uuid.UUID, patch task.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	f.updated = append(f.updated, id)
	return nil
}

func (f *fakeBackend) LoadMemo(ctx context.Context, identityID string) (*memo.Memo, error) {
	return nil, nil
}

func (f *fakeBackend) SaveMemo(ctx context.Context, identityID string, m *memo.Memo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMemo != nil {
		return f.failMemo
	}
	f.memoSaves++
	return nil
}

func (f *fakeBackend) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func newBoundStore(t *testing.T, backend *fakeBackend) *store.Store {
	t.Helper()
	s := store.New(nil, nil, nil)
	s.Bind("guest", backend, nil, nil)
	return s
}

func TestAdd(t *testing.T) {
	backend := newFakeBackend()
	s := newBoundStore(t, backend)

	tsk, err := s.Add(context.Background(), "Write report", 45, nil)

	require.NoError(t, err)
	assert.Equal(t, "Write report", tsk.Title())
	assert.Equal(t, 1, backend.saveCount())

	got, err := s.Get(tsk.ID())
	require.NoError(t, err)
	assert.Equal(t, tsk.ID(), got.ID())
}

func TestAdd_ValidationFailureSkipsBackend(t *testing.T) {
	backend := newFakeBackend()
	s := newBoundStore(t, backend)

	_, err := s.Add(context.Background(), "  ", 45, nil)
	assert.ErrorIs(t, err, task.ErrEmptyTitle)

	_, err = s.Add(context.Background(), "Task", 0, nil)
	assert.ErrorIs(t, err, task.ErrInvalidEstimate)

	assert.Zero(t, backend.saveCount())
}

func TestAdd_BackendFailureSurfacesAndDiscards(t *testing.T) {
	backend := newFakeBackend()
	backend.failSave = errors.New("backend down")
	s := newBoundStore(t, backend)

	_, err := s.Add(context.Background(), "Task", 30, nil)
	require.Error(t, err)
	assert.Empty(t, s.ActiveView())
}

func TestAdd_PublishesCreatedEvent(t *testing.T) {
	backend := newFakeBackend()
	bus := eventbus.NewInProcessBus(nil)

	var received []*eventbus.Envelope
	bus.Subscribe(task.RoutingKeyCreated, func(ctx context.Context, env *eventbus.Envelope) error {
		received = append(received, env)
		return nil
	})

	s := store.New(bus, nil, nil)
	s.Bind("guest", backend, nil, nil)

	tsk, err := s.Add(context.Background(), "Task", 30, nil)
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, tsk.ID(), received[0].AggregateID)
	assert.Equal(t, "guest", received[0].IdentityID)
}

func TestUpdate_NotFound(t *testing.T) {
	s := newBoundStore(t, newFakeBackend())

	title := "Renamed"
	err := s.Update(context.Background(), uuid.New(), task.Patch{Title: &title})
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestUpdate_MirrorsAsynchronously(t *testing.T) {
	backend := newFakeBackend()
	s := newBoundStore(t, backend)

	tsk, err := s.Add(context.Background(), "Task", 30, nil)
	require.NoError(t, err)

	title := "Renamed"
	require.NoError(t, s.Update(context.Background(), tsk.ID(), task.Patch{Title: &title}))
	s.Flush()

	got, err := s.Get(tsk.ID())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title())
	assert.Equal(t, 2, backend.saveCount()) // create + mirror
}

func TestUpdate_MirrorFailureReportsWithoutReverting(t *testing.T) {
	backend := newFakeBackend()

	var mu sync.Mutex
	var failures []uuid.UUID
	s := store.New(nil, nil, func(id uuid.UUID, err error) {
		mu.Lock()
		failures = append(failures, id)
		mu.Unlock()
	})
	s.Bind("guest", backend, nil, nil)

	tsk, err := s.Add(context.Background(), "Task", 30, nil)
	require.NoError(t, err)

	backend.mu.Lock()
	backend.failSave = errors.New("backend down")
	backend.mu.Unlock()

	title := "Renamed"
	require.NoError(t, s.Update(context.Background(), tsk.ID(), task.Patch{Title: &title}))
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 1)
	assert.Equal(t, tsk.ID(), failures[0])

	// The in-memory state keeps the edit; persistence is best-effort.
	got, err := s.Get(tsk.ID())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title())
}

func TestSetActive_MutualExclusion(t *testing.T) {
	backend := newFakeBackend()
	s := newBoundStore(t, backend)

	first, err := s.Add(context.Background(), "First", 30, nil)
	require.NoError(t, err)
	second, err := s.Add(context.Background(), "Second", 30, nil)
	require.NoError(t, err)

	require.NoError(t, s.SetActive(context.Background(), first.ID()))
	require.NoError(t, s.SetActive(context.Background(), second.ID()))
	s.Flush()

	got, err := s.Get(first.ID())
	require.NoError(t, err)
	assert.False(t, got.IsActive())

	got, err = s.Get(second.ID())
	require.NoError(t, err)
	assert.True(t, got.IsActive())
}

func TestComplete(t *testing.T) {
	backend := newFakeBackend()
	s := newBoundStore(t, backend)

	tsk, err := s.Add(context.Background(), "Task", 30, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetActive(context.Background(), tsk.ID()))

	require.NoError(t, s.Complete(context.Background(), tsk.ID()))

	got, err := s.Get(tsk.ID())
	require.NoError(t, err)
	assert.True(t, got.IsCompleted())
	assert.NotNil(t, got.CompletedAt())
	assert.False(t, got.IsActive())
	assert.Len(t, backend.updated, 1)
}

func TestComplete_BackendFailureLeavesTaskIncomplete(t *testing.T) {
	backend := newFakeBackend()
	s := newBoundStore(t, backend)

	tsk, err := s.Add(context.Background(), "Task", 30, nil)
	require.NoError(t, err)

	backend.failUpdate = errors.New("backend down")
	require.Error(t, s.Complete(context.Background(), tsk.ID()))

	got, err := s.Get(tsk.ID())
	require.NoError(t, err)
	assert.False(t, got.IsCompleted())
}

func TestRestore_PreservesCreatedAt(t *testing.T) {
	backend := newFakeBackend()
	s := newBoundStore(t, backend)

	tsk, err := s.Add(context.Background(), "Task", 30, nil)
	require.NoError(t, err)
	createdAt := tsk.CreatedAt()

	require.NoError(t, s.Complete(context.Background(), tsk.ID()))
	require.NoError(t, s.Restore(context.Background(), tsk.ID()))

	got, err := s.Get(tsk.ID())
	require.NoError(t, err)
	assert.False(t, got.IsCompleted())
	assert.Nil(t, got.CompletedAt())
	assert.Equal(t, createdAt, got.CreatedAt())
}

func TestActiveView_PriorityFirstThenCreation(t *testing.T) {
	s := newBoundStore(t, newFakeBackend())

	older, err := s.Add(context.Background(), "Older", 30, nil)
	require.NoError(t, err)
	newer, err := s.Add(context.Background(), "Newer", 30, nil)
	require.NoError(t, err)
	flagged, err := s.Add(context.Background(), "Flagged", 30, nil)
	require.NoError(t, err)

	priority := true
	require.NoError(t, s.Update(context.Background(), flagged.ID(), task.Patch{IsPriority: &priority}))

	view := s.ActiveView()
	require.Len(t, view, 3)
	assert.Equal(t, flagged.ID(), view[0].ID())
	assert.Equal(t, older.ID(), view[1].ID())
	assert.Equal(t, newer.ID(), view[2].ID())
}

func TestCompletedView_MostRecentFirst(t *testing.T) {
	s := newBoundStore(t, newFakeBackend())

	first, err := s.Add(context.Background(), "First", 30, nil)
	require.NoError(t, err)
	second, err := s.Add(context.Background(), "Second", 30, nil)
	require.NoError(t, err)

	require.NoError(t, s.Complete(context.Background(), first.ID()))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Complete(context.Background(), second.ID()))

	view := s.CompletedView()
	require.Len(t, view, 2)
	assert.Equal(t, second.ID(), view[0].ID())
	assert.Equal(t, first.ID(), view[1].ID())

	assert.Empty(t, s.ActiveView())
}

func TestCompletedView_ToleratesMissingCompletionTime(t *testing.T) {
	s := store.New(nil, nil, nil)

	// Only storage can produce a completed task without a timestamp; the
	// view must still sort it rather than crash, with timestamped tasks
	// first.
	at := time.Now().UTC()
	proper := task.Rehydrate(uuid.New(), "Proper", 30, nil, false, true, false,
		at.Add(-time.Hour), &at)
	broken := task.Rehydrate(uuid.New(), "Broken", 30, nil, false, true, false,
		at.Add(-time.Hour), nil)
	s.Bind("guest", newFakeBackend(), []*task.Task{broken, proper}, nil)

	view := s.CompletedView()
	require.Len(t, view, 2)
	assert.Equal(t, proper.ID(), view[0].ID())
	assert.Equal(t, broken.ID(), view[1].ID())
}

func TestStats(t *testing.T) {
	s := newBoundStore(t, newFakeBackend())

	done, err := s.Add(context.Background(), "Done today", 30, nil)
	require.NoError(t, err)
	_, err = s.Add(context.Background(), "Still open", 30, nil)
	require.NoError(t, err)

	require.NoError(t, s.Complete(context.Background(), done.ID()))

	stats := s.Stats()
	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 1, stats.TodayCompleted)
	assert.Equal(t, 1, stats.WeekCompleted)
}

func TestMemo(t *testing.T) {
	backend := newFakeBackend()
	s := newBoundStore(t, backend)

	assert.Nil(t, s.Memo())

	m, err := s.SetMemo(context.Background(), "call the dentist")
	require.NoError(t, err)
	assert.Equal(t, "call the dentist", m.Content)
	assert.False(t, m.LastUpdated.IsZero())
	assert.Equal(t, 1, backend.memoSaves)

	got := s.Memo()
	require.NotNil(t, got)
	assert.Equal(t, "call the dentist", got.Content)
}

func TestMemo_BackendFailureKeepsOldContent(t *testing.T) {
	backend := newFakeBackend()
	s := newBoundStore(t, backend)

	_, err := s.SetMemo(context.Background(), "original")
	require.NoError(t, err)

	backend.failMemo = errors.New("backend down")
	_, err = s.SetMemo(context.Background(), "replacement")
	require.Error(t, err)

	got := s.Memo()
	require.NotNil(t, got)
	assert.Equal(t, "original", got.Content)
}

func TestBind_ReplacesWithoutMerging(t *testing.T) {
	guestBackend := newFakeBackend()
	s := newBoundStore(t, guestBackend)

	_, err := s.Add(context.Background(), "Guest task", 30, nil)
	require.NoError(t, err)
	_, err = s.SetMemo(context.Background(), "guest memo")
	require.NoError(t, err)

	userBackend := newFakeBackend()
	userTask, err := task.New("User task", 15, nil)
	require.NoError(t, err)
	s.Bind("user-1", userBackend, []*task.Task{userTask}, &memo.Memo{Content: "user memo"})

	view := s.ActiveView()
	require.Len(t, view, 1)
	assert.Equal(t, userTask.ID(), view[0].ID())
	assert.Equal(t, "user memo", s.Memo().Content)

	// New writes go to the new identity's backend.
	_, err = s.Add(context.Background(), "Another", 10, nil)
	require.NoError(t, err)
	userBackend.mu.Lock()
	assert.Equal(t, 1, userBackend.savedByUser["user-1"])
	userBackend.mu.Unlock()
}
