package persistence_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oicomi/oicomi/internal/productivity/domain/memo"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
	"github.com/oicomi/oicomi/internal/productivity/infrastructure/persistence"
	"github.com/oicomi/oicomi/internal/shared/kv"
)

func newLocal() (*persistence.LocalBackend, *kv.MemoryStore) {
	store := kv.NewMemoryStore()
	return persistence.NewLocalBackend(store, nil), store
}

func TestLocalBackend_RoundTrip(t *testing.T) {
	backend, _ := newLocal()
	ctx := context.Background()

	original, err := task.New("Write report", 45, []string{"https://example.com"})
	require.NoError(t, err)
	original.SetPriority(true)

	require.NoError(t, backend.SaveTask(ctx, "guest", original))

	loaded, err := backend.LoadTasks(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, original.ID(), got.ID())
	assert.Equal(t, "Write report", got.Title())
	assert.Equal(t, 45, got.EstimatedTime())
	assert.Equal(t, []string{"https://example.com"}, got.URLs())
	assert.True(t, got.IsPriority())
	assert.False(t, got.IsCompleted())
	assert.True(t, original.CreatedAt().Equal(got.CreatedAt()))
}

func TestLocalBackend_LoadTasksEmptyWhenMissing(t *testing.T) {
	backend, _ := newLocal()

	tasks, err := backend.LoadTasks(context.Background(), "guest")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestLocalBackend_LoadTasksDegradesOnMalformedData(t *testing.T) {
	backend, store := newLocal()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "oicomi:guest:tasks", "not json"))

	tasks, err := backend.LoadTasks(ctx, "guest")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestLocalBackend_LoadTasksSkipsBadRecords(t *testing.T) {
	backend, store := newLocal()
	ctx := context.Background()

	good, err := task.New("Good", 30, nil)
	require.NoError(t, err)
	require.NoError(t, backend.SaveTask(ctx, "guest", good))

	// Inject a record with an unparseable id next to the good one.
	raw, err := store.Get(ctx, "oicomi:guest:tasks")
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	records = append(records, map[string]any{"id": "not-a-uuid", "title": "Bad"})
	injected, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "oicomi:guest:tasks", string(injected)))

	tasks, err := backend.LoadTasks(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, good.ID(), tasks[0].ID())
}

func TestLocalBackend_LoadTasksSkipsCompletedWithoutTimestamp(t *testing.T) {
	backend, store := newLocal()
	ctx := context.Background()

	good, err := task.New("Good", 30, nil)
	require.NoError(t, err)
	require.NoError(t, backend.SaveTask(ctx, "guest", good))

	// A record claiming completion but carrying no completedAt must be
	// dropped at load, not handed to the views.
	raw, err := store.Get(ctx, "oicomi:guest:tasks")
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	records = append(records, map[string]any{
		"id":            uuid.New().String(),
		"title":         "Broken",
		"estimatedTime": 30,
		"isCompleted":   true,
		"createdAt":     time.Now().UTC().Format(time.RFC3339Nano),
	})
	injected, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "oicomi:guest:tasks", string(injected)))

	tasks, err := backend.LoadTasks(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, good.ID(), tasks[0].ID())
}

func TestLocalBackend_LoadTasksClearsStrayCompletionTime(t *testing.T) {
	backend, store := newLocal()
	ctx := context.Background()

	record := map[string]any{
		"id":            uuid.New().String(),
		"title":         "Stray timestamp",
		"estimatedTime": 30,
		"isCompleted":   false,
		"completedAt":   time.Now().UTC().Format(time.RFC3339Nano),
		"createdAt":     time.Now().UTC().Format(time.RFC3339Nano),
	}
	raw, err := json.Marshal([]map[string]any{record})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "oicomi:guest:tasks", string(raw)))

	tasks, err := backend.LoadTasks(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].IsCompleted())
	assert.Nil(t, tasks[0].CompletedAt())
}

func TestLocalBackend_LoadTasksOrderedByCreation(t *testing.T) {
	backend, _ := newLocal()
	ctx := context.Background()

	older := task.Rehydrate(uuid.New(), "Older", 30, nil, false, false, false,
		time.Now().UTC().Add(-time.Hour), nil)
	newer := task.Rehydrate(uuid.New(), "Newer", 30, nil, false, false, false,
		time.Now().UTC(), nil)

	// Save newest first; load order must still be by creation time.
	require.NoError(t, backend.SaveTask(ctx, "guest", newer))
	require.NoError(t, backend.SaveTask(ctx, "guest", older))

	tasks, err := backend.LoadTasks(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, older.ID(), tasks[0].ID())
	assert.Equal(t, newer.ID(), tasks[1].ID())
}

func TestLocalBackend_SaveTaskReplacesExisting(t *testing.T) {
	backend, _ := newLocal()
	ctx := context.Background()

	tsk, err := task.New("Task", 30, nil)
	require.NoError(t, err)
	require.NoError(t, backend.SaveTask(ctx, "guest", tsk))

	require.NoError(t, tsk.SetTitle("Renamed"))
	require.NoError(t, backend.SaveTask(ctx, "guest", tsk))

	tasks, err := backend.LoadTasks(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Renamed", tasks[0].Title())
}

func TestLocalBackend_UpdateTask(t *testing.T) {
	backend, _ := newLocal()
	ctx := context.Background()

	tsk, err := task.New("Task", 30, nil)
	require.NoError(t, err)
	require.NoError(t, backend.SaveTask(ctx, "guest", tsk))

	at := tsk.CreatedAt().Add(time.Hour)
	completed := true
	err = backend.UpdateTask(ctx, "guest", tsk.ID(), task.Patch{IsCompleted: &completed, CompletedAt: &at})
	require.NoError(t, err)

	tasks, err := backend.LoadTasks(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].IsCompleted())
	require.NotNil(t, tasks[0].CompletedAt())
	assert.True(t, at.Equal(*tasks[0].CompletedAt()))
}

func TestLocalBackend_UpdateTaskNotFound(t *testing.T) {
	backend, _ := newLocal()

	title := "Renamed"
	err := backend.UpdateTask(context.Background(), "guest", uuid.New(), task.Patch{Title: &title})
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestLocalBackend_IdentitiesAreIsolated(t *testing.T) {
	backend, _ := newLocal()
	ctx := context.Background()

	guestTask, err := task.New("Guest task", 30, nil)
	require.NoError(t, err)
	require.NoError(t, backend.SaveTask(ctx, "guest", guestTask))

	userTasks, err := backend.LoadTasks(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, userTasks)
}

func TestLocalBackend_MemoRoundTrip(t *testing.T) {
	backend, _ := newLocal()
	ctx := context.Background()

	loaded, err := backend.LoadMemo(ctx, "guest")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	m := memo.New("call the dentist")
	require.NoError(t, backend.SaveMemo(ctx, "guest", m))

	loaded, err = backend.LoadMemo(ctx, "guest")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "call the dentist", loaded.Content)
	assert.True(t, m.LastUpdated.Equal(loaded.LastUpdated))
}

func TestLocalBackend_MemoDegradesOnMalformedData(t *testing.T) {
	backend, store := newLocal()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "oicomi:guest:memo", "not json"))

	loaded, err := backend.LoadMemo(ctx, "guest")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
