package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oicomi/oicomi/internal/productivity/domain/memo"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
	"github.com/oicomi/oicomi/internal/shared/kv"
)

// LocalBackend implements Backend on top of a key-value store. The whole task
// collection lives under one key as a JSON array and is rewritten on every
// save; acceptable at this data scale.
type LocalBackend struct {
	store  kv.Store
	logger *slog.Logger
}

// NewLocalBackend creates a key-value backed persistence backend.
func NewLocalBackend(store kv.Store, logger *slog.Logger) *LocalBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalBackend{store: store, logger: logger}
}

func tasksKey(identityID string) string { return fmt.Sprintf("oicomi:%s:tasks", identityID) }
func memoKey(identityID string) string  { return fmt.Sprintf("oicomi:%s:memo", identityID) }

// taskRecord is the stored form of a task. Timestamps serialize as RFC 3339.
type taskRecord struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	EstimatedTime int        `json:"estimatedTime"`
	URLs          []string   `json:"urls"`
	IsActive      bool       `json:"isActive"`
	IsCompleted   bool       `json:"isCompleted"`
	IsPriority    bool       `json:"isPriority"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

type memoRecord struct {
	Content     string    `json:"content"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func recordFromTask(t *task.Task) taskRecord {
	return taskRecord{
		ID:            t.ID().String(),
		Title:         t.Title(),
		EstimatedTime: t.EstimatedTime(),
		URLs:          t.URLs(),
		IsActive:      t.IsActive(),
		IsCompleted:   t.IsCompleted(),
		IsPriority:    t.IsPriority(),
		CreatedAt:     t.CreatedAt(),
		CompletedAt:   t.CompletedAt(),
	}
}

func (r taskRecord) toTask() (*task.Task, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", r.ID, err)
	}
	// A completed record must carry its completion time; anything else is
	// malformed. A stray timestamp on an incomplete record is dropped.
	if r.IsCompleted && r.CompletedAt == nil {
		return nil, fmt.Errorf("task %s marked completed without completion time", r.ID)
	}
	completedAt := r.CompletedAt
	if !r.IsCompleted {
		completedAt = nil
	}
	return task.Rehydrate(id, r.Title, r.EstimatedTime, r.URLs, r.IsActive, r.IsCompleted, r.IsPriority, r.CreatedAt, completedAt), nil
}

// readAll loads the stored collection. A missing key or malformed data
// degrades to an empty collection.
func (b *LocalBackend) readAll(ctx context.Context, identityID string) []taskRecord {
	raw, err := b.store.Get(ctx, tasksKey(identityID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		b.logger.Warn("task load failed, starting empty", "identity", identityID, "error", err)
		return nil
	}

	var records []taskRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		b.logger.Warn("stored tasks malformed, starting empty", "identity", identityID, "error", err)
		return nil
	}
	return records
}

func (b *LocalBackend) writeAll(ctx context.Context, identityID string, records []taskRecord) error {
	if records == nil {
		records = []taskRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	if err := b.store.Set(ctx, tasksKey(identityID), string(raw)); err != nil {
		return fmt.Errorf("write tasks: %w: %w", ErrBackendUnavailable, err)
	}
	return nil
}

// LoadTasks returns the stored collection ordered by creation time.
func (b *LocalBackend) LoadTasks(ctx context.Context, identityID string) ([]*task.Task, error) {
	records := b.readAll(ctx, identityID)

	tasks := make([]*task.Task, 0, len(records))
	for _, r := range records {
		t, err := r.toTask()
		if err != nil {
			b.logger.Warn("skipping malformed task record", "identity", identityID, "error", err)
			continue
		}
		tasks = append(tasks, t)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt().Before(tasks[j].CreatedAt())
	})
	return tasks, nil
}

// SaveTask replaces-or-appends the record, then rewrites the whole
// collection.
func (b *LocalBackend) SaveTask(ctx context.Context, identityID string, t *task.Task) error {
	records := b.readAll(ctx, identityID)

	rec := recordFromTask(t)
	replaced := false
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	return b.writeAll(ctx, identityID, records)
}

// UpdateTask applies a partial update to the stored record.
func (b *LocalBackend) UpdateTask(ctx context.Context, identityID string, id uuid.UUID, patch task.Patch) error {
	records := b.readAll(ctx, identityID)

	for i := range records {
		if records[i].ID != id.String() {
			continue
		}
		t, err := records[i].toTask()
		if err != nil {
			return err
		}
		if err := t.Apply(patch); err != nil {
			return err
		}
		records[i] = recordFromTask(t)
		return b.writeAll(ctx, identityID, records)
	}
	return task.ErrNotFound
}

// LoadMemo returns the stored memo, or absent when missing or malformed.
func (b *LocalBackend) LoadMemo(ctx context.Context, identityID string) (*memo.Memo, error) {
	raw, err := b.store.Get(ctx, memoKey(identityID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		b.logger.Warn("memo load failed, starting without memo", "identity", identityID, "error", err)
		return nil, nil
	}

	var rec memoRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		b.logger.Warn("stored memo malformed, starting without memo", "identity", identityID, "error", err)
		return nil, nil
	}
	return &memo.Memo{Content: rec.Content, LastUpdated: rec.LastUpdated}, nil
}

// SaveMemo overwrites the stored memo.
func (b *LocalBackend) SaveMemo(ctx context.Context, identityID string, m *memo.Memo) error {
	raw, err := json.Marshal(memoRecord{Content: m.Content, LastUpdated: m.LastUpdated})
	if err != nil {
		return fmt.Errorf("failed to encode memo: %w", err)
	}
	if err := b.store.Set(ctx, memoKey(identityID), string(raw)); err != nil {
		return fmt.Errorf("write memo: %w: %w", ErrBackendUnavailable, err)
	}
	return nil
}
