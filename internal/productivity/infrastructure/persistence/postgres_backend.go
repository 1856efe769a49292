package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oicomi/oicomi/internal/productivity/domain/memo"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
)

// PostgresBackend implements Backend on a PostgreSQL pool. One row per task,
// one memo row per identity.
type PostgresBackend struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresBackend creates a PostgreSQL-backed persistence backend.
func NewPostgresBackend(pool *pgxpool.Pool, logger *slog.Logger) *PostgresBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresBackend{pool: pool, logger: logger}
}

// RunMigrations creates the backing tables when missing. Idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS tasks (
		id                TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL,
		title             TEXT NOT NULL,
		estimated_minutes INTEGER NOT NULL,
		urls              JSONB NOT NULL DEFAULT '[]',
		is_active         BOOLEAN NOT NULL DEFAULT FALSE,
		is_completed      BOOLEAN NOT NULL DEFAULT FALSE,
		is_priority       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at        TIMESTAMPTZ NOT NULL,
		completed_at      TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks (user_id, created_at);

	CREATE TABLE IF NOT EXISTS memos (
		user_id      TEXT PRIMARY KEY,
		content      TEXT NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL
	);`

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// LoadTasks returns the identity's tasks ordered by creation time. A backend
// failure degrades to an empty collection: losing read access to a listing is
// treated as "nothing yet", not as fatal.
func (b *PostgresBackend) LoadTasks(ctx context.Context, identityID string) ([]*task.Task, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id, title, estimated_minutes, urls, is_active, is_completed, is_priority, created_at, completed_at
		 FROM tasks WHERE user_id = $1 ORDER BY created_at ASC`, identityID)
	if err != nil {
		b.logger.Warn("task load failed, starting empty", "identity", identityID, "error", err)
		return nil, nil
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			b.logger.Warn("skipping malformed task row", "identity", identityID, "error", err)
			continue
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		b.logger.Warn("task load interrupted, starting empty", "identity", identityID, "error", err)
		return nil, nil
	}
	return tasks, nil
}

// SaveTask upserts the full task record.
func (b *PostgresBackend) SaveTask(ctx context.Context, identityID string, t *task.Task) error {
	urls, err := json.Marshal(t.URLs())
	if err != nil {
		return fmt.Errorf("failed to encode urls: %w", err)
	}

	_, err = b.pool.Exec(ctx,
		`INSERT INTO tasks (id, user_id, title, estimated_minutes, urls, is_active, is_completed, is_priority, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			estimated_minutes = EXCLUDED.estimated_minutes,
			urls = EXCLUDED.urls,
			is_active = EXCLUDED.is_active,
			is_completed = EXCLUDED.is_completed,
			is_priority = EXCLUDED.is_priority,
			completed_at = EXCLUDED.completed_at`,
		t.ID().String(), identityID, t.Title(), t.EstimatedTime(), string(urls),
		t.IsActive(), t.IsCompleted(), t.IsPriority(), t.CreatedAt(), t.CompletedAt())
	if err != nil {
		return fmt.Errorf("save task %s: %w: %w", t.ID(), ErrBackendUnavailable, err)
	}
	return nil
}

// UpdateTask applies a partial update to the stored record.
func (b *PostgresBackend) UpdateTask(ctx context.Context, identityID string, id uuid.UUID, patch task.Patch) error {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 9)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.EstimatedTime != nil {
		add("estimated_minutes", *patch.EstimatedTime)
	}
	if patch.URLs != nil {
		urls, err := json.Marshal(*patch.URLs)
		if err != nil {
			return fmt.Errorf("failed to encode urls: %w", err)
		}
		args = append(args, string(urls))
		sets = append(sets, fmt.Sprintf("urls = $%d::jsonb", len(args)))
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if patch.IsPriority != nil {
		add("is_priority", *patch.IsPriority)
	}
	if patch.IsCompleted != nil {
		add("is_completed", *patch.IsCompleted)
		if *patch.IsCompleted {
			if patch.CompletedAt == nil {
				return task.ErrCompletionTimeRequired
			}
			add("completed_at", *patch.CompletedAt)
		} else {
			add("completed_at", nil)
		}
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id.String())
	idArg := len(args)
	args = append(args, identityID)

	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(sets, ", "), idArg, idArg+1)

	tag, err := b.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task %s: %w: %w", id, ErrBackendUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

// LoadMemo returns the identity's memo, degrading to absent on failure.
func (b *PostgresBackend) LoadMemo(ctx context.Context, identityID string) (*memo.Memo, error) {
	var m memo.Memo
	err := b.pool.QueryRow(ctx,
		`SELECT content, last_updated FROM memos WHERE user_id = $1`, identityID).
		Scan(&m.Content, &m.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		b.logger.Warn("memo load failed, starting without memo", "identity", identityID, "error", err)
		return nil, nil
	}
	return &m, nil
}

// SaveMemo overwrites the identity's memo.
func (b *PostgresBackend) SaveMemo(ctx context.Context, identityID string, m *memo.Memo) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO memos (user_id, content, last_updated) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET
			content = EXCLUDED.content,
			last_updated = EXCLUDED.last_updated`,
		identityID, m.Content, m.LastUpdated)
	if err != nil {
		return fmt.Errorf("save memo: %w: %w", ErrBackendUnavailable, err)
	}
	return nil
}

func scanTask(rows pgx.Rows) (*task.Task, error) {
	var (
		idStr       string
		title       string
		estimated   int
		urlsRaw     []byte
		isActive    bool
		isCompleted bool
		isPriority  bool
		createdAt   time.Time
		completedAt *time.Time
	)
	if err := rows.Scan(&idStr, &title, &estimated, &urlsRaw, &isActive, &isCompleted, &isPriority, &createdAt, &completedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid task id: %w", err)
	}

	if isCompleted && completedAt == nil {
		return nil, fmt.Errorf("task %s marked completed without completion time", idStr)
	}
	if !isCompleted {
		completedAt = nil
	}

	var urls []string
	if len(urlsRaw) > 0 {
		if err := json.Unmarshal(urlsRaw, &urls); err != nil {
			return nil, fmt.Errorf("invalid urls: %w", err)
		}
	}

	return task.Rehydrate(id, title, estimated, urls, isActive, isCompleted, isPriority, createdAt, completedAt), nil
}
