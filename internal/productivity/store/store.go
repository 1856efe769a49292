// Package store holds the in-memory task collection and memo for the current
// identity. It is the single source of truth for the running session;
// persistence is best-effort mirroring through the bound backend.
package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oicomi/oicomi/internal/productivity/domain/memo"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
	"github.com/oicomi/oicomi/internal/productivity/infrastructure/persistence"
	"github.com/oicomi/oicomi/internal/shared/domain"
	"github.com/oicomi/oicomi/internal/shared/eventbus"
)

// Stats is the derived task statistic set. Recomputed on demand, never
// cached.
type Stats struct {
	TotalTasks     int
	TodayCompleted int
	WeekCompleted  int
}

// WriteErrorHandler receives failures from asynchronous mirror writes.
type WriteErrorHandler func(taskID uuid.UUID, err error)

// Store owns the task collection and memo for the lifetime of the current
// identity.
type Store struct {
	mu         sync.Mutex
	identityID string
	backend    persistence.Backend
	tasks      []*task.Task
	memo       *memo.Memo
	mirror     *mirror

	bus     eventbus.Publisher
	logger  *slog.Logger
	onError WriteErrorHandler
	now     func() time.Time
}

// New creates an empty, unbound store. Bind must be called before mutations.
func New(bus eventbus.Publisher, logger *slog.Logger, onError WriteErrorHandler) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = eventbus.NopPublisher{}
	}
	return &Store{
		bus:     bus,
		logger:  logger,
		onError: onError,
		now:     time.Now,
	}
}

// Bind replaces the store's entire contents with the given identity's data
// and retargets mirroring at its backend. In-flight writes to a previously
// bound backend are not cancelled.
func (s *Store) Bind(identityID string, backend persistence.Backend, tasks []*task.Task, m *memo.Memo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identityID = identityID
	s.backend = backend
	s.tasks = tasks
	s.memo = m
	s.mirror = newMirror(identityID, backend, s.logger, s.onError)
}

// Add validates and creates a task, persists it synchronously, and appends it
// to the owned collection. Insertion order is creation order.
func (s *Store) Add(ctx context.Context, title string, estimatedMinutes int, urls []string) (*task.Task, error) {
	t, err := task.New(title, estimatedMinutes, urls)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	backend, identityID := s.backend, s.identityID
	s.mu.Unlock()

	if err := backend.SaveTask(ctx, identityID, t); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	s.publish(ctx, task.NewCreated(t.ID(), t.Title(), t.EstimatedTime()))
	return t.Clone(), nil
}

// Update merges the patch into the matching task and mirrors the result.
// Returns task.ErrNotFound when no task matches; callers may ignore it.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch task.Patch) error {
	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return task.ErrNotFound
	}
	if err := t.Apply(patch); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := t.Clone()
	mirror := s.mirror
	s.mu.Unlock()

	mirror.enqueue(snapshot)
	return nil
}

// SetActive marks the named task active and every other task inactive.
func (s *Store) SetActive(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if s.find(id) == nil {
		s.mu.Unlock()
		return task.ErrNotFound
	}

	changed := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		active := t.ID() == id
		if t.IsActive() != active {
			t.SetActive(active)
			changed = append(changed, t.Clone())
		}
	}
	mirror := s.mirror
	s.mu.Unlock()

	for _, snapshot := range changed {
		mirror.enqueue(snapshot)
	}
	return nil
}

// Complete marks the task completed now. The write is synchronous so backend
// failures surface to the caller; the in-memory task is only committed on
// success.
func (s *Store) Complete(ctx context.Context, id uuid.UUID) error {
	now := s.now().UTC()

	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return task.ErrNotFound
	}

	trial := t.Clone()
	if err := trial.Complete(now); err != nil {
		s.mu.Unlock()
		return err
	}
	backend, identityID := s.backend, s.identityID
	s.mu.Unlock()

	active := false
	completed := true
	patch := task.Patch{IsCompleted: &completed, CompletedAt: &now, IsActive: &active}
	if err := backend.UpdateTask(ctx, identityID, id, patch); err != nil {
		return err
	}

	s.mu.Lock()
	s.replace(trial)
	s.mu.Unlock()

	s.publish(ctx, task.NewCompleted(id))
	return nil
}

// Restore flips a completed task back to incomplete.
func (s *Store) Restore(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return task.ErrNotFound
	}

	trial := t.Clone()
	if err := trial.Restore(); err != nil {
		s.mu.Unlock()
		return err
	}
	backend, identityID := s.backend, s.identityID
	s.mu.Unlock()

	active := false
	completed := false
	patch := task.Patch{IsCompleted: &completed, IsActive: &active}
	if err := backend.UpdateTask(ctx, identityID, id, patch); err != nil {
		return err
	}

	s.mu.Lock()
	s.replace(trial)
	s.mu.Unlock()

	s.publish(ctx, task.NewRestored(id))
	return nil
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id uuid.UUID) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(id)
	if t == nil {
		return nil, task.ErrNotFound
	}
	return t.Clone(), nil
}

// ActiveView returns incomplete tasks, priority tasks first, ties broken by
// ascending creation time.
func (s *Store) ActiveView() []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var view []*task.Task
	for _, t := range s.tasks {
		if !t.IsCompleted() {
			view = append(view, t.Clone())
		}
	}
	sort.SliceStable(view, func(i, j int) bool {
		if view[i].IsPriority() != view[j].IsPriority() {
			return view[i].IsPriority()
		}
		return view[i].CreatedAt().Before(view[j].CreatedAt())
	})
	return view
}

// CompletedView returns completed tasks, most recently completed first.
func (s *Store) CompletedView() []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var view []*task.Task
	for _, t := range s.tasks {
		if t.IsCompleted() {
			view = append(view, t.Clone())
		}
	}
	sort.SliceStable(view, func(i, j int) bool {
		return completionTime(view[i]).After(completionTime(view[j]))
	})
	return view
}

// completionTime tolerates a completed task missing its timestamp, which can
// only come from storage; such a task sorts last.
func completionTime(t *task.Task) time.Time {
	if at := t.CompletedAt(); at != nil {
		return *at
	}
	return time.Time{}
}

// Stats recomputes the derived statistics. Day and week boundaries use the
// local time zone; weeks start on Sunday.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	loc := now.Location()
	dayStart := startOfDay(now)
	weekStart := dayStart.AddDate(0, 0, -int(now.Weekday()))

	stats := Stats{TotalTasks: len(s.tasks)}
	for _, t := range s.tasks {
		if !t.IsCompleted() || t.CompletedAt() == nil {
			continue
		}
		at := t.CompletedAt().In(loc)
		if !at.Before(dayStart) && at.Before(dayStart.AddDate(0, 0, 1)) {
			stats.TodayCompleted++
		}
		if !at.Before(weekStart) && at.Before(weekStart.AddDate(0, 0, 7)) {
			stats.WeekCompleted++
		}
	}
	return stats
}

// SetMemo overwrites the memo wholesale and persists it synchronously.
func (s *Store) SetMemo(ctx context.Context, content string) (*memo.Memo, error) {
	m := &memo.Memo{Content: content, LastUpdated: s.now().UTC()}

	s.mu.Lock()
	backend, identityID := s.backend, s.identityID
	s.mu.Unlock()

	if err := backend.SaveMemo(ctx, identityID, m); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.memo = m
	s.mu.Unlock()
	return &memo.Memo{Content: m.Content, LastUpdated: m.LastUpdated}, nil
}

// Memo returns the current memo, or nil when none exists.
func (s *Store) Memo() *memo.Memo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memo == nil {
		return nil
	}
	return &memo.Memo{Content: s.memo.Content, LastUpdated: s.memo.LastUpdated}
}

// Flush blocks until queued mirror writes have drained. Intended for process
// shutdown and tests.
func (s *Store) Flush() {
	s.mu.Lock()
	mirror := s.mirror
	s.mu.Unlock()
	if mirror != nil {
		mirror.wait()
	}
}

func (s *Store) find(id uuid.UUID) *task.Task {
	for _, t := range s.tasks {
		if t.ID() == id {
			return t
		}
	}
	return nil
}

func (s *Store) replace(t *task.Task) {
	for i := range s.tasks {
		if s.tasks[i].ID() == t.ID() {
			s.tasks[i] = t
			return
		}
	}
}

func (s *Store) publish(ctx context.Context, event domain.DomainEvent) {
	s.mu.Lock()
	identityID := s.identityID
	s.mu.Unlock()

	if err := eventbus.PublishEvent(ctx, s.bus, event, identityID); err != nil {
		s.logger.Warn("event publish failed", "routing_key", event.RoutingKey(), "error", err)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
