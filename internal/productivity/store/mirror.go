package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/oicomi/oicomi/internal/productivity/domain/task"
	"github.com/oicomi/oicomi/internal/productivity/infrastructure/persistence"
)

// mirror serializes persistence writes per task id: at most one in-flight
// write per task, and a newer snapshot supersedes one still waiting. This
// keeps rapid successive edits from racing each other without any locking of
// the backend.
type mirror struct {
	identityID string
	backend    persistence.Backend
	logger     *slog.Logger
	onError    WriteErrorHandler

	mu       sync.Mutex
	inflight map[uuid.UUID]bool
	pending  map[uuid.UUID]*task.Task
	wg       sync.WaitGroup
}

func newMirror(identityID string, backend persistence.Backend, logger *slog.Logger, onError WriteErrorHandler) *mirror {
	return &mirror{
		identityID: identityID,
		backend:    backend,
		logger:     logger,
		onError:    onError,
		inflight:   make(map[uuid.UUID]bool),
		pending:    make(map[uuid.UUID]*task.Task),
	}
}

// enqueue schedules the snapshot for persistence. The snapshot must already
// be an independent copy.
func (m *mirror) enqueue(t *task.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := t.ID()
	if m.inflight[id] {
		m.pending[id] = t
		return
	}
	m.inflight[id] = true
	m.wg.Add(1)
	go m.drain(t)
}

// drain writes snapshots for one task id until none are queued. Writes use a
// background context: an identity switch must not cancel them mid-flight.
func (m *mirror) drain(t *task.Task) {
	defer m.wg.Done()

	for {
		if err := m.backend.SaveTask(context.Background(), m.identityID, t); err != nil {
			m.logger.Warn("mirror write failed",
				"task_id", t.ID(),
				"identity", m.identityID,
				"error", err,
			)
			if m.onError != nil {
				m.onError(t.ID(), err)
			}
		}

		m.mu.Lock()
		next, ok := m.pending[t.ID()]
		if !ok {
			m.inflight[t.ID()] = false
			m.mu.Unlock()
			return
		}
		delete(m.pending, t.ID())
		m.mu.Unlock()
		t = next
	}
}

// wait blocks until all queued writes have drained.
func (m *mirror) wait() {
	m.wg.Wait()
}
