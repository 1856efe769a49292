package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oicomi/oicomi/internal/productivity/domain/memo"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
)

// gateBackend blocks every SaveTask until the gate is released, recording the
// titles written in order.
type gateBackend struct {
	gate   chan struct{}
	mu     sync.Mutex
	titles []string
}

func newGateBackend() *gateBackend {
	return &gateBackend{gate: make(chan struct{})}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (g *gateBackend) LoadTasks(ctx context.Context, identityID string) ([]*task.Task, error) {
	return nil, nil
}

func (g *gateBackend) SaveTask(ctx context.Context, identityID string, t *task.Task) error {
	<-g.gate
	g.mu.Lock()
	g.titles = append(g.titles, t.Title())
	g.mu.Unlock()
	return nil
}

func (g *gateBackend) UpdateTask(ctx context.Context, identityID string, id uuid.UUID, patch task.Patch) error {
	return nil
}

func (g *gateBackend) LoadMemo(ctx context.Context, identityID string) (*memo.Memo, error) {
	return nil, nil
}

func (g *gateBackend) SaveMemo(ctx context.Context, identityID string, m *memo.Memo) error {
	return nil
}

func snapshotWithTitle(t *testing.T, base *task.Task, title string) *task.Task {
	t.Helper()
	c := base.Clone()
	require.NoError(t, c.SetTitle(title))
	return c
}

func TestMirror_CoalescesPendingWrites(t *testing.T) {
	backend := newGateBackend()
	m := newMirror("guest", backend, testLogger(), nil)

	base, err := task.New("v1", 30, nil)
	require.NoError(t, err)

	// First write starts draining and blocks on the gate; the next two
	// queue up behind it and collapse into the newest snapshot.
	m.enqueue(base.Clone())
	m.enqueue(snapshotWithTitle(t, base, "v2"))
	m.enqueue(snapshotWithTitle(t, base, "v3"))

	close(backend.gate)
	m.wait()

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []string{"v1", "v3"}, backend.titles)
}

func TestMirror_DistinctTasksWriteIndependently(t *testing.T) {
	backend := newGateBackend()
	close(backend.gate)
	m := newMirror("guest", backend, testLogger(), nil)

	a, err := task.New("a", 30, nil)
	require.NoError(t, err)
	b, err := task.New("b", 30, nil)
	require.NoError(t, err)

	m.enqueue(a.Clone())
	m.enqueue(b.Clone())
	m.wait()

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, backend.titles)
}
