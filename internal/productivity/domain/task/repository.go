package task

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence capability for tasks. Implementations are
// stateless pass-throughs: the store owns the in-memory collection.
//
// LoadTasks degrades to an empty result on backend failure (logged by the
// implementation); write operations propagate failures to the caller.
type Repository interface {
	// LoadTasks returns every task persisted for the identity, ordered by
	// creation time ascending.
	LoadTasks(ctx context.Context, identityID string) ([]*Task, error)

	// SaveTask persists the full record, replacing any existing one.
	SaveTask(ctx context.Context, identityID string, t *Task) error

	// UpdateTask applies a partial update to the persisted record.
	// Returns ErrNotFound when no record matches.
	UpdateTask(ctx context.Context, identityID string, id uuid.UUID, patch Patch) error
}
