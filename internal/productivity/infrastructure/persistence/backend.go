// Package persistence provides the two interchangeable storage backends for
// tasks and the memo: a remote PostgreSQL document store for authenticated
// identities and a key-value backed local store for guests.
package persistence

import (
	"errors"

	"github.com/oicomi/oicomi/internal/productivity/domain/memo"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
)

// ErrBackendUnavailable marks write failures caused by an unreachable or
// broken backend. Callers surface it; there is no automatic retry.
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// Backend is the full persistence capability a session binds to. Exactly one
// backend serves an identity's session; backends are never mixed or merged.
type Backend interface {
	task.Repository
	memo.Repository
}
