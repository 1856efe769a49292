// Package memo holds the singleton scratchpad kept per identity.
package memo

import (
	"context"
	"time"
)

// Memo is a single free-text scratchpad. It is overwritten wholesale on each
// save; there is no versioning.
type Memo struct {
	Content     string
	LastUpdated time.Time
}

// New creates a memo with the current timestamp.
func New(content string) *Memo {
	return &Memo{
		Content:     content,
		LastUpdated: time.Now().UTC(),
	}
}

// Repository is the persistence capability for the memo.
//
// LoadMemo degrades to absent (nil, nil) on backend failure, logged by the
// implementation; SaveMemo propagates failures.
type Repository interface {
	// LoadMemo returns the identity's memo, or nil when none exists.
	LoadMemo(ctx context.Context, identityID string) (*Memo, error)

	// SaveMemo overwrites the identity's memo.
	SaveMemo(ctx context.Context, identityID string, m *Memo) error
}
