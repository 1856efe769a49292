package task

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyTitle             = errors.New("task title cannot be empty")
	ErrInvalidEstimate        = errors.New("estimated time must be a positive number of minutes")
	ErrNotFound               = errors.New("task not found")
	ErrAlreadyCompleted       = errors.New("task is already completed")
	ErrNotCompleted           = errors.New("task is not completed")
	ErrCompletionTimeRequired = errors.New("completion requires a timestamp")
	ErrCompletionBeforeCreate = errors.New("completion time precedes creation time")
	ErrURLIndexOutOfRange     = errors.New("url index out of range")
)

// Task is a unit of work with an estimated duration, optional reference URLs,
// and completion state.
type Task struct {
	id            uuid.UUID
	title         string
	estimatedTime int // minutes
	urls          []string
	isActive      bool
	isCompleted   bool
	isPriority    bool
	createdAt     time.Time
	completedAt   *time.Time
}

// New creates a task with a freshly generated id and the current timestamp.
// isActive, isCompleted and isPriority default to false.
func New(title string, estimatedMinutes int, urls []string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if estimatedMinutes <= 0 {
		return nil, ErrInvalidEstimate
	}

	return &Task{
		id:            uuid.New(),
		title:         title,
		estimatedTime: estimatedMinutes,
		urls:          append([]string(nil), urls...),
		createdAt:     time.Now().UTC(),
	}, nil
}

// Rehydrate reconstructs a task from persisted state. No validation beyond
// what storage guarantees; malformed rows are the adapter's problem.
func Rehydrate(id uuid.UUID, title string, estimatedMinutes int, urls []string, isActive, isCompleted, isPriority bool, createdAt time.Time, completedAt *time.Time) *Task {
	return &Task{
		id:            id,
		title:         title,
		estimatedTime: estimatedMinutes,
		urls:          append([]string(nil), urls...),
		isActive:      isActive,
		isCompleted:   isCompleted,
		isPriority:    isPriority,
		createdAt:     createdAt,
		completedAt:   completedAt,
	}
}

// Getters

func (t *Task) ID() uuid.UUID           { return t.id }
func (t *Task) Title() string           { return t.title }
func (t *Task) EstimatedTime() int      { return t.estimatedTime }
func (t *Task) URLs() []string          { return append([]string(nil), t.urls...) }
func (t *Task) IsActive() bool          { return t.isActive }
func (t *Task) IsCompleted() bool       { return t.isCompleted }
func (t *Task) IsPriority() bool        { return t.isPriority }
func (t *Task) CreatedAt() time.Time    { return t.createdAt }
func (t *Task) CompletedAt() *time.Time { return t.completedAt }

// SetTitle updates the task title.
func (t *Task) SetTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	t.title = title
	return nil
}

// SetEstimatedTime updates the estimated duration in minutes.
func (t *Task) SetEstimatedTime(minutes int) error {
	if minutes <= 0 {
		return ErrInvalidEstimate
	}
	t.estimatedTime = minutes
	return nil
}

// AddURL appends a reference URL.
func (t *Task) AddURL(url string) {
	t.urls = append(t.urls, url)
}

// RemoveURL removes the URL at the given position.
func (t *Task) RemoveURL(index int) error {
	if index < 0 || index >= len(t.urls) {
		return ErrURLIndexOutOfRange
	}
	t.urls = append(t.urls[:index], t.urls[index+1:]...)
	return nil
}

// SetActive marks the task as the one currently being worked on. Mutual
// exclusion across the collection is the store's job, not the task's.
func (t *Task) SetActive(active bool) {
	t.isActive = active
}

// SetPriority flags or unflags the task as priority.
func (t *Task) SetPriority(priority bool) {
	t.isPriority = priority
}

// Complete marks the task completed at the given time and deactivates it.
func (t *Task) Complete(at time.Time) error {
	if t.isCompleted {
		return ErrAlreadyCompleted
	}
	if at.Before(t.createdAt) {
		return ErrCompletionBeforeCreate
	}
	t.isCompleted = true
	t.completedAt = &at
	t.isActive = false
	return nil
}

// Restore flips a completed task back to incomplete, clearing completedAt.
// createdAt is untouched.
func (t *Task) Restore() error {
	if !t.isCompleted {
		return ErrNotCompleted
	}
	t.isCompleted = false
	t.completedAt = nil
	t.isActive = false
	return nil
}

// Apply merges a partial update into the task. The completedAt invariant is
// enforced here: setting isCompleted=true requires CompletedAt, setting it
// false clears the stored timestamp.
func (t *Task) Apply(patch Patch) error {
	if patch.Title != nil {
		if err := t.SetTitle(*patch.Title); err != nil {
			return err
		}
	}
	if patch.EstimatedTime != nil {
		if err := t.SetEstimatedTime(*patch.EstimatedTime); err != nil {
			return err
		}
	}
	if patch.URLs != nil {
		t.urls = append([]string(nil), *patch.URLs...)
	}
	if patch.IsActive != nil {
		t.isActive = *patch.IsActive
	}
	if patch.IsPriority != nil {
		t.isPriority = *patch.IsPriority
	}
	if patch.IsCompleted != nil {
		if *patch.IsCompleted {
			if patch.CompletedAt == nil {
				return ErrCompletionTimeRequired
			}
			if patch.CompletedAt.Before(t.createdAt) {
				return ErrCompletionBeforeCreate
			}
			t.isCompleted = true
			at := *patch.CompletedAt
			t.completedAt = &at
		} else {
			t.isCompleted = false
			t.completedAt = nil
		}
	}
	return nil
}

// Clone returns an independent copy, used when handing snapshots to the
// persistence mirror.
func (t *Task) Clone() *Task {
	c := *t
	c.urls = append([]string(nil), t.urls...)
	if t.completedAt != nil {
		at := *t.completedAt
		c.completedAt = &at
	}
	return &c
}

// Patch is a partial update to a task. Nil fields are left untouched.
type Patch struct {
	Title         *string
	EstimatedTime *int
	URLs          *[]string
	IsActive      *bool
	IsCompleted   *bool
	CompletedAt   *time.Time
	IsPriority    *bool
}
