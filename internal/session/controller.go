// Package session binds the running application to an identity. It reacts to
// identity changes by selecting the matching persistence backend, loading
// that identity's data and replacing the store contents wholesale.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oicomi/oicomi/internal/identity"
	"github.com/oicomi/oicomi/internal/productivity/domain/memo"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
	"github.com/oicomi/oicomi/internal/productivity/infrastructure/persistence"
	"github.com/oicomi/oicomi/internal/productivity/store"
	"github.com/oicomi/oicomi/internal/timer"
)

// Selector is the single place that decides which backend serves an
// identity: the remote backend for logged-in users when one is configured,
// the local backend otherwise.
type Selector struct {
	Remote persistence.Backend
	Local  persistence.Backend
}

// For returns the backend serving the given identity.
func (s Selector) For(id identity.Identity) persistence.Backend {
	if id.IsLoggedIn && s.Remote != nil {
		return s.Remote
	}
	return s.Local
}

// Controller observes the identity provider and rebinds the store and timer
// whenever the identity changes. Guest and user data are never merged; a
// switch replaces the in-memory state with whatever the new backend holds.
type Controller struct {
	provider identity.Provider
	selector Selector
	store    *store.Store
	machine  *timer.Machine
	logger   *slog.Logger

	mu      sync.Mutex
	current identity.Identity
}

// NewController wires a controller. Call Start to begin observing.
func NewController(provider identity.Provider, selector Selector, st *store.Store, machine *timer.Machine, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		provider: provider,
		selector: selector,
		store:    st,
		machine:  machine,
		logger:   logger,
		current:  identity.Guest(),
	}
}

// Start subscribes to identity changes and activates the identity currently
// in effect.
func (c *Controller) Start(ctx context.Context) error {
	c.provider.OnChange(func(id identity.Identity) {
		// Change notifications outlive the startup context.
		c.activate(context.Background(), id)
	})
	c.activate(ctx, c.provider.Current(ctx))
	return nil
}

// Current returns the identity the session is bound to.
func (c *Controller) Current() identity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) activate(ctx context.Context, id identity.Identity) {
	backend := c.selector.For(id)

	var (
		wg    sync.WaitGroup
		tasks []*task.Task
		note  *memo.Memo
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		loaded, err := backend.LoadTasks(ctx, id.ID)
		if err != nil {
			c.logger.Warn("failed to load tasks, starting empty", "identity", id.ID, "error", err)
			return
		}
		tasks = loaded
	}()
	go func() {
		defer wg.Done()
		loaded, err := backend.LoadMemo(ctx, id.ID)
		if err != nil {
			c.logger.Warn("failed to load memo, starting empty", "identity", id.ID, "error", err)
			return
		}
		note = loaded
	}()
	wg.Wait()

	c.store.Bind(id.ID, backend, tasks, note)
	if c.machine != nil {
		c.machine.Reset()
	}

	c.mu.Lock()
	c.current = id
	c.mu.Unlock()

	c.logger.Info("session bound",
		"identity", id.ID,
		"logged_in", id.IsLoggedIn,
		"tasks", len(tasks),
	)
}
