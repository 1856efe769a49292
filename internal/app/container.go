// Package app wires the application dependencies together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oicomi/oicomi/internal/identity"
	"github.com/oicomi/oicomi/internal/productivity/infrastructure/persistence"
	"github.com/oicomi/oicomi/internal/productivity/store"
	"github.com/oicomi/oicomi/internal/session"
	"github.com/oicomi/oicomi/internal/shared/eventbus"
	"github.com/oicomi/oicomi/internal/shared/kv"
	"github.com/oicomi/oicomi/internal/timer"
	"github.com/oicomi/oicomi/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	KV       kv.Store
	Bus      eventbus.Publisher
	Provider identity.Provider
	Store    *store.Store
	Machine  *timer.Machine
	Session  *session.Controller

	pool    *pgxpool.Pool
	closers []func() error
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	kvStore, err := newKVStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.KV = kvStore
	if closer, ok := kvStore.(interface{ Close() error }); ok {
		c.closers = append(c.closers, closer.Close)
	}

	local := persistence.NewLocalBackend(kvStore, logger)

	var remote persistence.Backend
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := persistence.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			c.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		c.pool = pool
		remote = persistence.NewBreakerBackend(
			persistence.NewPostgresBackend(pool, logger),
			persistence.DefaultBreakerConfig(),
			logger,
		)
	} else {
		logger.Info("no database configured, logged-in users use local storage")
	}

	bus, err := newPublisher(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Bus = bus
	c.closers = append(c.closers, bus.Close)

	c.Provider = identity.NewLocalProvider(kvStore, logger)
	c.Store = store.New(bus, logger, nil)
	c.Machine = timer.NewMachine(func(intent timer.Intent) {
		if err := c.Store.Complete(context.Background(), intent.TaskID); err != nil {
			logger.Warn("failed to complete task from timer", "task_id", intent.TaskID, "error", err)
		}
	}, logger)

	selector := session.Selector{Remote: remote, Local: local}
	c.Session = session.NewController(c.Provider, selector, c.Store, c.Machine, logger)

	return c, nil
}

// Close releases all resources, waiting for pending writes first.
func (c *Container) Close() {
	if c.Machine != nil {
		c.Machine.Reset()
	}
	if c.Store != nil {
		c.Store.Flush()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("failed to close resource", "error", err)
		}
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

func newKVStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kv.Store, error) {
	switch cfg.KVBackend {
	case "redis":
		store, err := kv.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store, nil
	case "sqlite", "":
		if dir := filepath.Dir(cfg.LocalDBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		store, err := kv.NewSQLiteStore(ctx, cfg.LocalDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open local database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported kv backend: %s", cfg.KVBackend)
	}
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (eventbus.Publisher, error) {
	if !cfg.EventPublisherEnabled {
		return &eventbus.NopPublisher{}, nil
	}
	if cfg.RabbitMQURL != "" {
		pub, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		return pub, nil
	}
	return eventbus.NewInProcessBus(logger), nil
}
