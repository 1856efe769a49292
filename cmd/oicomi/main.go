package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/oicomi/oicomi/adapter/cli"
	"github.com/oicomi/oicomi/adapter/cli/task"
	"github.com/oicomi/oicomi/internal/app"
	"github.com/oicomi/oicomi/pkg/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		cfg = &config.Config{AppEnv: "development", KVBackend: "sqlite"}
	}

	if cfg.IsDevelopment() || cfg.LogLevel == "debug" {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	cli.SetLogger(logger)
	slog.SetDefault(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if err := container.Session.Start(ctx); err != nil {
		logger.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	cli.SetApp(&cli.App{
		Store:    container.Store,
		Machine:  container.Machine,
		Provider: container.Provider,
		Session:  container.Session,
		Logger:   logger,
	})
	cli.AddCommand(task.Cmd)

	cli.Execute(ctx)
}
