package cli

import (
	"log/slog"

	"github.com/oicomi/oicomi/internal/identity"
	"github.com/oicomi/oicomi/internal/productivity/store"
	"github.com/oicomi/oicomi/internal/session"
	"github.com/oicomi/oicomi/internal/timer"
)

// App holds the CLI application dependencies.
type App struct {
	Store    *store.Store
	Machine  *timer.Machine
	Provider identity.Provider
	Session  *session.Controller
	Logger   *slog.Logger
}

var appInstance *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	appInstance = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return appInstance
}
