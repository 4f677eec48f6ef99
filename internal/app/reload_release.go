//go:build release

package app

import (
	"net/http"
	"time"

	"github.com/snapfiredev/snapfire/internal/middleware"
	"github.com/snapfiredev/snapfire/internal/watcher"
)

// sessionTuning is unused in release builds.
type sessionTuning struct{}

// reloader is never constructed in release builds.
type reloader struct{}

// SessionTimings is a no-op in release builds.
func (b *Builder) SessionTimings(heartbeat, timeout time.Duration) *Builder {
	return b
}

// attachReloader is a no-op in release builds: no watcher or bus exists.
func (b *Builder) attachReloader(a *App) error {
	return nil
}

// MountRoutes is a no-op in release builds so user code compiles unchanged.
func (a *App) MountRoutes(mux *http.ServeMux) {}

// Middleware returns an identity transform in release builds.
func (a *App) Middleware() middleware.Middleware {
	return middleware.Identity()
}

// WSPath returns the default path; no endpoint is mounted in release builds.
func (a *App) WSPath() string {
	return watcher.DefaultWSPath
}

// Close is a no-op in release builds.
func (a *App) Close() error {
	return nil
}
