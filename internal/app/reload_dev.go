//go:build !release

package app

import (
	"context"
	"net/http"
	"time"

	"github.com/snapfiredev/snapfire/internal/middleware"
	"github.com/snapfiredev/snapfire/internal/reload"
	"github.com/snapfiredev/snapfire/internal/server"
	"github.com/snapfiredev/snapfire/internal/watcher"
)

// sessionTuning carries heartbeat overrides into the session endpoint.
type sessionTuning = server.SessionConfig

// reloader holds the live reload subsystem: the bus and the watcher
// controller. Dropping the App's reloader stops watching; in-flight
// sessions run to their own termination.
type reloader struct {
	bus     *reload.Bus
	ctrl    *watcher.Controller
	session sessionTuning
}

// SessionTimings overrides the heartbeat interval and client timeout of
// browser sessions. Intended for tests.
func (b *Builder) SessionTimings(heartbeat, timeout time.Duration) *Builder {
	b.session = sessionTuning{HeartbeatInterval: heartbeat, ClientTimeout: timeout}

	return b
}

// attachReloader starts the bus and the filesystem watcher.
func (b *Builder) attachReloader(a *App) error {
	bus := reload.NewBus()

	ctrl, err := watcher.Start(a.engine, b.templatesGlob, b.staticDirs, bus, a.logger, watcher.Options{
		WSPath:     b.wsPath,
		AutoInject: b.autoInject,
	})
	if err != nil {
		return err
	}

	a.reloader = &reloader{bus: bus, ctrl: ctrl, session: b.session}

	return nil
}

// MountRoutes attaches the browser session endpoint at the configured
// WebSocket path.
func (a *App) MountRoutes(mux *http.ServeMux) {
	if a.reloader == nil {
		return
	}

	a.logger.Info(context.Background(), "live reload enabled, attaching websocket", "path", a.reloader.ctrl.WSPath())
	mux.Handle(a.reloader.ctrl.WSPath(), server.WSHandler(a.reloader.bus, a.logger, a.reloader.session))
}

// Middleware returns the HTML response rewriter, or a pass-through when
// auto-injection is disabled. The rewriter carries the session endpoint path
// so the injected agent dials the right place even when it is customized.
func (a *App) Middleware() middleware.Middleware {
	if a.reloader != nil && a.reloader.ctrl.AutoInject() {
		return middleware.InjectPath(a.reloader.ctrl.WSPath())
	}

	return middleware.Identity()
}

// Bus exposes the reload bus for tests and diagnostics.
func (a *App) Bus() *reload.Bus {
	if a.reloader == nil {
		return nil
	}

	return a.reloader.bus
}

// WSPath returns the configured session endpoint path.
func (a *App) WSPath() string {
	if a.reloader == nil {
		return watcher.DefaultWSPath
	}

	return a.reloader.ctrl.WSPath()
}

// Close stops the filesystem watcher.
func (a *App) Close() error {
	if a.reloader == nil {
		return nil
	}

	return a.reloader.ctrl.Close()
}
