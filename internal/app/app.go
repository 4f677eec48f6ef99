// Package app bundles the template engine, the frozen global render
// context, and the reload controller into one shared application state,
// built through Builder.
//
// In release builds (the "release" build tag) the reload subsystem is
// compiled out: no watcher or bus is constructed, MountRoutes is a no-op,
// and Middleware returns an identity transform. The public API is identical
// in both modes.
package app

import (
	"net/http"

	"github.com/flosch/pongo2/v6"

	"github.com/snapfiredev/snapfire/internal/logging"
	"github.com/snapfiredev/snapfire/internal/middleware"
	"github.com/snapfiredev/snapfire/internal/templates"
)

// Context is the render context passed by handlers.
type Context = templates.Context

// App is the shared application state. It is a cheap handle: handler
// goroutines may hold copies concurrently.
type App struct {
	engine *templates.Engine
	logger logging.Logger

	// reloader is nil in release builds and when the watcher was not
	// started. Its concrete type lives behind the build tag split.
	reloader *reloader
}

// Builder configures and constructs an App. The templates glob is required;
// everything else has defaults.
type Builder struct {
	templatesGlob string
	globals       Context
	configure     func(*pongo2.TemplateSet) error
	staticDirs    []string
	wsPath        string
	autoInject    bool
	logger        logging.Logger
	session       sessionTuning
}

// New creates a Builder for the given template glob pattern. The pattern's
// non-glob prefix becomes the template watch root.
func New(templatesGlob string) *Builder {
	return &Builder{
		templatesGlob: templatesGlob,
		globals:       make(Context),
		autoInject:    true,
	}
}

// AddGlobal inserts a key into the immutable base render context shared by
// every render. Returns the builder for chaining.
func (b *Builder) AddGlobal(key string, value interface{}) *Builder {
	b.globals[key] = value

	return b
}

// ConfigureEngine registers a one-shot hook run on the template set after
// construction and before any template is parsed. Escape hatch for custom
// filters and engine options.
func (b *Builder) ConfigureEngine(fn func(*pongo2.TemplateSet) error) *Builder {
	b.configure = fn

	return b
}

// WatchStatic appends a static directory (typically CSS) to watch for
// changes. Missing paths are warned and skipped at build time.
func (b *Builder) WatchStatic(dir string) *Builder {
	b.staticDirs = append(b.staticDirs, dir)

	return b
}

// WSPath overrides the default session endpoint path.
func (b *Builder) WSPath(path string) *Builder {
	b.wsPath = path

	return b
}

// AutoInjectScript enables or disables automatic injection of the reload
// client into HTML responses. Defaults to true. With it disabled the
// developer must include the script tag manually.
func (b *Builder) AutoInjectScript(enabled bool) *Builder {
	b.autoInject = enabled

	return b
}

// Logger sets the logger used by the App and its reload subsystem.
func (b *Builder) Logger(logger logging.Logger) *Builder {
	b.logger = logger

	return b
}

// Build constructs the App: the engine is loaded eagerly and, in dev
// builds, the watcher and bus are started. Errors abort startup.
func (b *Builder) Build() (*App, error) {
	logger := b.logger
	if logger == nil {
		logger = logging.Discard()
	}

	engine, err := templates.New(b.templatesGlob, b.globals, b.configure)
	if err != nil {
		return nil, err
	}

	a := &App{
		engine: engine,
		logger: logger,
	}

	if err := b.attachReloader(a); err != nil {
		return nil, err
	}

	return a, nil
}

// Render renders the named template with the caller's context merged over
// the globals; the caller's values win on collision.
func (a *App) Render(name string, ctx Context) ([]byte, error) {
	return a.engine.Render(name, ctx)
}

// Engine exposes the shared template cache handle.
func (a *App) Engine() *templates.Engine {
	return a.engine
}

// Clone returns a copy sharing the same engine, globals, and controller.
func (a *App) Clone() *App {
	clone := *a

	return &clone
}

// HandlePage returns an HTTP handler that renders the named template.
// Render failures surface as HTTP 500 with the cause logged at error level.
func (a *App) HandlePage(name string, ctx Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := a.Render(name, ctx)
		if err != nil {
			a.logger.Error(r.Context(), err, "template rendering error", "template", name)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}
}

// LoggingMiddleware returns the request-logging middleware bound to the
// App's logger.
func (a *App) LoggingMiddleware() middleware.Middleware {
	return middleware.Logging(a.logger)
}
