// Package watcher owns the filesystem side of the reload pipeline: it
// registers recursive fsnotify watches over the template root and static
// roots, classifies change events, reloads the template cache, and publishes
// reload commands on the bus.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/snapfiredev/snapfire/internal/errors"
	"github.com/snapfiredev/snapfire/internal/logging"
	"github.com/snapfiredev/snapfire/internal/reload"
	"github.com/snapfiredev/snapfire/internal/templates"
)

// Reloader is the template cache's reload-all operation. It must be safe to
// call from the watcher goroutine while renders are in flight.
type Reloader interface {
	Reload() error
}

// Options configure the Controller.
type Options struct {
	// WSPath is the mount path of the browser session endpoint.
	WSPath string
	// AutoInject controls whether the response rewriter injects the client
	// agent.
	AutoInject bool
}

// DefaultWSPath is where the browser session endpoint mounts unless
// overridden.
const DefaultWSPath = "/_snapfire/ws"

// Controller owns the live fsnotify handle, the classification rules, and
// the bus sender. Closing the Controller stops watching; the bus and any
// in-flight sessions continue independently.
type Controller struct {
	watcher    *fsnotify.Watcher
	bus        *reload.Bus
	rel        Reloader
	logger     logging.Logger
	wsPath     string
	autoInject bool

	closeOnce sync.Once
	done      chan struct{}
}

// Start derives the template root from the glob, opens recursive watches
// over it and every existing static root, and begins classifying events.
// A missing template root or an unregisterable path fails with a
// watcher-init error; missing static roots are warned and skipped.
func Start(rel Reloader, templatesGlob string, staticDirs []string, bus *reload.Bus, logger logging.Logger, opts Options) (*Controller, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("watcher")

	root := templates.Root(templatesGlob)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.ErrTemplateRoot(root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewWatcherInitError(errors.ErrCodeWatcherCreate, "creating filesystem watcher", err)
	}

	c := &Controller{
		watcher:    fsw,
		bus:        bus,
		rel:        rel,
		logger:     logger,
		wsPath:     opts.WSPath,
		autoInject: opts.AutoInject,
		done:       make(chan struct{}),
	}
	if c.wsPath == "" {
		c.wsPath = DefaultWSPath
	}

	if err := c.addRecursive(root); err != nil {
		fsw.Close()
		return nil, errors.NewWatcherInitError(errors.ErrCodeWatchRegister, "watching template root: "+root, err)
	}

	ctx := context.Background()
	for _, dir := range staticDirs {
		st, err := os.Stat(dir)
		if err != nil || !st.IsDir() {
			logger.Warn(ctx, err, "static watch path does not exist, skipping", "path", dir)
			continue
		}
		if err := c.addRecursive(dir); err != nil {
			fsw.Close()
			return nil, errors.NewWatcherInitError(errors.ErrCodeWatchRegister, "watching static root: "+dir, err)
		}
	}

	logger.Info(ctx, "watching for changes", "template_root", root, "static_roots", len(staticDirs))

	go c.loop()

	return c, nil
}

// WSPath returns the configured session endpoint path.
func (c *Controller) WSPath() string {
	return c.wsPath
}

// AutoInject reports whether the client agent should be injected into HTML
// responses.
func (c *Controller) AutoInject() bool {
	return c.autoInject
}

// Close stops watching and releases the OS handle.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.watcher.Close()
	})

	return err
}

// addRecursive registers dir and every subdirectory. fsnotify watches are
// non-recursive on their own.
func (c *Controller) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return c.watcher.Add(path)
		}

		return nil
	})
}

func (c *Controller) loop() {
	ctx := context.Background()
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.handleEvent(ctx, event)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			// The callback has no caller to raise to; log and keep watching.
			c.logger.Error(ctx, err, "filesystem watch error")
		}
	}
}

// handleEvent classifies one event and acts on the first classified path.
// Errors never propagate out of here.
func (c *Controller) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	// A new directory under a watched root needs its own watch before any
	// file inside it can be seen.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := c.addRecursive(event.Name); err != nil {
				c.logger.Warn(ctx, err, "watching new directory", "path", event.Name)
			}
			return
		}
	}

	act, path := classify([]string{event.Name})
	switch act {
	case actionTemplate:
		c.logger.Info(ctx, "template change detected", "path", path)
		if err := c.rel.Reload(); err != nil {
			// The developer is mid-edit; the next render surfaces the parse
			// error. Suppressing the broadcast would mask it.
			c.logger.Error(ctx, err, "template reload failed")
		}
		c.bus.Publish(reload.FullReload)
	case actionStyle:
		c.logger.Info(ctx, "stylesheet change detected", "path", path)
		c.bus.Publish(reload.StyleReload)
	}
}
