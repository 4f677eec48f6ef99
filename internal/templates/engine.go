// Package templates wraps the pongo2 engine behind a reader-writer lock so
// that rendering and whole-set reloads are mutually exclusive. Templates are
// addressed by their path relative to the glob root, slash-separated.
package templates

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flosch/pongo2/v6"

	"github.com/snapfiredev/snapfire/internal/errors"
)

// Context carries values into a render. Keys must be valid template
// identifiers.
type Context map[string]interface{}

// Engine is a shared, mutable handle over the template set.
//
// Render takes a read lease, Reload takes a write lease. A render that races
// a reload observes either the pre- or post-reload set, never a torn one.
type Engine struct {
	mu      sync.RWMutex
	pattern string
	root    string
	set     *pongo2.TemplateSet
	cache   map[string]*pongo2.Template
	globals Context
}

// New builds an Engine from a glob pattern, loading every matching template
// eagerly. The globals context is frozen here and merged under each render's
// own context. The optional configure hook runs once on the underlying
// template set before any template is parsed.
func New(pattern string, globals Context, configure func(*pongo2.TemplateSet) error) (*Engine, error) {
	for key := range globals {
		if !ValidKey(key) {
			return nil, errors.ErrContextKey(key)
		}
	}

	root := Root(pattern)
	loader, err := pongo2.NewLocalFileSystemLoader(root)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeTemplateRoot, "template root not usable: "+root, err)
	}

	frozen := make(Context, len(globals))
	for k, v := range globals {
		frozen[k] = v
	}

	e := &Engine{
		pattern: pattern,
		root:    root,
		set:     pongo2.NewSet("snapfire", loader),
		cache:   make(map[string]*pongo2.Template),
		globals: frozen,
	}

	if configure != nil {
		if err := configure(e.set); err != nil {
			return nil, errors.NewTemplateError(errors.ErrCodeTemplateParse, "engine configuration hook failed", err)
		}
	}

	if err := e.Reload(); err != nil {
		return nil, err
	}

	return e, nil
}

// RootDir returns the directory template names are resolved against.
func (e *Engine) RootDir() string {
	return e.root
}

// Reload reparses every template matching the glob, replacing the cached set
// atomically. Holds the write lease for the duration, blocking renders.
func (e *Engine) Reload() error {
	matches, err := doublestar.FilepathGlob(e.pattern)
	if err != nil {
		return errors.NewTemplateError(errors.ErrCodeTemplateParse, "invalid template glob: "+e.pattern, err)
	}

	fresh := make(map[string]*pongo2.Template, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return errors.NewIOError(errors.ErrCodeTemplateParse, "reading template: "+match, err)
		}
		if info.IsDir() {
			continue
		}

		rel, err := filepath.Rel(e.root, match)
		if err != nil {
			return errors.NewIOError(errors.ErrCodeTemplateParse, "resolving template name: "+match, err)
		}
		name := filepath.ToSlash(rel)

		tpl, err := e.set.FromFile(name)
		if err != nil {
			return errors.NewTemplateError(errors.ErrCodeTemplateParse, "parsing template: "+name, err)
		}
		fresh[name] = tpl
	}

	e.mu.Lock()
	e.cache = fresh
	e.mu.Unlock()

	return nil
}

// Render executes the named template with the frozen globals merged under
// the caller's context. On key collision the caller's value wins.
func (e *Engine) Render(name string, user Context) ([]byte, error) {
	for key := range user {
		if !ValidKey(key) {
			return nil, errors.ErrContextKey(key)
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tpl, ok := e.cache[name]
	if !ok {
		return nil, errors.ErrTemplateNotFound(name)
	}

	merged := make(pongo2.Context, len(e.globals)+len(user))
	for k, v := range e.globals {
		merged[k] = v
	}
	for k, v := range user {
		merged[k] = v
	}

	out, err := tpl.ExecuteBytes(merged)
	if err != nil {
		return nil, errors.NewTemplateError(errors.ErrCodeTemplateRender, "rendering template: "+name, err)
	}

	return out, nil
}

// Names returns the currently cached template names. Diagnostics only.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.cache))
	for name := range e.cache {
		names = append(names, name)
	}

	return names
}

// ValidKey reports whether key is acceptable as a template context
// identifier: letters, digits, and underscores, not starting with a digit.
func ValidKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return true
}
