package watcher

import (
	"path/filepath"
	"strings"
)

// action is what a classified filesystem event demands.
type action int

const (
	actionNone action = iota
	// actionTemplate reloads the template cache, then broadcasts a full
	// reload.
	actionTemplate
	// actionStyle broadcasts a stylesheet-only reload.
	actionStyle
)

// templateExts are the extensions that mark markup-producing assets.
var templateExts = map[string]struct{}{
	".html":  {},
	".tera":  {},
	".jinja": {},
}

// classifyPath maps a single path to an action by its lowercased extension.
func classifyPath(path string) action {
	ext := strings.ToLower(filepath.Ext(path))

	if _, ok := templateExts[ext]; ok {
		return actionTemplate
	}
	if ext == ".css" {
		return actionStyle
	}

	return actionNone
}

// classify walks the event's paths in order and returns the first classified
// one. Editors often emit several paths per save (rename-over, temp files);
// acting on the first hit and ignoring siblings avoids duplicate broadcasts
// from one atomic save.
func classify(paths []string) (action, string) {
	for _, path := range paths {
		if act := classifyPath(path); act != actionNone {
			return act, path
		}
	}

	return actionNone, ""
}
