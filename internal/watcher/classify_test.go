package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPath(t *testing.T) {
	testCases := []struct {
		path     string
		expected action
	}{
		{"index.html", actionTemplate},
		{"layout.tera", actionTemplate},
		{"partial.jinja", actionTemplate},
		{"INDEX.HTML", actionTemplate},
		{"style.css", actionStyle},
		{"STYLE.CSS", actionStyle},
		{"script.js", actionNone},
		{"notes.txt", actionNone},
		{"noext", actionNone},
		{"dir/index.html", actionTemplate},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifyPath(tc.path))
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// A single event carrying both a template and a stylesheet acts only on
	// the first classified path.
	act, path := classify([]string{"a.txt", "index.html", "style.css"})
	assert.Equal(t, actionTemplate, act)
	assert.Equal(t, "index.html", path)

	act, path = classify([]string{"style.css", "index.html"})
	assert.Equal(t, actionStyle, act)
	assert.Equal(t, "style.css", path)

	act, _ = classify([]string{"a.txt", "b.js"})
	assert.Equal(t, actionNone, act)

	act, _ = classify(nil)
	assert.Equal(t, actionNone, act)
}
