package templates

import (
	"os"
	"path/filepath"
	"strings"
)

// globMeta are the metacharacters understood by filepath.Glob. The watch
// root terminates before the first of them.
const globMeta = "*?{["

// Root derives the directory to watch (and to resolve template names
// against) from a glob pattern: the longest prefix containing no glob
// metacharacter, backed up to the last path separator. Falls back to "."
// when no separator precedes the glob. A pattern with no metacharacters is
// used as-is when it names a directory, otherwise its parent is used.
func Root(pattern string) string {
	idx := strings.IndexAny(pattern, globMeta)
	if idx < 0 {
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			return filepath.Clean(pattern)
		}
		return filepath.Dir(pattern)
	}

	sep := strings.LastIndexAny(pattern[:idx], `/\`)
	if sep < 0 {
		return "."
	}
	if sep == 0 {
		return string(pattern[0])
	}

	return filepath.Clean(pattern[:sep])
}
