// Package version holds build metadata stamped at link time.
package version

import "fmt"

var (
	// Version is the semantic version, set via -ldflags at build time.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the full version line.
func String() string {
	return fmt.Sprintf("snapfire %s (%s, built %s)", Version, Commit, Date)
}
