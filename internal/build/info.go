// Package build exposes build-time metadata injected via ldflags.
package build

import "fmt"

// Set at build time with
//
//	-ldflags "-X github.com/joestump/bookshelf/internal/build.Version=v1.2.0 -X ...Commit=abc123"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the metadata for the version command.
func String() string {
	return fmt.Sprintf("bookshelf %s (commit %s, built %s)", Version, Commit, Date)
}
