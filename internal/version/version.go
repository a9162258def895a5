// Package version holds build information stamped in by the release build:
//
//	-X github.com/arthur-debert/doppel/internal/version.Version={{.Version}}
//	-X github.com/arthur-debert/doppel/internal/version.Commit={{.Commit}}
//	-X github.com/arthur-debert/doppel/internal/version.Date={{.Date}}
package version

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

