package paths

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/arthur-debert/doppel/pkg/errors"
	"github.com/arthur-debert/doppel/pkg/filesystem"
)

// ResolvedPaths holds the absolute source and destination of one run.
type ResolvedPaths struct {
	Source string
	Dest   string
}

// Resolve turns src and dest into absolute, cleaned paths relative to cwd and
// validates them:
//   - an empty src yields INVALID_SOURCE, an empty dest INVALID_DESTINATION
//   - a src that does not exist yields INVALID_SOURCE carrying the resolved path
//   - identical paths yield IDENTICAL_DIRECTORIES
//   - a dest that is an ancestor of src yields INVALID_DESTINATION
//
// A src that is an ancestor of dest is allowed; the copier skips the
// destination while walking the source.
func Resolve(fs afero.Fs, cwd, src, dest string) (ResolvedPaths, error) {
	if src == "" {
		return ResolvedPaths{}, errors.InvalidSource("")
	}
	if dest == "" {
		return ResolvedPaths{}, errors.InvalidDestination()
	}

	resolved := ResolvedPaths{
		Source: Abs(cwd, src),
		Dest:   Abs(cwd, dest),
	}

	exists, err := filesystem.Exists(fs, resolved.Source)
	if err != nil {
		return ResolvedPaths{}, err
	}
	if !exists {
		return ResolvedPaths{}, errors.InvalidSource(resolved.Source)
	}

	if resolved.Source == resolved.Dest {
		return ResolvedPaths{}, errors.IdenticalDirectories(resolved.Source, resolved.Dest)
	}

	if IsStrictAncestor(resolved.Dest, resolved.Source) {
		return ResolvedPaths{}, errors.DestinationContainsSource(resolved.Dest, resolved.Source)
	}

	return resolved, nil
}

// Abs resolves path against cwd. Absolute paths are only cleaned.
func Abs(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(cwd, path)
}

// ContainsPath reports whether child is parent or lies below it. Whole
// segments are compared, so /a/b does not contain /a/bc.
func ContainsPath(parent, child string) bool {
	parent, child = filepath.Clean(parent), filepath.Clean(child)
	if parent == child {
		return true
	}
	if !strings.HasSuffix(parent, string(filepath.Separator)) {
		parent += string(filepath.Separator)
	}
	return strings.HasPrefix(child, parent)
}

// IsStrictAncestor reports whether ancestor contains path and differs from it.
func IsStrictAncestor(ancestor, path string) bool {
	return filepath.Clean(ancestor) != filepath.Clean(path) && ContainsPath(ancestor, path)
}
