package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/arthur-debert/doppel/pkg/logging"
)

// Pattern returns the glob pattern FindTemplates evaluates, for display.
func Pattern(root, ext string) string {
	return filepath.Join(root, "**", "*."+ext)
}

// Matches reports whether a file name carries the template extension with a
// non-empty stem.
func Matches(name, ext string) bool {
	suffix := "." + ext
	return ext != "" && len(name) > len(suffix) && strings.HasSuffix(name, suffix)
}

// FindTemplates walks root and returns the sorted paths of all template
// files for ext. A missing root, or any error raised while walking, fails
// the whole search.
func FindTemplates(fs afero.Fs, root, ext string) ([]string, error) {
	logger := logging.GetLogger("scanner")

	if _, err := fs.Stat(root); err != nil {
		return nil, err
	}

	var matches []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if Matches(info.Name(), ext) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)

	logger.Debug().
		Str("pattern", Pattern(root, ext)).
		Int("count", len(matches)).
		Msg("templates found")

	return matches, nil
}
