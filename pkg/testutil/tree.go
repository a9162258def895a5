package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// WriteTree creates root and the given files below it. Keys are
// slash-separated paths relative to root; parent directories are created.
func WriteTree(t testing.TB, fs afero.Fs, root string, files map[string]string) {
	t.Helper()

	require.NoError(t, fs.MkdirAll(root, 0755))
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
}

// ReadTree returns every file below root keyed by its slash-separated path
// relative to root. Directories are not listed.
func ReadTree(t testing.TB, fs afero.Fs, root string) map[string]string {
	t.Helper()

	files := map[string]string{}
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	require.NoError(t, err)
	return files
}
