// Package testutil provides utilities for testing doppel components.
//
// Key components:
//   - MemoryFS: an in-memory afero filesystem with per-path error injection
//     and operation counters
//   - WriteTree / ReadTree: declarative setup and inspection of file trees
//
// Usage guidelines:
//   - Most tests should run on MemoryFS for speed and isolation
//   - Only tests exercising OS behaviour (symlinks, permissions on disk)
//     should use t.TempDir()
//   - All test data should be defined inline, not in external files
package testutil
