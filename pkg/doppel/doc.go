// Package doppel copies a directory tree and compiles the templates in the
// copy.
//
// A Doppel binds one template engine, selected through Use, to a filesystem.
// Run then:
//
//  1. fails with INVALID_ENGINE, before touching anything, if no engine is bound
//  2. resolves and validates the source and destination (see paths.Resolve)
//  3. replaces the destination with a copy of the source (see copier)
//  4. finds every file in the copy ending in the engine's extension
//  5. compiles each of them in place, dropping the extension and deleting
//     the template
//
// The first failure of any step is returned. Work already started settles
// before Run returns, and partial results are left on disk.
//
// Instances are independent: two Doppels may run with different engines at
// the same time, as long as their destinations do not overlap.
package doppel
