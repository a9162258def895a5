// Package copier recursively copies a directory tree onto a destination.
//
// Each directory level lists the immediate entries of the source, removes
// whatever is at the destination and recreates it, then walks the entries: directories recurse, anything
// else is copied byte for byte with its permission bits. Entries of one
// directory are copied concurrently and a directory only reports once every
// child has settled. The first failure wins and nothing is rolled back.
//
// The walk never descends into the top-level destination, so copying a
// directory into one of its own descendants terminates and leaves the
// destination subtree out of the copy. This holds at any nesting depth.
// Directories that creating the destination adds to the source are skipped
// too, so the copy holds exactly what the source held when it started.
//
// CopyTreeSync performs the same walk one entry at a time.
package copier
