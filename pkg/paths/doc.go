// Package paths resolves the source and destination arguments of a run into
// absolute paths and rejects combinations that cannot be copied.
//
// Resolution happens against a single working-directory snapshot supplied by
// the caller. Apart from one existence check on the source, it touches
// nothing on disk.
package paths
