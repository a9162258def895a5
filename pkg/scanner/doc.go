// Package scanner enumerates template files under a directory tree.
//
// FindTemplates is the recursive equivalent of the glob <root>/**/*.<ext>:
// every regular file below root whose name ends in ".<ext>" is returned,
// dotfiles included. A file named exactly ".<ext>" has no stem to compile to
// and is never matched.
package scanner
