// Package filesystem provides the filesystems doppel runs against and the
// file-level primitives shared by the copier and the template compiler.
//
// Every component takes an afero.Fs so the same code runs against the OS
// filesystem in production and against in-memory or failure-injecting
// filesystems in tests.
package filesystem
