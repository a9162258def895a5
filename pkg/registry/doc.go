// Package registry provides a generic, thread-safe name-to-item registry.
// The engine registry stores template engine factories in one; names are
// always listed in sorted order so error messages and CLI listings are stable.
package registry
