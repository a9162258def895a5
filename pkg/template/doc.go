// Package template compiles a single template file in place.
//
// A TemplateFile pairs a template source path with its destination, the same
// path minus the engine extension. Compiling reads the source, renders it with
// the engine, writes the destination durably and only then removes the
// source. A failed removal leaves the stale source on disk and is reported;
// it is not retried.
package template
