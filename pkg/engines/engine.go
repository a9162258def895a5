package engines

import (
	"strings"

	"github.com/arthur-debert/doppel/pkg/errors"
)

// Engine compiles template text against a data context.
type Engine interface {
	// Name is the registry name the engine was selected under.
	Name() string

	// Extension is the file extension, without the leading dot, that marks
	// template files for this engine.
	Extension() string

	// Compile renders text with data. It fails on malformed templates.
	Compile(text string, data any) (string, error)
}

// Options tune an engine at selection time. Engines ignore the options they
// do not support.
type Options struct {
	// Extension overrides the engine's default extension.
	Extension string

	// Helpers are extra template functions (handlebars helpers, or funcs
	// added to the gotemplate FuncMap).
	Helpers map[string]any

	// Partials are named sub-templates: handlebars partials, or templates
	// associated with a gotemplate and reachable through {{template "name" .}}.
	Partials map[string]string
}

// Factory builds an engine from options.
type Factory func(opts Options) (Engine, error)

// extensionOrDefault normalizes an extension override, falling back to def.
func extensionOrDefault(ext, def string) (string, error) {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return def, nil
	}
	if strings.ContainsAny(ext, `/\*?[`) {
		return "", errors.Newf(errors.ErrInvalidInput, "invalid template extension %q", ext)
	}
	return ext, nil
}
