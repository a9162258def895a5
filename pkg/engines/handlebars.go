package engines

import (
	"github.com/aymerick/raymond"

	"github.com/arthur-debert/doppel/pkg/errors"
)

const (
	// HandlebarsName is the registry name of the handlebars engine
	HandlebarsName = "handlebars"

	// HandlebarsExtension is the default handlebars template extension
	HandlebarsExtension = "handlebars"
)

// Handlebars renders Handlebars templates. Helpers and partials are bound to
// every template it parses, so no raymond global state is touched.
type Handlebars struct {
	extension string
	helpers   map[string]any
	partials  map[string]string
}

// NewHandlebars is the Factory for the handlebars engine.
func NewHandlebars(opts Options) (Engine, error) {
	ext, err := extensionOrDefault(opts.Extension, HandlebarsExtension)
	if err != nil {
		return nil, err
	}

	h := &Handlebars{
		extension: ext,
		helpers:   make(map[string]any, len(opts.Helpers)),
		partials:  make(map[string]string, len(opts.Partials)),
	}
	for name, helper := range opts.Helpers {
		h.helpers[name] = helper
	}
	for name, partial := range opts.Partials {
		h.partials[name] = partial
	}

	// raymond panics on malformed helpers; surface that at selection time.
	empty, err := raymond.Parse("")
	if err != nil {
		return nil, err
	}
	if err := h.bind(empty); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Handlebars) Name() string      { return HandlebarsName }
func (h *Handlebars) Extension() string { return h.extension }

// Compile parses text, binds helpers and partials, and executes it with data.
func (h *Handlebars) Compile(text string, data any) (string, error) {
	tpl, err := raymond.Parse(text)
	if err != nil {
		return "", err
	}
	if err := h.bind(tpl); err != nil {
		return "", err
	}
	return tpl.Exec(data)
}

func (h *Handlebars) bind(tpl *raymond.Template) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrInvalidInput, "invalid handlebars helper or partial: %v", r)
		}
	}()

	if len(h.helpers) > 0 {
		tpl.RegisterHelpers(h.helpers)
	}
	if len(h.partials) > 0 {
		tpl.RegisterPartials(h.partials)
	}
	return nil
}
