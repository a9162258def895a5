package engines

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/arthur-debert/doppel/pkg/errors"
)

const (
	// GoTemplateName is the registry name of the text/template engine
	GoTemplateName = "gotemplate"

	// GoTemplateExtension is the default gotemplate extension
	GoTemplateExtension = "tmpl"
)

// GoTemplate renders text/template templates with the sprig functions plus any
// helpers given at selection time.
type GoTemplate struct {
	extension string
	funcs     template.FuncMap
	partials  map[string]string
}

// NewGoTemplate is the Factory for the gotemplate engine.
func NewGoTemplate(opts Options) (Engine, error) {
	ext, err := extensionOrDefault(opts.Extension, GoTemplateExtension)
	if err != nil {
		return nil, err
	}

	g := &GoTemplate{
		extension: ext,
		funcs:     template.FuncMap{},
		partials:  make(map[string]string, len(opts.Partials)),
	}
	for name, fn := range opts.Helpers {
		g.funcs[name] = fn
	}
	for name, partial := range opts.Partials {
		g.partials[name] = partial
	}

	// Funcs panics on values that are not usable functions.
	if _, err := g.newTemplate(); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *GoTemplate) Name() string      { return GoTemplateName }
func (g *GoTemplate) Extension() string { return g.extension }

// Compile parses text and executes it with data.
func (g *GoTemplate) Compile(text string, data any) (string, error) {
	tpl, err := g.newTemplate()
	if err != nil {
		return "", err
	}
	if _, err := tpl.Parse(text); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (g *GoTemplate) newTemplate() (tpl *template.Template, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrInvalidInput, "invalid gotemplate helper: %v", r)
		}
	}()

	tpl = template.New(GoTemplateName).Funcs(sprig.TxtFuncMap()).Funcs(g.funcs)
	for name, partial := range g.partials {
		if _, err := tpl.New(name).Parse(partial); err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid gotemplate partial %q", name)
		}
	}
	return tpl, nil
}
