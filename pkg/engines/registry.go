package engines

import (
	"github.com/arthur-debert/doppel/pkg/errors"
	"github.com/arthur-debert/doppel/pkg/logging"
	"github.com/arthur-debert/doppel/pkg/registry"
)

// Registry maps engine names to factories.
type Registry struct {
	factories *registry.Registry[Factory]
}

var builtins = func() *registry.Registry[Factory] {
	r := registry.New[Factory]("engine")
	for name, factory := range map[string]Factory{
		HandlebarsName: NewHandlebars,
		JSTName:        NewJST,
		GoTemplateName: NewGoTemplate,
	} {
		if err := r.Add(name, factory); err != nil {
			panic(err)
		}
	}
	return r
}()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: registry.New[Factory]("engine")}
}

// Default returns a new registry holding the built-in engines. Changes to it
// do not affect other registries.
func Default() *Registry {
	return &Registry{factories: builtins.Clone()}
}

// Register adds a factory under name. Names must be unique.
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return errors.Newf(errors.ErrInvalidInput, "engine factory for %q is nil", name)
	}
	return r.factories.Add(name, factory)
}

// Replace adds a factory under name, overwriting any existing one.
func (r *Registry) Replace(name string, factory Factory) error {
	if factory == nil {
		return errors.Newf(errors.ErrInvalidInput, "engine factory for %q is nil", name)
	}
	return r.factories.Set(name, factory)
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	return r.factories.Names()
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories.Lookup(name)
	return ok
}

// Select instantiates the engine registered under name. Unknown names fail
// with INVALID_ENGINE listing every registered engine.
func (r *Registry) Select(name string, opts Options) (Engine, error) {
	factory, ok := r.factories.Lookup(name)
	if !ok {
		return nil, errors.InvalidEngine(name, r.Names())
	}

	engine, err := factory(opts)
	if err != nil {
		return nil, err
	}

	logger := logging.GetLogger("engines")
	logger.Debug().
		Str("engine", engine.Name()).
		Str("extension", engine.Extension()).
		Msg("engine selected")

	return engine, nil
}
