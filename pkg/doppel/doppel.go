package doppel

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/doppel/pkg/copier"
	"github.com/arthur-debert/doppel/pkg/engines"
	"github.com/arthur-debert/doppel/pkg/errors"
	"github.com/arthur-debert/doppel/pkg/filesystem"
	"github.com/arthur-debert/doppel/pkg/logging"
	"github.com/arthur-debert/doppel/pkg/paths"
	"github.com/arthur-debert/doppel/pkg/scanner"
	"github.com/arthur-debert/doppel/pkg/template"
)

// Doppel runs copy-and-compile pipelines with one bound engine.
type Doppel struct {
	mu       sync.RWMutex
	engine   engines.Engine
	fs       afero.Fs
	registry *engines.Registry
	cwd      string
	jobs     int
	logger   zerolog.Logger
}

// Result describes a successful run.
type Result struct {
	Paths paths.ResolvedPaths

	// Compiled lists the output paths of compiled templates, sorted.
	Compiled []string
}

// Option configures a Doppel.
type Option func(*Doppel)

// WithFS sets the filesystem. The default is the OS filesystem.
func WithFS(fs afero.Fs) Option {
	return func(d *Doppel) { d.fs = fs }
}

// WithRegistry sets the engine registry Use selects from. The default is
// engines.Default().
func WithRegistry(r *engines.Registry) Option {
	return func(d *Doppel) { d.registry = r }
}

// WithEngine binds an engine directly, bypassing the registry.
func WithEngine(e engines.Engine) Option {
	return func(d *Doppel) { d.engine = e }
}

// WithJobs bounds concurrent file operations. Values below 1 are ignored.
func WithJobs(n int) Option {
	return func(d *Doppel) {
		if n > 0 {
			d.jobs = n
		}
	}
}

// WithWorkingDir fixes the directory relative arguments resolve against.
// By default the process working directory is read at the start of each run.
func WithWorkingDir(dir string) Option {
	return func(d *Doppel) { d.cwd = dir }
}

// New returns a Doppel with no engine bound.
func New(opts ...Option) *Doppel {
	d := &Doppel{
		fs:       filesystem.NewOS(),
		registry: engines.Default(),
		jobs:     copier.DefaultJobs,
		logger:   logging.GetLogger("doppel"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Use selects the engine registered under name and binds it, replacing any
// engine bound before. On failure the previous engine stays bound.
func (d *Doppel) Use(name string, opts engines.Options) error {
	engine, err := d.registry.Select(name, opts)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.engine = engine
	d.mu.Unlock()
	return nil
}

// Engine returns the bound engine, or nil.
func (d *Doppel) Engine() engines.Engine {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine
}

// Engines lists the names Use accepts.
func (d *Doppel) Engines() []string {
	return d.registry.Names()
}

// Run copies src to dest and compiles every template in the copy with data.
// Files are copied and compiled concurrently. Cancelling ctx stops the run
// at the next step boundary.
func (d *Doppel) Run(ctx context.Context, src, dest string, data any) (*Result, error) {
	return d.run(ctx, src, dest, data, false)
}

// RunSync is Run with every step performed one after the other.
func (d *Doppel) RunSync(src, dest string, data any) (*Result, error) {
	return d.run(context.Background(), src, dest, data, true)
}

func (d *Doppel) run(ctx context.Context, src, dest string, data any, blocking bool) (*Result, error) {
	engine := d.Engine()
	if engine == nil {
		return nil, errors.InvalidEngine("", d.registry.Names())
	}

	cwd, err := d.workingDir()
	if err != nil {
		return nil, err
	}

	resolved, err := paths.Resolve(d.fs, cwd, src, dest)
	if err != nil {
		return nil, err
	}

	logger := d.logger.With().
		Str("src", resolved.Source).
		Str("dest", resolved.Dest).
		Str("engine", engine.Name()).
		Logger()
	defer logging.LogOperationStart(logger, "run")()

	c := copier.New(d.fs, copier.WithJobs(d.jobs))
	if blocking {
		err = c.CopyTreeSync(resolved.Source, resolved.Dest)
	} else {
		err = c.CopyTree(ctx, resolved.Source, resolved.Dest)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, err := scanner.FindTemplates(d.fs, resolved.Dest, engine.Extension())
	if err != nil {
		return nil, err
	}

	files := make([]template.TemplateFile, 0, len(matches))
	for _, match := range matches {
		file, err := template.NewTemplateFile(match, engine.Extension())
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	compiler := template.NewCompiler(d.fs, engine)
	if blocking {
		err = compileSequential(compiler, files, data)
	} else {
		err = compileConcurrent(ctx, compiler, files, data, d.jobs)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{Paths: resolved, Compiled: make([]string, 0, len(files))}
	for _, file := range files {
		result.Compiled = append(result.Compiled, file.Dest)
	}
	sort.Strings(result.Compiled)

	logger.Info().
		Int("count", len(result.Compiled)).
		Msg("templates compiled")

	return result, nil
}

func compileConcurrent(ctx context.Context, compiler *template.Compiler, files []template.TemplateFile, data any, jobs int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, file := range files {
		g.Go(func() error {
			return compiler.Compile(gctx, file, data)
		})
	}
	return g.Wait()
}

func compileSequential(compiler *template.Compiler, files []template.TemplateFile, data any) error {
	for _, file := range files {
		if err := compiler.Compile(context.Background(), file, data); err != nil {
			return err
		}
	}
	return nil
}

func (d *Doppel) workingDir() (string, error) {
	if d.cwd != "" {
		return d.cwd, nil
	}
	return os.Getwd()
}
