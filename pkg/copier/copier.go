package copier

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/arthur-debert/doppel/pkg/filesystem"
	"github.com/arthur-debert/doppel/pkg/logging"
	"github.com/arthur-debert/doppel/pkg/paths"
)

// DefaultJobs bounds the number of files copied at the same time.
const DefaultJobs = 16

// CopyTask is one step of the walk: a source entry and where it goes.
type CopyTask struct {
	Source string
	Dest   string
}

// Copier copies directory trees on one filesystem.
type Copier struct {
	fs     afero.Fs
	jobs   int
	sem    *semaphore.Weighted
	logger zerolog.Logger
}

// Option configures a Copier.
type Option func(*Copier)

// WithJobs bounds concurrent file copies. Values below 1 are ignored.
func WithJobs(n int) Option {
	return func(c *Copier) {
		if n > 0 {
			c.jobs = n
		}
	}
}

// New returns a Copier working on fs.
func New(fs afero.Fs, opts ...Option) *Copier {
	c := &Copier{
		fs:     fs,
		jobs:   DefaultJobs,
		logger: logging.GetLogger("copier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	// Only leaf copies take the semaphore. Directory levels never hold a
	// slot while waiting on their children.
	c.sem = semaphore.NewWeighted(int64(c.jobs))
	return c
}

// CopyTree replaces dest with a copy of src. Both paths must already be
// resolved (see paths.Resolve). Sibling entries are copied concurrently;
// the first error is returned after every sibling has settled.
func (c *Copier) CopyTree(ctx context.Context, src, dest string) error {
	defer logging.LogOperationStart(c.logger, "copy tree")()
	w, err := c.newWalk(src, dest)
	if err != nil {
		return err
	}
	return c.copyTree(ctx, src, dest, w)
}

// CopyTreeSync is CopyTree without any overlap between steps.
func (c *Copier) CopyTreeSync(src, dest string) error {
	defer logging.LogOperationStart(c.logger, "copy tree (sync)")()
	w, err := c.newWalk(src, dest)
	if err != nil {
		return err
	}
	return c.copyTreeSync(src, dest, w)
}

// CopyFile copies a single file, keeping its permission bits.
func (c *Copier) CopyFile(src, dest string) error {
	c.logger.Trace().Str("src", src).Str("dest", dest).Msg("copying file")
	return filesystem.CopyFile(c.fs, src, dest)
}

// walk holds the entries of the source tree that a copy must not descend
// into: the destination itself and, when the destination lies inside the
// source, the directories that creating it adds to the source.
type walk struct {
	root  string
	fresh map[string]bool
}

func (w *walk) skip(path string) bool {
	return path == w.root || w.fresh[path]
}

func (c *Copier) newWalk(src, dest string) (*walk, error) {
	w := &walk{root: dest, fresh: map[string]bool{}}
	if !paths.IsStrictAncestor(src, dest) {
		return w, nil
	}

	for dir := filepath.Dir(dest); paths.IsStrictAncestor(src, dir); dir = filepath.Dir(dir) {
		exists, err := afero.DirExists(c.fs, dir)
		if err != nil {
			return nil, err
		}
		if !exists {
			w.fresh[dir] = true
		}
	}
	return w, nil
}

func (c *Copier) copyTree(ctx context.Context, src, dest string, w *walk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tasks, err := c.prepare(src, dest, w)
	if err != nil || len(tasks) == 0 {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			return c.copyEntry(gctx, task, w)
		})
	}
	return g.Wait()
}

func (c *Copier) copyEntry(ctx context.Context, task CopyTask, w *walk) error {
	info, err := c.fs.Stat(task.Source)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return c.copyTree(ctx, task.Source, task.Dest, w)
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	return c.CopyFile(task.Source, task.Dest)
}

func (c *Copier) copyTreeSync(src, dest string, w *walk) error {
	tasks, err := c.prepare(src, dest, w)
	if err != nil {
		return err
	}

	for _, task := range tasks {
		info, err := c.fs.Stat(task.Source)
		if err != nil {
			return err
		}
		if info.IsDir() {
			err = c.copyTreeSync(task.Source, task.Dest, w)
		} else {
			err = c.CopyFile(task.Source, task.Dest)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// prepare lists the entries of src, then clears and recreates dest. Entries
// the walk skips are left out.
func (c *Copier) prepare(src, dest string, w *walk) ([]CopyTask, error) {
	names, err := readDirNames(c.fs, src)
	if err != nil {
		return nil, err
	}

	if err := c.fs.RemoveAll(dest); err != nil {
		return nil, err
	}
	if err := c.fs.MkdirAll(dest, filesystem.DirPerm); err != nil {
		return nil, err
	}

	tasks := make([]CopyTask, 0, len(names))
	for _, name := range names {
		oldPath := filepath.Join(src, name)
		if w.skip(oldPath) {
			c.logger.Debug().Str("path", oldPath).Msg("skipping destination inside source")
			continue
		}
		tasks = append(tasks, CopyTask{
			Source: oldPath,
			Dest:   filepath.Join(dest, name),
		})
	}
	return tasks, nil
}

func readDirNames(fs afero.Fs, dir string) ([]string, error) {
	f, err := fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.Readdirnames(-1)
}
