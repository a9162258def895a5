package template

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/doppel/pkg/engines"
	"github.com/arthur-debert/doppel/pkg/errors"
	"github.com/arthur-debert/doppel/pkg/filesystem"
	"github.com/arthur-debert/doppel/pkg/logging"
)

// TemplateFile is a template source and the path its compiled output goes to.
type TemplateFile struct {
	Source    string
	Dest      string
	Extension string
}

// NewTemplateFile builds the TemplateFile for path. The file name must end
// in "."+ext with a non-empty stem; Dest strips exactly that one suffix.
func NewTemplateFile(path, ext string) (TemplateFile, error) {
	suffix := "." + ext
	name := filepath.Base(path)
	if ext == "" || !strings.HasSuffix(name, suffix) || len(name) == len(suffix) {
		return TemplateFile{}, errors.Newf(errors.ErrInvalidTemplateFile,
			"%s is not a .%s template file", path, ext).
			WithDetail("path", path)
	}

	return TemplateFile{
		Source:    path,
		Dest:      strings.TrimSuffix(path, suffix),
		Extension: ext,
	}, nil
}

// Compiler compiles template files with one engine.
type Compiler struct {
	fs     afero.Fs
	engine engines.Engine
	logger zerolog.Logger
}

// NewCompiler returns a Compiler that renders with engine on fs.
func NewCompiler(fs afero.Fs, engine engines.Engine) *Compiler {
	return &Compiler{
		fs:     fs,
		engine: engine,
		logger: logging.GetLogger("template"),
	}
}

// Compile runs read, compile, write and delete for file, strictly in that
// order. On success file.Dest holds the compiled output and file.Source is
// gone. I/O errors are returned unchanged; engine failures (including panics)
// come back as COMPILE errors.
func (c *Compiler) Compile(ctx context.Context, file TemplateFile, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := c.fs.Stat(file.Source)
	if err != nil {
		return err
	}

	text, err := afero.ReadFile(c.fs, file.Source)
	if err != nil {
		return err
	}

	compiled, err := c.render(file, string(text), data)
	if err != nil {
		return err
	}

	if err := filesystem.WriteFileDurable(c.fs, file.Dest, []byte(compiled), info.Mode().Perm()); err != nil {
		return err
	}

	if err := c.fs.Remove(file.Source); err != nil {
		c.logger.Warn().
			Err(err).
			Str("path", file.Source).
			Msg("compiled template written but source could not be removed")
		return err
	}

	c.logger.Debug().
		Str("src", file.Source).
		Str("dest", file.Dest).
		Str("engine", c.engine.Name()).
		Int("bytes", len(compiled)).
		Msg("template compiled")

	return nil
}

func (c *Compiler) render(file TemplateFile, text string, data any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Compile(file.Source, c.engine.Name(), fmt.Errorf("engine panic: %v", r))
		}
	}()

	out, err = c.engine.Compile(text, data)
	if err != nil {
		return "", errors.Compile(file.Source, c.engine.Name(), err)
	}
	return out, nil
}
