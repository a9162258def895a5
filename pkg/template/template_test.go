package template

import (
	"context"
	stderrors "errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/doppel/pkg/engines"
	"github.com/arthur-debert/doppel/pkg/errors"
	"github.com/arthur-debert/doppel/pkg/filesystem"
	"github.com/arthur-debert/doppel/pkg/testutil"
)

var errRemove = stderrors.New("remove refused")

type panicEngine struct{}

func (panicEngine) Name() string                        { return "panic" }
func (panicEngine) Extension() string                   { return "boom" }
func (panicEngine) Compile(string, any) (string, error) { panic("engine exploded") }

func jst(t *testing.T) engines.Engine {
	t.Helper()
	engine, err := engines.NewJST(engines.Options{})
	require.NoError(t, err)
	return engine
}

func TestNewTemplateFile(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		ext      string
		wantDest string
		wantErr  bool
	}{
		{"strips extension", "/out/a.jst", "jst", "/out/a", false},
		{"strips only the final suffix", "/out/a.jst.jst", "jst", "/out/a.jst", false},
		{"keeps inner dots", "/out/config.yaml.jst", "jst", "/out/config.yaml", false},
		{"dotfile template", "/out/.env.jst", "jst", "/out/.env", false},
		{"wrong extension", "/out/a.txt", "jst", "", true},
		{"extension in the middle only", "/out/a.jst.txt", "jst", "", true},
		{"bare extension", "/out/.jst", "jst", "", true},
		{"empty extension", "/out/a.", "", "", true},
		{"extension in directory name", "/out/x.jst/a", "jst", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := NewTemplateFile(tt.path, tt.ext)
			if tt.wantErr {
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidTemplateFile), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path, file.Source)
			assert.Equal(t, tt.wantDest, file.Dest)
			assert.NotEqual(t, file.Source, file.Dest)
		})
	}
}

func TestCompile(t *testing.T) {
	fs := filesystem.NewMemory()
	require.NoError(t, afero.WriteFile(fs, "/out/a.jst", []byte("<%= x %>"), 0600))

	file, err := NewTemplateFile("/out/a.jst", "jst")
	require.NoError(t, err)

	err = NewCompiler(fs, jst(t)).Compile(context.Background(), file, map[string]any{"x": "42"})
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, "/out/a")
	require.NoError(t, err)
	assert.Equal(t, "42", string(content))

	info, err := fs.Stat("/out/a")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	exists, err := afero.Exists(fs, "/out/a.jst")
	require.NoError(t, err)
	assert.False(t, exists, "source template should be removed")
}

func TestCompileOverwritesExistingDestination(t *testing.T) {
	fs := filesystem.NewMemory()
	require.NoError(t, afero.WriteFile(fs, "/out/a.jst", []byte("new"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/out/a", []byte("stale and longer"), 0644))

	file, _ := NewTemplateFile("/out/a.jst", "jst")
	require.NoError(t, NewCompiler(fs, jst(t)).Compile(context.Background(), file, nil))

	content, err := afero.ReadFile(fs, "/out/a")
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestCompileFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing source is returned unchanged", func(t *testing.T) {
		file, _ := NewTemplateFile("/out/missing.jst", "jst")
		err := NewCompiler(filesystem.NewMemory(), jst(t)).Compile(ctx, file, nil)

		var pathErr *os.PathError
		assert.True(t, stderrors.As(err, &pathErr))
		assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(err))
	})

	t.Run("malformed template keeps source and writes nothing", func(t *testing.T) {
		fs := filesystem.NewMemory()
		require.NoError(t, afero.WriteFile(fs, "/out/a.jst", []byte("<%= x"), 0644))
		file, _ := NewTemplateFile("/out/a.jst", "jst")

		err := NewCompiler(fs, jst(t)).Compile(ctx, file, map[string]any{"x": 1})

		assert.True(t, errors.IsErrorCode(err, errors.ErrCompile))
		assert.Equal(t, "/out/a.jst", errors.GetErrorDetails(err)["path"])
		assert.Equal(t, "jst", errors.GetErrorDetails(err)["engine"])

		exists, _ := afero.Exists(fs, "/out/a.jst")
		assert.True(t, exists)
		exists, _ = afero.Exists(fs, "/out/a")
		assert.False(t, exists)
	})

	t.Run("engine panic becomes compile error", func(t *testing.T) {
		fs := filesystem.NewMemory()
		require.NoError(t, afero.WriteFile(fs, "/out/a.boom", []byte("x"), 0644))
		file, _ := NewTemplateFile("/out/a.boom", "boom")

		err := NewCompiler(fs, panicEngine{}).Compile(ctx, file, nil)

		assert.True(t, errors.IsErrorCode(err, errors.ErrCompile))
		assert.Contains(t, err.Error(), "engine exploded")
	})

	t.Run("write failure keeps source", func(t *testing.T) {
		base := filesystem.NewMemory()
		require.NoError(t, afero.WriteFile(base, "/out/a.jst", []byte("ok"), 0644))
		file, _ := NewTemplateFile("/out/a.jst", "jst")

		err := NewCompiler(afero.NewReadOnlyFs(base), jst(t)).Compile(ctx, file, nil)

		assert.Error(t, err)
		exists, _ := afero.Exists(base, "/out/a.jst")
		assert.True(t, exists)
	})

	t.Run("remove failure leaves stale source next to output", func(t *testing.T) {
		base := testutil.NewMemoryFS().WithError(testutil.OpRemove, "/out/a.jst", errRemove)
		require.NoError(t, afero.WriteFile(base, "/out/a.jst", []byte("done"), 0644))
		file, _ := NewTemplateFile("/out/a.jst", "jst")

		err := NewCompiler(base, jst(t)).Compile(ctx, file, nil)

		assert.ErrorIs(t, err, errRemove)
		content, readErr := afero.ReadFile(base, "/out/a")
		require.NoError(t, readErr)
		assert.Equal(t, "done", string(content))
		exists, _ := afero.Exists(base, "/out/a.jst")
		assert.True(t, exists)
	})

	t.Run("cancelled context does nothing", func(t *testing.T) {
		fs := filesystem.NewMemory()
		require.NoError(t, afero.WriteFile(fs, "/out/a.jst", []byte("ok"), 0644))
		file, _ := NewTemplateFile("/out/a.jst", "jst")

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := NewCompiler(fs, jst(t)).Compile(cancelled, file, nil)
		assert.ErrorIs(t, err, context.Canceled)
		exists, _ := afero.Exists(fs, "/out/a.jst")
		assert.True(t, exists)
	})
}
