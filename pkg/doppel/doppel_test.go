package doppel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/doppel/pkg/engines"
	"github.com/arthur-debert/doppel/pkg/errors"
	"github.com/arthur-debert/doppel/pkg/testutil"
)

// newDoppel returns a Doppel on a fresh in-memory filesystem rooted at /work,
// with the named engine bound.
func newDoppel(t *testing.T, engine string, opts ...Option) (*Doppel, *testutil.MemoryFS) {
	t.Helper()
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/work", 0755))
	d := New(append([]Option{WithFS(fs), WithWorkingDir("/work")}, opts...)...)
	if engine != "" {
		require.NoError(t, d.Use(engine, engines.Options{}))
	}
	return d, fs
}

// runModes runs a pipeline concurrently and blocking.
var runModes = map[string]func(d *Doppel, src, dest string, data any) (*Result, error){
	"async": func(d *Doppel, src, dest string, data any) (*Result, error) {
		return d.Run(context.Background(), src, dest, data)
	},
	"sync": func(d *Doppel, src, dest string, data any) (*Result, error) {
		return d.RunSync(src, dest, data)
	},
}

func TestRunCompilesSimpleTemplates(t *testing.T) {
	for mode, run := range runModes {
		t.Run(mode, func(t *testing.T) {
			d, fs := newDoppel(t, engines.JSTName)
			testutil.WriteTree(t, fs, "/work/src", map[string]string{
				"a.jst":     "<%= x %>",
				"sub/b.txt": "hi",
			})

			result, err := run(d, "src", "out", map[string]any{"x": "42"})
			require.NoError(t, err)

			assert.Equal(t, map[string]string{
				"a":         "42",
				"sub/b.txt": "hi",
			}, testutil.ReadTree(t, fs, "/work/out"))
			assert.Equal(t, "/work/src", result.Paths.Source)
			assert.Equal(t, "/work/out", result.Paths.Dest)
			assert.Equal(t, []string{"/work/out/a"}, result.Compiled)

			// The source keeps its templates.
			exists, _ := afero.Exists(fs, "/work/src/a.jst")
			assert.True(t, exists)
		})
	}
}

func TestRunStripsExtensionEverywhere(t *testing.T) {
	d, fs := newDoppel(t, engines.HandlebarsName)
	testutil.WriteTree(t, fs, "/work/src", map[string]string{
		"README.md.handlebars":           "# {{name}}",
		".env.handlebars":                "NAME={{name}}",
		"pkg/{{dir}}/main.go.handlebars": "package {{name}}",
		"pkg/deep/er/x.handlebars":       "{{name}}!",
		"static/logo.svg":                "<svg/>",
	})

	result, err := d.Run(context.Background(), "src", "out", map[string]any{"name": "demo"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"README.md":           "# demo",
		".env":                "NAME=demo",
		"pkg/{{dir}}/main.go": "package demo",
		"pkg/deep/er/x":       "demo!",
		"static/logo.svg":     "<svg/>",
	}, testutil.ReadTree(t, fs, "/work/out"))
	assert.Equal(t, []string{
		"/work/out/.env",
		"/work/out/README.md",
		"/work/out/pkg/deep/er/x",
		"/work/out/pkg/{{dir}}/main.go",
	}, result.Compiled)
}

func TestRunClobbersPreviousOutput(t *testing.T) {
	d, fs := newDoppel(t, engines.JSTName)
	testutil.WriteTree(t, fs, "/work/src", map[string]string{"a.jst": "<%= v %>"})
	testutil.WriteTree(t, fs, "/work/out", map[string]string{
		"stale.txt":     "old",
		"a":             "old",
		"dir/stale.txt": "old",
	})

	_, err := d.Run(context.Background(), "src", "out", map[string]any{"v": "first"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "first"}, testutil.ReadTree(t, fs, "/work/out"))

	_, err = d.Run(context.Background(), "src", "out", map[string]any{"v": "second"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "second"}, testutil.ReadTree(t, fs, "/work/out"))
}

func TestRunWithoutEngine(t *testing.T) {
	d, fs := newDoppel(t, "")
	testutil.WriteTree(t, fs, "/work/src", map[string]string{"a.jst": "x"})
	testutil.WriteTree(t, fs, "/work/out", map[string]string{"keep.txt": "keep"})

	before, err := fs.Stat("/work/out")
	require.NoError(t, err)

	for mode, run := range runModes {
		t.Run(mode, func(t *testing.T) {
			fs.ResetStats()

			_, err := run(d, "src", "out", nil)

			require.True(t, errors.IsErrorCode(err, errors.ErrInvalidEngine), "got %v", err)
			assert.Equal(t, []string{"gotemplate", "handlebars", "jst"}, errors.SupportedEngines(err))
			assert.Contains(t, err.Error(), "must be selected")

			reads, mutations := fs.Stats()
			assert.Zero(t, reads)
			assert.Zero(t, mutations)

			after, err := fs.Stat("/work/out")
			require.NoError(t, err)
			assert.Equal(t, before.ModTime(), after.ModTime())
			assert.Equal(t, map[string]string{"keep.txt": "keep"}, testutil.ReadTree(t, fs, "/work/out"))
		})
	}
}

func TestRunValidatesBeforeMutation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		dest string
		code errors.ErrorCode
	}{
		{"empty source", "", "out", errors.ErrInvalidSource},
		{"empty destination", "src", "", errors.ErrInvalidDestination},
		{"missing source", "nope", "out", errors.ErrInvalidSource},
		{"destination contains source", "src/inner", "src", errors.ErrInvalidDestination},
		{"identical", "src", "./src/", errors.ErrIdenticalDirectories},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, fs := newDoppel(t, engines.JSTName)
			files := map[string]string{"inner/a.jst": "<%= x %>", "b.txt": "b"}
			testutil.WriteTree(t, fs, "/work/src", files)
			fs.ResetStats()

			_, err := d.Run(context.Background(), tt.src, tt.dest, nil)

			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
			_, mutations := fs.Stats()
			assert.Zero(t, mutations)
			assert.Equal(t, files, testutil.ReadTree(t, fs, "/work/src"))
			exists, _ := afero.Exists(fs, "/work/out")
			assert.False(t, exists, "destination must not be created")
		})
	}
}

func TestRunMissingSourceReportsResolvedPath(t *testing.T) {
	d, fs := newDoppel(t, engines.JSTName)

	_, err := d.Run(context.Background(), "nope", "tmp", nil)

	require.True(t, errors.IsErrorCode(err, errors.ErrInvalidSource))
	assert.Equal(t, "/work/nope", errors.GetErrorDetails(err)["path"])
	exists, _ := afero.Exists(fs, "/work/tmp")
	assert.False(t, exists)
}

func TestRunCopiesWorkingDirectoryIntoItself(t *testing.T) {
	for _, dest := range []string{"out", "build/nested/out"} {
		t.Run(dest, func(t *testing.T) {
			d, fs := newDoppel(t, engines.JSTName)
			testutil.WriteTree(t, fs, "/work", map[string]string{
				"a.jst":          "<%= x %>",
				"build/nested/k": "k",
				"build/keep.txt": "keep",
			})

			_, err := d.Run(context.Background(), ".", dest, map[string]any{"x": "1"})
			require.NoError(t, err)

			assert.Equal(t, map[string]string{
				"a":              "1",
				"build/nested/k": "k",
				"build/keep.txt": "keep",
			}, testutil.ReadTree(t, fs, filepath.Join("/work", dest)))
		})
	}
}

func TestRunCompileFailure(t *testing.T) {
	for mode, run := range runModes {
		t.Run(mode, func(t *testing.T) {
			d, fs := newDoppel(t, engines.JSTName)
			testutil.WriteTree(t, fs, "/work/src", map[string]string{
				"good.jst": "<%= x %>",
				"bad.jst":  "<%= x",
			})

			result, err := run(d, "src", "out", map[string]any{"x": "ok"})

			assert.Nil(t, result)
			require.True(t, errors.IsErrorCode(err, errors.ErrCompile), "got %v", err)
			assert.Equal(t, "/work/out/bad.jst", errors.GetErrorDetails(err)["path"])

			// The failing template is left in place.
			exists, _ := afero.Exists(fs, "/work/out/bad.jst")
			assert.True(t, exists)
		})
	}
}

func TestRunMissingKey(t *testing.T) {
	d, fs := newDoppel(t, engines.JSTName)
	testutil.WriteTree(t, fs, "/work/src", map[string]string{"a.jst": "<%= missing %>"})

	_, err := d.Run(context.Background(), "src", "out", map[string]any{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrCompile), "got %v", err)
}

func TestRunWithoutTemplates(t *testing.T) {
	d, fs := newDoppel(t, engines.JSTName)
	testutil.WriteTree(t, fs, "/work/src", map[string]string{"a.txt": "a"})

	result, err := d.Run(context.Background(), "src", "out", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Compiled)
	assert.Equal(t, map[string]string{"a.txt": "a"}, testutil.ReadTree(t, fs, "/work/out"))
}

func TestRunCancelled(t *testing.T) {
	d, fs := newDoppel(t, engines.JSTName)
	testutil.WriteTree(t, fs, "/work/src", map[string]string{"a.jst": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, "src", "out", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUse(t *testing.T) {
	d, fs := newDoppel(t, engines.JSTName)
	assert.Equal(t, engines.JSTName, d.Engine().Name())

	err := d.Use("erb", engines.Options{})
	require.True(t, errors.IsErrorCode(err, errors.ErrInvalidEngine))
	assert.Contains(t, err.Error(), "The erb template engine is not supported.")
	assert.Equal(t, engines.JSTName, d.Engine().Name(), "a failed selection keeps the bound engine")

	require.NoError(t, d.Use(engines.GoTemplateName, engines.Options{Extension: "tpl"}))
	assert.Equal(t, engines.GoTemplateName, d.Engine().Name())

	testutil.WriteTree(t, fs, "/work/src", map[string]string{
		"a.tpl":  "{{ .x | upper }}",
		"b.tmpl": "untouched",
	})
	_, err = d.Run(context.Background(), "src", "out", map[string]any{"x": "go"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "GO", "b.tmpl": "untouched"}, testutil.ReadTree(t, fs, "/work/out"))
}

func TestEnginesAreBoundPerInstance(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, "/work/src", map[string]string{
		"a.jst":        "<%= x %>",
		"b.handlebars": "{{x}}",
	})

	first := New(WithFS(fs), WithWorkingDir("/work"))
	second := New(WithFS(fs), WithWorkingDir("/work"))
	require.NoError(t, first.Use(engines.JSTName, engines.Options{}))
	require.NoError(t, second.Use(engines.HandlebarsName, engines.Options{}))

	data := map[string]any{"x": "v"}
	_, err := first.Run(context.Background(), "src", "one", data)
	require.NoError(t, err)
	_, err = second.Run(context.Background(), "src", "two", data)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a": "v", "b.handlebars": "{{x}}"}, testutil.ReadTree(t, fs, "/work/one"))
	assert.Equal(t, map[string]string{"a.jst": "<%= x %>", "b": "v"}, testutil.ReadTree(t, fs, "/work/two"))
}

type upperEngine struct{}

func (upperEngine) Name() string      { return "upper" }
func (upperEngine) Extension() string { return "up" }
func (upperEngine) Compile(text string, _ any) (string, error) {
	out := []byte(text)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out), nil
}

func TestWithEngineAndCustomRegistry(t *testing.T) {
	reg := engines.NewRegistry()
	require.NoError(t, reg.Register("upper", func(engines.Options) (engines.Engine, error) {
		return upperEngine{}, nil
	}))

	d, fs := newDoppel(t, "", WithRegistry(reg), WithJobs(2))
	assert.Equal(t, []string{"upper"}, d.Engines())

	_, err := d.Run(context.Background(), "src", "out", nil)
	assert.Equal(t, []string{"upper"}, errors.SupportedEngines(err))

	require.NoError(t, d.Use("upper", engines.Options{}))
	testutil.WriteTree(t, fs, "/work/src", map[string]string{"a.up": "shout"})
	_, err = d.Run(context.Background(), "src", "out", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "SHOUT"}, testutil.ReadTree(t, fs, "/work/out"))

	direct, fs2 := newDoppel(t, "", WithEngine(upperEngine{}))
	testutil.WriteTree(t, fs2, "/work/src", map[string]string{"b.up": "quiet"})
	_, err = direct.RunSync("src", "out", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "QUIET"}, testutil.ReadTree(t, fs2, "/work/out"))
}

func TestRunOnDisk(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()
	testutil.WriteTree(t, fs, filepath.Join(dir, "src"), map[string]string{
		"a.jst":     "<%= x %>",
		"sub/b.txt": "hi",
	})

	d := New(WithWorkingDir(dir))
	require.NoError(t, d.Use(engines.JSTName, engines.Options{}))

	_, err := d.Run(context.Background(), "src", "out", map[string]any{"x": "42"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "42", "sub/b.txt": "hi"}, testutil.ReadTree(t, fs, filepath.Join(dir, "out")))
}
