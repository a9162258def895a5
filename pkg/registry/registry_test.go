package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/doppel/pkg/errors"
)

func TestNew(t *testing.T) {
	reg := New[string]("engine")

	require.NotNil(t, reg)
	assert.Zero(t, reg.Len())
	assert.Empty(t, reg.Names())
}

func TestAdd(t *testing.T) {
	reg := New[string]("engine")

	require.NoError(t, reg.Add("jst", "first"))
	assert.Equal(t, 1, reg.Len())

	t.Run("empty name", func(t *testing.T) {
		err := reg.Add("", "x")
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "got %v", err)
		assert.Contains(t, err.Error(), "engine name cannot be empty")
	})

	t.Run("duplicate keeps the first item", func(t *testing.T) {
		err := reg.Add("jst", "second")
		assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists), "got %v", err)
		assert.Contains(t, err.Error(), `engine "jst" is already registered`)

		item, _ := reg.Lookup("jst")
		assert.Equal(t, "first", item)
	})
}

func TestSet(t *testing.T) {
	reg := New[string]("engine")
	require.NoError(t, reg.Add("handlebars", "original"))

	require.NoError(t, reg.Set("handlebars", "custom"))
	require.NoError(t, reg.Set("new", "added"))

	item, ok := reg.Lookup("handlebars")
	assert.True(t, ok)
	assert.Equal(t, "custom", item)
	assert.Equal(t, 2, reg.Len())

	err := reg.Set("", "x")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestGet(t *testing.T) {
	reg := New[int]("engine")
	require.NoError(t, reg.Add("b", 2))
	require.NoError(t, reg.Add("a", 1))

	item, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, item)

	item, err = reg.Get("missing")
	assert.Zero(t, item)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound), "got %v", err)
	assert.Equal(t, map[string]interface{}{
		"name":      "missing",
		"available": []string{"a", "b"},
	}, errors.GetErrorDetails(err))
}

func TestRemove(t *testing.T) {
	reg := New[int]("engine")
	require.NoError(t, reg.Add("a", 1))

	assert.True(t, reg.Remove("a"))
	assert.False(t, reg.Remove("a"))
	_, ok := reg.Lookup("a")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	reg := New[bool]("engine")
	for _, name := range []string{"jst", "gotemplate", "handlebars"} {
		require.NoError(t, reg.Add(name, true))
	}

	assert.Equal(t, []string{"gotemplate", "handlebars", "jst"}, reg.Names())
}

func TestClone(t *testing.T) {
	reg := New[string]("engine")
	require.NoError(t, reg.Add("jst", "jst"))

	clone := reg.Clone()
	require.NoError(t, clone.Add("ejs", "ejs"))
	require.NoError(t, reg.Set("jst", "changed"))

	assert.Equal(t, []string{"jst"}, reg.Names())
	assert.Equal(t, []string{"ejs", "jst"}, clone.Names())
	item, _ := clone.Lookup("jst")
	assert.Equal(t, "jst", item)

	err := clone.Add("jst", "again")
	assert.Contains(t, err.Error(), `engine "jst"`)
}

func TestConcurrency(t *testing.T) {
	reg := New[int]("engine")
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("engine-%d", i)
			assert.NoError(t, reg.Add(name, i))
			_, _ = reg.Lookup(name)
			_ = reg.Names()
			_ = reg.Clone()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, reg.Len())
}
