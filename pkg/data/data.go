// Package data loads the values templates are compiled with.
package data

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/doppel/pkg/errors"
)

// Load reads a data file and decodes it by extension: .json, .yaml, .yml or
// .toml. The top level must be a mapping.
func Load(fs afero.Fs, path string) (map[string]any, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDataLoad, "failed to read data file %s", path).
			WithDetail("path", path)
	}

	values := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(content, &values)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &values)
	case ".toml":
		err = toml.Unmarshal(content, &values)
	default:
		return nil, errors.Newf(errors.ErrDataLoad, "unsupported data format %q", ext).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDataLoad, "failed to parse data file %s", path).
			WithDetail("path", path)
	}

	return values, nil
}

// ParseAssignments turns key=value pairs into a value map. Dotted keys
// address nested maps, so "site.title=Home" yields {site: {title: Home}}.
func ParseAssignments(assignments []string) (map[string]any, error) {
	values := map[string]any{}
	for _, assignment := range assignments {
		key, value, ok := strings.Cut(assignment, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, "invalid assignment %q, expected key=value", assignment)
		}
		if err := set(values, strings.Split(key, "."), value); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func set(values map[string]any, keys []string, value any) error {
	for i, key := range keys[:len(keys)-1] {
		next, ok := values[key].(map[string]any)
		if !ok {
			if _, exists := values[key]; exists {
				return errors.Newf(errors.ErrInvalidInput, "%s is not a map",
					strings.Join(keys[:i+1], "."))
			}
			next = map[string]any{}
			values[key] = next
		}
		values = next
	}
	values[keys[len(keys)-1]] = value
	return nil
}

// Merge returns dst with src merged over it. Nested maps merge key by key;
// any other src value replaces the dst value. dst is modified in place.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for key, srcVal := range src {
		if srcMap, ok := srcVal.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				dst[key] = Merge(dstMap, srcMap)
				continue
			}
		}
		dst[key] = srcVal
	}
	return dst
}
