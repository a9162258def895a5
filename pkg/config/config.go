package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/doppel/pkg/engines"
	"github.com/arthur-debert/doppel/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// EnvPrefix prefixes the environment variables read into the configuration.
const EnvPrefix = "DOPPEL_"

// FileNames are the config files looked up in the working directory, in
// order. The first one found is used.
var FileNames = []string{".doppel.toml", "doppel.toml", ".doppel.yaml", ".doppel.yml"}

// Config is the resolved doppel configuration.
type Config struct {
	Engine    string         `koanf:"engine"`
	Extension string         `koanf:"extension"`
	Jobs      int            `koanf:"jobs"`
	Sync      bool           `koanf:"sync"`
	Data      string         `koanf:"data"`
	Log       LogConfig      `koanf:"log"`
	Values    map[string]any `koanf:"values"`
}

// LogConfig configures the log file.
type LogConfig struct {
	File string `koanf:"file"`
}

// LoadOptions selects the sources layered over the embedded defaults.
type LoadOptions struct {
	// Path is an explicit config file. It must exist.
	Path string

	// Dir is searched for FileNames when Path is empty.
	Dir string

	// Overrides are applied last, keyed by dotted config key. The CLI passes
	// the flags the user actually set.
	Overrides map[string]any
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("not implemented")
}

// Default returns the embedded defaults alone.
func Default() (*Config, error) {
	return Load(LoadOptions{})
}

// Load builds the configuration from, in increasing precedence: embedded
// defaults, the config file, DOPPEL_* environment variables and overrides.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Config file
	path, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail("path", path)
		}
	}

	// 3. Environment
	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no run can use.
func (c *Config) Validate() error {
	if c.Jobs < 1 {
		return errors.Newf(errors.ErrInvalidInput, "jobs must be at least 1, got %d", c.Jobs).
			WithDetail("jobs", c.Jobs)
	}
	return nil
}

// EngineOptions returns the engine options implied by the configuration.
func (c *Config) EngineOptions() engines.Options {
	return engines.Options{Extension: c.Extension}
}

func findConfigFile(opts LoadOptions) (string, error) {
	if opts.Path != "" {
		if _, err := os.Stat(opts.Path); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not readable", opts.Path).
				WithDetail("path", opts.Path)
		}
		return opts.Path, nil
	}
	if opts.Dir == "" {
		return "", nil
	}

	for _, name := range FileNames {
		path := filepath.Join(opts.Dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, errors.Newf(errors.ErrConfigLoad, "unsupported config format %q", filepath.Ext(path)).
			WithDetail("path", path)
	}
}
