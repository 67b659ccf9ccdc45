package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix prefixes the environment variables read by Load.
const DefaultEnvPrefix = "SCRIVENER"

// Loader reads layered configuration.
type Loader struct {
	// Paths are read in order; later files override earlier ones. Missing
	// files are skipped.
	Paths []string

	// EnvPrefix selects the environment variables of the top layer. A
	// variable PREFIX_SECTION_KEY sets key of section, such as
	// SCRIVENER_VIEWPORT_GAP_MARGIN. Empty disables the layer.
	EnvPrefix string

	// Environ returns the environment. Defaults to os.Environ.
	Environ func() []string
}

// Load reads the defaults overridden by paths and the SCRIVENER
// environment variables, and validates the result.
func Load(paths ...string) (Config, error) {
	l := Loader{Paths: paths, EnvPrefix: DefaultEnvPrefix}
	return l.Load()
}

// Load merges every layer and validates the result.
func (l *Loader) Load() (Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}
	for _, path := range l.Paths {
		layer, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		merged = DeepMerge(merged, layer)
	}
	if l.EnvPrefix != "" {
		environ := l.Environ
		if environ == nil {
			environ = os.Environ
		}
		merged = DeepMerge(merged, envLayer(l.EnvPrefix, environ()))
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile parses the file at path by extension. A missing file yields
// no layer.
func loadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var layer map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &layer)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &layer)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return layer, nil
}

func toMap(cfg Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}

// fromMap decodes a merged layer map, rejecting keys Config does not know.
func fromMap(m map[string]any) (Config, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return Config{}, fmt.Errorf("encoding merged config: %w", err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, &ParseError{Path: "<merged>", Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// envLayer converts PREFIX_SECTION_KEY=value variables into a layer.
// Values are parsed as YAML scalars, so numbers and booleans keep their
// type.
func envLayer(prefix string, environ []string) map[string]any {
	layer := make(map[string]any)
	prefix = strings.ToUpper(prefix) + "_"
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(name[len(prefix):]), "_")
		if !ok || section == "" || key == "" {
			continue
		}
		var v any
		if err := yaml.Unmarshal([]byte(value), &v); err != nil || v == nil {
			v = value
		}
		SetByPath(layer, section+"."+key, v)
	}
	return layer
}
