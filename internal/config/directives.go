package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"gopkg.in/yaml.v3"

	"github.com/muandane/opcachestat/internal/bytecode"
)

var ErrUnsupportedFormat = errors.New("unsupported configuration format")

const directivePrefix = "opcache."

// LoadConfiguration reads the cache tuning parameters from a php.ini style
// file, a YAML file or a JSON dump of opcache_get_configuration(). An empty
// path yields an empty configuration.
func LoadConfiguration(path string) (bytecode.Configuration, error) {
	if path == "" {
		return bytecode.Configuration{}, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		return loadINI(path)
	case ".yaml", ".yml":
		return loadDocument(path, yaml.Unmarshal)
	case ".json":
		return loadDocument(path, json.Unmarshal)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// loadINI collects every opcache.* key regardless of section and wraps them
// the way opcache_get_configuration() reports directives.
func loadINI(path string) (bytecode.Configuration, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:        true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	directives := make(map[string]any)
	for _, section := range file.Sections() {
		for _, key := range section.Keys() {
			if !strings.HasPrefix(key.Name(), directivePrefix) {
				continue
			}
			directives[key.Name()] = directiveValue(key)
		}
	}
	return bytecode.Configuration{"directives": directives}, nil
}

func directiveValue(key *ini.Key) any {
	if v, err := key.Int64(); err == nil {
		return v
	}
	if v, err := key.Bool(); err == nil {
		return v
	}
	return key.String()
}

func loadDocument(path string, unmarshal func([]byte, any) error) (bytecode.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := bytecode.Configuration{}
	if err := unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	for k, v := range cfg {
		cfg[k] = stringKeys(v)
	}
	return cfg, nil
}

// stringKeys rewrites the map[any]any values yaml.v3 produces for mappings
// with non-string keys, so the configuration always encodes as JSON.
func stringKeys(v any) any {
	switch v := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = stringKeys(e)
		}
		return out
	case map[string]any:
		for k, e := range v {
			v[k] = stringKeys(e)
		}
		return v
	case []any:
		for i, e := range v {
			v[i] = stringKeys(e)
		}
		return v
	}
	return v
}
