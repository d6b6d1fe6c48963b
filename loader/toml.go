package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TOMLLoader loads a TOML file as configuration sections. Top-level tables
// become sections; top-level scalars are collected under the empty section
// name, which Config.LoadMap routes to the defaults.
type TOMLLoader struct {
	fsys FileSystem
	path string
}

// NewTOMLLoader creates a TOML loader for the given path.
func NewTOMLLoader(path string) *TOMLLoader {
	return &TOMLLoader{fsys: DefaultFS(), path: path}
}

// NewTOMLLoaderWithFS creates a TOML loader with a custom file system.
func NewTOMLLoaderWithFS(fsys FileSystem, path string) *TOMLLoader {
	return &TOMLLoader{fsys: fsys, path: path}
}

// Load reads configuration from the configured path. A missing file
// returns nil, nil.
func (l *TOMLLoader) Load() (map[string]map[string]any, error) {
	return l.LoadFrom(l.path)
}

// LoadFrom reads configuration from the given path instead of the
// configured one. A missing file returns nil, nil.
func (l *TOMLLoader) LoadFrom(path string) (map[string]map[string]any, error) {
	data, err := l.fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &OpenError{Path: path, Err: err}
	}
	return l.parse(path, data)
}

// LoadFromReader reads configuration from an io.Reader.
func (l *TOMLLoader) LoadFromReader(r io.Reader) (map[string]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return l.parse("<reader>", data)
}

// parse unmarshals TOML data and splits it into sections.
func (l *TOMLLoader) parse(source string, data []byte) (map[string]map[string]any, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}

	out := make(map[string]map[string]any)
	for key, val := range raw {
		if table, ok := val.(map[string]any); ok {
			out[key] = table
			continue
		}
		if out[""] == nil {
			out[""] = make(map[string]any)
		}
		out[""][key] = val
	}
	return out, nil
}
