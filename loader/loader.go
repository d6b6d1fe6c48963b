// Package loader provides configuration sources for jsonini.
//
// The loader package reads raw text for the parser (with optional text
// encoding selection) and converts structured sources (TOML files,
// environment variables) into the nested section/option maps consumed by
// Config.LoadMap.
package loader

import (
	"fmt"
	"os"
)

// Loader is the interface for sources that produce a nested
// section -> option -> value map.
type Loader interface {
	// Load reads the source and returns its sections. A source that does
	// not exist returns nil, nil rather than an error.
	Load() (map[string]map[string]any, error)
}

// FileSystem is an abstraction over file reads so sources can be faked in
// tests.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// OpenError reports a source that could not be opened or read. Batch
// loading treats it as skippable: a missing user config file does not
// abort the remaining sources.
type OpenError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpenError) Unwrap() error {
	return e.Err
}
