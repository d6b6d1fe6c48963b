package loader

import (
	"fmt"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ReadOption configures a ReadText call.
type ReadOption func(*readConfig)

type readConfig struct {
	fsys     FileSystem
	encoding string
}

// WithFileSystem substitutes the file system used to read the file.
func WithFileSystem(fsys FileSystem) ReadOption {
	return func(cfg *readConfig) {
		if fsys != nil {
			cfg.fsys = fsys
		}
	}
}

// WithEncoding selects the text encoding the file is decoded with. Names
// follow the IANA/WHATWG registry ("latin1", "windows-1252", "shift_jis",
// ...). An empty name reads the bytes as UTF-8.
func WithEncoding(name string) ReadOption {
	return func(cfg *readConfig) {
		cfg.encoding = name
	}
}

// ReadText reads a configuration file and returns its content as UTF-8
// text. A file that cannot be read returns an *OpenError; an unknown
// encoding name or undecodable content is a hard error.
func ReadText(path string, opts ...ReadOption) (string, error) {
	cfg := readConfig{fsys: DefaultFS()}
	for _, opt := range opts {
		opt(&cfg)
	}

	data, err := cfg.fsys.ReadFile(path)
	if err != nil {
		return "", &OpenError{Path: path, Err: err}
	}
	if cfg.encoding == "" {
		return string(data), nil
	}

	enc, err := htmlindex.Get(cfg.encoding)
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", cfg.encoding, err)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decoding %s as %s: %w", path, cfg.encoding, err)
	}
	return string(decoded), nil
}
