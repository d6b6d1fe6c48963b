package loader

import (
	"encoding/json"
	"os"
	"strings"
)

// EnvLoader loads configuration overrides from environment variables.
//
// Variables are named <prefix><SECTION>_<OPTION>; the first underscore
// after the prefix splits section from option, and both are lowercased.
// A variable with no underscore after the prefix targets the defaults.
// Values are decoded as JSON literals when possible and fall back to the
// raw string, so JSONINI_SERVER_PORT=8080 yields the number 8080 while
// JSONINI_SERVER_HOST=localhost yields the string "localhost".
type EnvLoader struct {
	prefix string
}

// NewEnvLoader creates an environment loader. The prefix should include
// the trailing underscore (e.g. "JSONINI_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix}
}

// Load scans the environment and returns the matching sections. An empty
// environment returns an empty, non-nil map.
func (l *EnvLoader) Load() (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	if l.prefix == "" {
		return out, nil
	}

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		rest := name[len(l.prefix):]
		if rest == "" {
			continue
		}

		section, option, ok := strings.Cut(rest, "_")
		if !ok {
			section, option = "", rest
		}
		section = strings.ToLower(section)
		option = strings.ToLower(option)
		if option == "" {
			continue
		}

		if out[section] == nil {
			out[section] = make(map[string]any)
		}
		out[section][option] = parseValue(value)
	}
	return out, nil
}

// parseValue decodes a JSON literal, falling back to the raw string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
