package jsonini

import "fmt"

// Typed accessors convert decoded JSON values on the way out. JSON numbers
// decode as float64, so the integer accessors accept float64 alongside the
// int variants produced by LoadMap input. A value of the wrong type returns
// a *TypeError matching ErrTypeMismatch.

// GetString returns a string option value.
func (c *Config) GetString(section, option string, opts ...LookupOption) (string, error) {
	val, err := c.Get(section, option, opts...)
	if err != nil {
		return "", err
	}
	s, ok := val.(string)
	if !ok {
		return "", typeErr(section, option, "string", val)
	}
	return s, nil
}

// GetBool returns a boolean option value.
func (c *Config) GetBool(section, option string, opts ...LookupOption) (bool, error) {
	val, err := c.Get(section, option, opts...)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, typeErr(section, option, "bool", val)
	}
	return b, nil
}

// GetInt returns an integer option value.
func (c *Config) GetInt(section, option string, opts ...LookupOption) (int, error) {
	v, err := c.GetInt64(section, option, opts...)
	return int(v), err
}

// GetInt64 returns an integer option value as int64.
func (c *Config) GetInt64(section, option string, opts ...LookupOption) (int64, error) {
	val, err := c.Get(section, option, opts...)
	if err != nil {
		return 0, err
	}
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, typeErr(section, option, "integer", val)
		}
		return int64(v), nil
	default:
		return 0, typeErr(section, option, "integer", val)
	}
}

// GetFloat returns a numeric option value as float64.
func (c *Config) GetFloat(section, option string, opts ...LookupOption) (float64, error) {
	val, err := c.Get(section, option, opts...)
	if err != nil {
		return 0, err
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, typeErr(section, option, "number", val)
	}
}

// GetStringSlice returns an array option value whose elements are all
// strings.
func (c *Config) GetStringSlice(section, option string, opts ...LookupOption) ([]string, error) {
	val, err := c.Get(section, option, opts...)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, typeErr(section, option, "[]string", val)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, typeErr(section, option, "[]string", val)
	}
}

// GetMap returns an object option value.
func (c *Config) GetMap(section, option string, opts ...LookupOption) (map[string]any, error) {
	val, err := c.Get(section, option, opts...)
	if err != nil {
		return nil, err
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil, typeErr(section, option, "object", val)
	}
	return m, nil
}

// GetString returns a string option value from the view's section.
func (s *SectionView) GetString(option string, opts ...LookupOption) (string, error) {
	return s.config.GetString(s.name, option, opts...)
}

// GetBool returns a boolean option value from the view's section.
func (s *SectionView) GetBool(option string, opts ...LookupOption) (bool, error) {
	return s.config.GetBool(s.name, option, opts...)
}

// GetInt returns an integer option value from the view's section.
func (s *SectionView) GetInt(option string, opts ...LookupOption) (int, error) {
	return s.config.GetInt(s.name, option, opts...)
}

// GetFloat returns a numeric option value from the view's section.
func (s *SectionView) GetFloat(option string, opts ...LookupOption) (float64, error) {
	return s.config.GetFloat(s.name, option, opts...)
}

// GetStringSlice returns a string-array option value from the view's section.
func (s *SectionView) GetStringSlice(option string, opts ...LookupOption) ([]string, error) {
	return s.config.GetStringSlice(s.name, option, opts...)
}

// GetMap returns an object option value from the view's section.
func (s *SectionView) GetMap(option string, opts ...LookupOption) (map[string]any, error) {
	return s.config.GetMap(s.name, option, opts...)
}

func typeErr(section, option, expected string, val any) error {
	return &TypeError{
		Section:  section,
		Option:   option,
		Expected: expected,
		Actual:   fmt.Sprintf("%T", val),
	}
}
