package jsonini

import (
	"fmt"
	"regexp"
	"sort"
)

// DefaultSectionName is the reserved section whose entries are visible as
// fallback values from every other section.
const DefaultSectionName = "DEFAULT"

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// validName reports whether s is a legal section or option name.
func validName(s string) bool {
	return nameRE.MatchString(s)
}

// Config is an in-memory configuration: a default section plus named
// sections layered over it. Sections and options iterate in insertion
// order. Config performs no internal locking; callers that share one
// across goroutines must synchronize externally (see Manager).
type Config struct {
	defaultName string
	defaults    *ordmap
	sections    map[string]*ordmap
	order       []string
}

// Option configures a Config on construction.
type Option func(*Config)

// WithDefaultSection changes the name of the reserved default section.
// The name must match [A-Za-z0-9_-]+; an invalid name panics.
func WithDefaultSection(name string) Option {
	return func(c *Config) {
		if !validName(name) {
			panic(fmt.Errorf("%w: %q", ErrInvalidSectionName, name))
		}
		c.defaultName = name
	}
}

// WithDefaults seeds the default section. Option names must match
// [A-Za-z0-9_-]+; an invalid name panics. Entries are applied in sorted
// key order.
func WithDefaults(defaults map[string]any) Option {
	return func(c *Config) {
		for _, k := range sortedKeys(defaults) {
			if err := c.Set(c.defaultName, k, defaults[k]); err != nil {
				panic(err)
			}
		}
	}
}

// New creates an empty Config.
func New(opts ...Option) *Config {
	c := &Config{
		defaultName: DefaultSectionName,
		defaults:    newOrdmap(),
		sections:    make(map[string]*ordmap),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// DefaultSection returns the name of the reserved default section.
func (c *Config) DefaultSection() string {
	return c.defaultName
}

// AddSection creates a new empty section layered over the defaults.
// Returns ErrDefaultSection for the default name, ErrInvalidSectionName
// for a name outside the allowed charset, and ErrDuplicateSection if the
// section already exists.
func (c *Config) AddSection(name string) error {
	if name == c.defaultName {
		return fmt.Errorf("%w: %q", ErrDefaultSection, name)
	}
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSectionName, name)
	}
	if _, ok := c.sections[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSection, name)
	}
	c.createSection(name)
	return nil
}

// createSection adds a section without validation. Callers must have
// checked the name first.
func (c *Config) createSection(name string) *ordmap {
	sect := newOrdmap()
	c.sections[name] = sect
	c.order = append(c.order, name)
	return sect
}

// HasSection reports whether the named section exists. The default section
// is not reported; it is always implicitly present.
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// RemoveSection deletes a section and reports whether it existed.
// Removing the default section fails with ErrDefaultSection.
func (c *Config) RemoveSection(name string) (bool, error) {
	if name == c.defaultName {
		return false, fmt.Errorf("%w: %q", ErrDefaultSection, name)
	}
	if _, ok := c.sections[name]; !ok {
		return false, nil
	}
	delete(c.sections, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Sections returns the section names in creation order, excluding the
// default section.
func (c *Config) Sections() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Names returns every section name: the default section first, then the
// remaining sections in creation order.
func (c *Config) Names() []string {
	out := make([]string, 0, len(c.order)+1)
	out = append(out, c.defaultName)
	out = append(out, c.order...)
	return out
}

// Len returns the number of sections including the default section.
func (c *Config) Len() int {
	return len(c.order) + 1
}

// LookupOption adjusts a single Get call.
type LookupOption func(*lookup)

type lookup struct {
	fallback    any
	hasFallback bool
	overrides   map[string]any
}

// WithFallback supplies a value returned when the option is not found
// anywhere. A nil fallback is a valid fallback.
func WithFallback(v any) LookupOption {
	return func(l *lookup) {
		l.fallback = v
		l.hasFallback = true
	}
}

// WithOverrides supplies per-call values checked before the section's own
// entries and the defaults.
func WithOverrides(vars map[string]any) LookupOption {
	return func(l *lookup) {
		l.overrides = vars
	}
}

// Get resolves an option value. Resolution order: per-call overrides, the
// section's own entries, then the defaults; the first hit wins. A missing
// section fails with ErrNoSection. A miss with no fallback fails with
// ErrNoOption; a supplied fallback is returned instead.
func (c *Config) Get(section, option string, opts ...LookupOption) (any, error) {
	var l lookup
	for _, opt := range opts {
		opt(&l)
	}

	var own *ordmap
	switch {
	case section == c.defaultName:
		own = c.defaults
	default:
		sect, ok := c.sections[section]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoSection, section)
		}
		own = sect
	}

	if l.overrides != nil {
		if v, ok := l.overrides[option]; ok {
			return v, nil
		}
	}
	if v, ok := own.get(option); ok {
		return v, nil
	}
	if own != c.defaults {
		if v, ok := c.defaults.get(option); ok {
			return v, nil
		}
	}
	if l.hasFallback {
		return l.fallback, nil
	}
	return nil, fmt.Errorf("%w: %q in section %q", ErrNoOption, option, section)
}

// Set stores a value. An empty section name or the default section name
// writes into the defaults; any other section must already exist.
func (c *Config) Set(section, option string, value any) error {
	if !validName(option) {
		return fmt.Errorf("%w: %q", ErrInvalidOptionName, option)
	}
	target, err := c.writeTarget(section)
	if err != nil {
		return err
	}
	target.set(option, value)
	return nil
}

// writeTarget resolves the layer a write to section lands in.
func (c *Config) writeTarget(section string) (*ordmap, error) {
	if section == "" || section == c.defaultName {
		return c.defaults, nil
	}
	sect, ok := c.sections[section]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSection, section)
	}
	return sect, nil
}

// HasOption reports whether the option is visible from the section, either
// in its own entries or in the defaults. A missing section reports false
// rather than an error.
func (c *Config) HasOption(section, option string) bool {
	if section == "" || section == c.defaultName {
		return c.defaults.has(option)
	}
	sect, ok := c.sections[section]
	if !ok {
		return false
	}
	return sect.has(option) || c.defaults.has(option)
}

// Options returns every option name visible from the section: its own keys
// in insertion order, then defaults-only keys in the defaults' insertion
// order. Fails with ErrNoSection if the section does not exist.
func (c *Config) Options(section string) ([]string, error) {
	if section == "" || section == c.defaultName {
		return c.defaults.keyOrder(), nil
	}
	sect, ok := c.sections[section]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSection, section)
	}
	out := sect.keyOrder()
	for _, k := range c.defaults.keyOrder() {
		if !sect.has(k) {
			out = append(out, k)
		}
	}
	return out, nil
}

// RemoveOption deletes an option from the section's own entries and reports
// whether it was present there. Defaults-layer entries visible through the
// section are not touched. An empty or default section name targets the
// defaults; any other section must exist.
func (c *Config) RemoveOption(section, option string) (bool, error) {
	target, err := c.writeTarget(section)
	if err != nil {
		return false, err
	}
	return target.delete(option), nil
}

// Section returns a view over the named section or the defaults.
// Fails with ErrNoSection for any other name that does not exist.
func (c *Config) Section(name string) (*SectionView, error) {
	if name != c.defaultName && !c.HasSection(name) {
		return nil, fmt.Errorf("%w: %q", ErrNoSection, name)
	}
	return &SectionView{config: c, name: name}, nil
}

// SetSection replaces a section's own entries with the supplied mapping.
// The default name clears and refills the defaults. A section that does
// not exist yet is created. Entries are applied in sorted key order.
func (c *Config) SetSection(name string, values map[string]any) error {
	var target *ordmap
	switch {
	case name == c.defaultName:
		target = c.defaults
	case c.HasSection(name):
		target = c.sections[name]
	default:
		if !validName(name) {
			return fmt.Errorf("%w: %q", ErrInvalidSectionName, name)
		}
		target = c.createSection(name)
	}
	target.clear()
	for _, k := range sortedKeys(values) {
		if !validName(k) {
			return fmt.Errorf("%w: %q", ErrInvalidOptionName, k)
		}
		target.set(k, values[k])
	}
	return nil
}

// DeleteSection removes a section. Deleting the default section fails with
// ErrDefaultSection; a missing section fails with ErrNoSection.
func (c *Config) DeleteSection(name string) error {
	if name == c.defaultName {
		return fmt.Errorf("%w: %q", ErrDefaultSection, name)
	}
	existed, err := c.RemoveSection(name)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %q", ErrNoSection, name)
	}
	return nil
}

// LoadMap applies a nested section -> option -> value mapping through the
// normal Set rules. Absent sections are created; the default section name
// or an empty name targets the defaults. Sections already present are
// merged into, matching the cross-source semantics of text loading.
// Sections and options are applied in sorted order so repeated loads are
// deterministic.
func (c *Config) LoadMap(data map[string]map[string]any) error {
	for _, name := range sortedKeys(data) {
		if name != "" && name != c.defaultName && !c.HasSection(name) {
			if !validName(name) {
				return fmt.Errorf("%w: %q", ErrInvalidSectionName, name)
			}
			c.createSection(name)
		}
		values := data[name]
		for _, k := range sortedKeys(values) {
			if err := c.Set(name, k, values[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// sortedKeys returns the map's keys in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
