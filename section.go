package jsonini

import "fmt"

// SectionView exposes one section (or the defaults) as a stand-alone
// key-value container. It holds only the owning Config and the section
// name; it never outlives or owns the Config. Operations against a view
// whose section has been removed fail with ErrNoSection.
type SectionView struct {
	config *Config
	name   string
}

// Name returns the section name this view is bound to.
func (s *SectionView) Name() string {
	return s.name
}

// Get resolves an option through the store's layered lookup.
func (s *SectionView) Get(option string, opts ...LookupOption) (any, error) {
	return s.config.Get(s.name, option, opts...)
}

// Set writes an option through the store's Set rules.
func (s *SectionView) Set(option string, value any) error {
	return s.config.Set(s.name, option, value)
}

// Delete removes an option from the section's own entries. Fails with
// ErrNoOption if the option is not present there; a defaults-layer entry
// visible through the section cannot be deleted through the view.
func (s *SectionView) Delete(option string) error {
	removed, err := s.config.RemoveOption(s.name, option)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %q in section %q", ErrNoOption, option, s.name)
	}
	return nil
}

// Has reports whether the option is visible from the section.
func (s *SectionView) Has(option string) bool {
	return s.config.HasOption(s.name, option)
}

// Keys returns every option name visible from the section.
func (s *SectionView) Keys() ([]string, error) {
	return s.config.Options(s.name)
}

// Len returns the number of options visible from the section, or 0 if the
// section no longer exists.
func (s *SectionView) Len() int {
	keys, err := s.config.Options(s.name)
	if err != nil {
		return 0
	}
	return len(keys)
}
