package jsonini

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations. Parse-time failures wrap
// these sentinels inside a *ParseError so callers can match with errors.Is
// while still receiving source context.
var (
	// ErrInvalidSectionName indicates a section name outside [A-Za-z0-9_-]+.
	ErrInvalidSectionName = errors.New("invalid section name")

	// ErrInvalidOptionName indicates an option name outside [A-Za-z0-9_-]+.
	ErrInvalidOptionName = errors.New("invalid option name")

	// ErrNoSection indicates the named section does not exist.
	ErrNoSection = errors.New("no such section")

	// ErrNoOption indicates the option was not found and no fallback was given.
	ErrNoOption = errors.New("no such option")

	// ErrDuplicateSection indicates a section was declared twice, either via
	// AddSection or within a single parsed source.
	ErrDuplicateSection = errors.New("duplicate section")

	// ErrDuplicateOption indicates an option was defined twice under the same
	// section header within a single parsed source.
	ErrDuplicateOption = errors.New("duplicate option")

	// ErrSyntax indicates input that matches no grammar production.
	ErrSyntax = errors.New("syntax error")

	// ErrMissingSectionHeader indicates an option line before the first
	// section header of a source.
	ErrMissingSectionHeader = errors.New("option before first section header")

	// ErrDefaultSection indicates an attempt to add, remove, or delete the
	// reserved default section.
	ErrDefaultSection = errors.New("cannot modify the default section")

	// ErrTypeMismatch indicates a typed accessor found a value of the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// ParseError reports a failure while parsing a configuration source. It
// carries the source name, the 1-based line number, and the offending line
// text. The underlying cause wraps one of the sentinel errors above.
type ParseError struct {
	// Source is the file name, or a placeholder like "<string>".
	Source string
	// Line is the 1-based line number where the error occurred.
	Line int
	// Text is the raw text of the offending line.
	Text string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("parse error in %s at line %d: %v: %q", e.Source, e.Line, e.Err, e.Text)
	}
	return fmt.Sprintf("parse error in %s at line %d: %v", e.Source, e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// TypeError is returned by typed accessors when a value exists but has an
// unexpected type.
type TypeError struct {
	// Section is the section that was queried.
	Section string
	// Option is the option that was queried.
	Option string
	// Expected is the expected type name.
	Expected string
	// Actual is the actual type name.
	Actual string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("type error for %s.%s: expected %s, got %s", e.Section, e.Option, e.Expected, e.Actual)
}

// Is implements error matching for TypeError.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}
