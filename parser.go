package jsonini

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/jsonini/loader"
)

// LoadString parses configuration text into the Config.
func (c *Config) LoadString(src string) error {
	return c.parse(src, "<string>")
}

// LoadReader reads and parses configuration text from r. The name is used
// in diagnostics.
func (c *Config) LoadReader(r io.Reader, name string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return c.parse(string(data), name)
}

// LoadFile reads and parses a configuration file. Unlike LoadFiles, an
// unreadable file is an error.
func (c *Config) LoadFile(path string, opts ...loader.ReadOption) error {
	text, err := loader.ReadText(path, opts...)
	if err != nil {
		return err
	}
	return c.parse(text, path)
}

// LoadFiles parses each file in order into the Config. Files that cannot
// be opened are skipped so a missing user config does not abort the batch;
// grammar and model errors propagate immediately and may leave the Config
// holding entries already applied from the failing source.
func (c *Config) LoadFiles(paths []string, opts ...loader.ReadOption) error {
	for _, path := range paths {
		err := c.LoadFile(path, opts...)
		if err == nil {
			continue
		}
		var openErr *loader.OpenError
		if errors.As(err, &openErr) {
			continue
		}
		return err
	}
	return nil
}

// parser walks a raw text buffer by offset, producing section and option
// writes against a Config. Duplicate tracking is scoped to one parse call:
// the same section may be re-opened by a later source but not twice within
// this one.
type parser struct {
	cfg    *Config
	src    string
	source string

	idx  int
	line int

	sectionsSeen map[string]bool
	optionsSeen  map[string]bool
	current      *ordmap
	currentName  string
}

func (c *Config) parse(src, source string) error {
	p := &parser{
		cfg:          c,
		src:          src,
		source:       source,
		line:         1,
		sectionsSeen: make(map[string]bool),
	}
	return p.run()
}

func (p *parser) run() error {
	for p.idx < len(p.src) {
		switch p.src[p.idx] {
		case '[':
			if err := p.scanHeader(); err != nil {
				return err
			}
		case '#', '\n', '\r':
			p.scanBlank()
		default:
			if err := p.scanOption(); err != nil {
				return err
			}
		}
	}
	return nil
}

// scanHeader consumes "[name]" followed by line terminators or end of
// input, opens the section context, and resolves the backing layer.
func (p *parser) scanHeader() error {
	at := p.idx
	p.idx++ // '['
	start := p.idx
	for p.idx < len(p.src) && isNameByte(p.src[p.idx]) {
		p.idx++
	}
	name := p.src[start:p.idx]
	if name == "" || p.idx >= len(p.src) || p.src[p.idx] != ']' {
		return p.fail(at, fmt.Errorf("%w: malformed section header", ErrSyntax))
	}
	p.idx++ // ']'
	if !p.atEOL() {
		return p.fail(at, fmt.Errorf("%w: unexpected text after section header", ErrSyntax))
	}
	if p.sectionsSeen[name] {
		return p.fail(at, fmt.Errorf("%w: %q", ErrDuplicateSection, name))
	}
	p.consumeEOL()
	p.sectionsSeen[name] = true
	p.optionsSeen = make(map[string]bool)
	p.currentName = name

	switch {
	case name == p.cfg.defaultName:
		p.current = p.cfg.defaults
	case p.cfg.HasSection(name):
		p.current = p.cfg.sections[name]
	default:
		p.current = p.cfg.createSection(name)
	}
	return nil
}

// scanBlank consumes an optional "#" comment and the following run of line
// terminators.
func (p *parser) scanBlank() {
	if p.idx < len(p.src) && p.src[p.idx] == '#' {
		for p.idx < len(p.src) && p.src[p.idx] != '\n' && p.src[p.idx] != '\r' {
			p.idx++
		}
	}
	p.consumeEOL()
}

// scanOption consumes "key = <json-value>" with an optional trailing
// comment, then applies the decoded value to the current section.
func (p *parser) scanOption() error {
	at := p.idx
	start := p.idx
	for p.idx < len(p.src) && isNameByte(p.src[p.idx]) {
		p.idx++
	}
	key := p.src[start:p.idx]
	if key == "" {
		return p.fail(at, fmt.Errorf("%w: expected section, option, comment or empty line", ErrSyntax))
	}
	p.skipSpaces()
	if p.idx >= len(p.src) || p.src[p.idx] != '=' {
		return p.fail(at, fmt.Errorf("%w: expected '=' after option name %q", ErrSyntax, key))
	}
	p.idx++
	p.skipSpaces()

	if p.current == nil {
		return p.fail(at, fmt.Errorf("%w: %q", ErrMissingSectionHeader, key))
	}
	if p.optionsSeen[key] {
		return p.fail(at, fmt.Errorf("%w: %q in section %q", ErrDuplicateOption, key, p.currentName))
	}
	p.optionsSeen[key] = true

	value, consumed, err := decodeValue(p.src[p.idx:])
	if err != nil {
		return p.fail(at, fmt.Errorf("%w: invalid JSON value for option %q: %v", ErrSyntax, key, err))
	}
	p.line += strings.Count(p.src[p.idx:p.idx+consumed], "\n")
	p.idx += consumed

	// Applied before the trailing check: a failure past this point still
	// leaves the entry in place, which callers observe as partial state.
	p.current.set(key, value)

	p.skipSpaces()
	if p.idx < len(p.src) && p.src[p.idx] == '#' {
		for p.idx < len(p.src) && p.src[p.idx] != '\n' && p.src[p.idx] != '\r' {
			p.idx++
		}
	}
	if !p.atEOL() {
		return p.fail(at, fmt.Errorf("%w: unexpected text after value of option %q", ErrSyntax, key))
	}
	p.consumeEOL()
	return nil
}

// decodeValue decodes one JSON value at the start of s and returns the
// decoded value with the number of bytes consumed.
func decodeValue(s string) (any, int, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, 0, err
	}
	return v, int(dec.InputOffset()), nil
}

// atEOL reports whether the scan position sits on a line terminator or the
// end of input.
func (p *parser) atEOL() bool {
	return p.idx >= len(p.src) || p.src[p.idx] == '\n' || p.src[p.idx] == '\r'
}

// consumeEOL consumes a run of line terminators, counting lines. A "\r\n"
// pair and a bare "\r" each count as one line.
func (p *parser) consumeEOL() {
	for p.idx < len(p.src) && (p.src[p.idx] == '\n' || p.src[p.idx] == '\r') {
		if p.src[p.idx] == '\r' && p.idx+1 < len(p.src) && p.src[p.idx+1] == '\n' {
			p.idx++
		}
		p.idx++
		p.line++
	}
}

// skipSpaces consumes horizontal whitespace.
func (p *parser) skipSpaces() {
	for p.idx < len(p.src) && (p.src[p.idx] == ' ' || p.src[p.idx] == '\t') {
		p.idx++
	}
}

// fail wraps err with the source name, current line number, and the text
// of the line containing position at.
func (p *parser) fail(at int, err error) error {
	return &ParseError{
		Source: p.source,
		Line:   p.line,
		Text:   p.lineTextAt(at),
		Err:    err,
	}
}

// lineTextAt returns the full text of the line containing position at.
func (p *parser) lineTextAt(at int) string {
	if at > len(p.src) {
		at = len(p.src)
	}
	start := strings.LastIndexAny(p.src[:at], "\r\n") + 1
	rel := strings.IndexAny(p.src[start:], "\r\n")
	if rel < 0 {
		return p.src[start:]
	}
	return p.src[start : start+rel]
}

func isNameByte(b byte) bool {
	return b == '-' || b == '_' ||
		('0' <= b && b <= '9') ||
		('A' <= b && b <= 'Z') ||
		('a' <= b && b <= 'z')
}
