// Package jsonini parses INI-style configuration whose values are JSON
// literals.
//
// The text format uses [section] headers, # comments, and option lines of
// the form name = <json-value>, where the value is any JSON literal:
//
//	# server settings
//	[server]
//	host = "localhost"
//	port = 8080
//	tls = false
//	backends = ["a", "b"]   # arrays and objects work too
//
// Section and option names match [A-Za-z0-9_-]+. Values keep the exact
// type JSON decoding produces; there is no string coercion.
//
// # Layered lookup
//
// A Config owns a reserved default section (named "DEFAULT" unless changed
// with WithDefaultSection) plus named sections layered over it. Get
// resolves, in order: per-call overrides (WithOverrides), the section's
// own entries, then the defaults. Iteration order is insertion order for
// sections and for options within a section.
//
// # Usage
//
// Parse text and read values:
//
//	cfg := jsonini.New()
//	if err := cfg.LoadString(text); err != nil {
//	    var perr *jsonini.ParseError
//	    if errors.As(err, &perr) {
//	        log.Fatalf("%s:%d: %v", perr.Source, perr.Line, perr.Err)
//	    }
//	    log.Fatal(err)
//	}
//	host, err := cfg.GetString("server", "host")
//
// Load several files in order, skipping ones that do not exist; later
// files override earlier ones, but a section or option may not repeat
// within a single file:
//
//	err := cfg.LoadFiles([]string{systemPath, userPath})
//
// For shared access, source layering (TOML, environment overrides), change
// notification, and live reload, use Manager. The Config store itself does
// no locking; it assumes a single writer.
package jsonini
