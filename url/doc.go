// Package url implements URL parsing and serialization as defined by the WHATWG URL Standard.
//
// [ParseInto] is the state machine. It turns text and an optional base [Record] into a Record,
// or updates a single part of an existing Record when it runs with a state override.
// [Record.RenderTo] serializes a record back into canonical text, parsing that text again
// yields the same record.
//
// [URL] wraps a Record with the accessors of the WHATWG URL API:
//
//	u, err := url.ParseWithBase("../a?b#c", "http://example.com/x/y/z")
//	if err != nil {
//		return err
//	}
//	u.Href()     // "http://example.com/x/a?b#c"
//	u.Pathname() // "/x/a"
//	u.SetPort("8080")
//	u.Host()     // "example.com:8080"
//
// Setters other than [URL.SetHref] never fail. Input the standard rejects for a component
// leaves the URL unchanged.
package url

//go:generate go tool errtrace -w .
