package url

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/ufetch/bytestring"
	"github.com/ghettovoice/ufetch/internal/constraints"
	"github.com/ghettovoice/ufetch/percent"
)

// URL is a parsed URL with the accessor surface of the WHATWG URL API.
//
// Getters are safe for concurrent use. Setters must not run concurrently
// with other methods of the same URL.
type URL struct {
	rec  Record
	opts *ParseOptions
}

// Parse parses an absolute URL.
func Parse[T constraints.Byteseq](s T) (*URL, error) {
	return errtrace.Wrap2(ParseWithOptions(string(s), nil, nil))
}

// ParseWithBase parses s relative to the URL parsed from base.
func ParseWithBase[T constraints.Byteseq](s, base T) (*URL, error) {
	b, err := ParseWithOptions(string(base), nil, nil)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return errtrace.Wrap2(ParseWithOptions(string(s), b, nil))
}

// ParseRef parses s relative to base. A nil base parses s as an absolute URL.
func ParseRef(s string, base *URL) (*URL, error) {
	return errtrace.Wrap2(ParseWithOptions(s, base, nil))
}

// ParseUTF16 parses UTF-16 text relative to an optional base.
// Lone surrogates are replaced with U+FFFD before parsing.
func ParseUTF16(units []uint16, base *URL) (*URL, error) {
	return errtrace.Wrap2(ParseWithOptions(bytestring.EncodeUTF16(units).String(), base, nil))
}

// ParseWithOptions parses s relative to an optional base with the given options.
// The options are kept and reused by the setters of the returned URL.
func ParseWithOptions(s string, base *URL, opts *ParseOptions) (*URL, error) {
	u := &URL{opts: opts}
	var baseRec *Record
	if base != nil {
		baseRec = &base.rec
	}
	if err := ParseInto(&u.rec, s, baseRec, NoOverride, opts); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return u, nil
}

// MustParse is like [Parse] but panics on error.
func MustParse[T constraints.Byteseq](s T) *URL {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// FromRecord returns a URL backed by a copy of rec.
func FromRecord(rec *Record) *URL {
	if rec == nil {
		return nil
	}
	return &URL{rec: *rec.Clone()}
}

// Record returns a copy of the underlying record.
func (u *URL) Record() Record {
	if u == nil {
		return Record{}
	}
	return *u.rec.Clone()
}

// Href returns the serialized URL.
func (u *URL) Href() string {
	if u == nil {
		return ""
	}
	return u.rec.Href(false)
}

// SetHref replaces the URL with the result of parsing s.
// On error the URL is not modified.
func (u *URL) SetHref(s string) error {
	var rec Record
	if err := ParseInto(&rec, s, nil, NoOverride, u.opts); err != nil {
		return errtrace.Wrap(err)
	}
	u.rec = rec
	return nil
}

// Origin returns the serialized origin.
func (u *URL) Origin() string {
	if u == nil {
		return "null"
	}
	return u.rec.Origin()
}

// Protocol returns the scheme followed by ":".
func (u *URL) Protocol() string {
	if u == nil {
		return ""
	}
	return u.rec.Scheme + ":"
}

// SetProtocol changes the scheme. Changes between special and non-special schemes
// are ignored, as are changes to "file" when the URL has credentials or a port.
func (u *URL) SetProtocol(s string) {
	u.update(s+":", StateSchemeStart, nil)
}

// Username returns the percent-encoded username.
func (u *URL) Username() string {
	if u == nil {
		return ""
	}
	return u.rec.Username
}

// SetUsername sets the username. It is ignored when the URL cannot have credentials.
func (u *URL) SetUsername(s string) {
	if u.rec.cannotHaveCredentialsOrPort() {
		return
	}
	u.rec.Username = percent.EncodeAfterEncoding(s, &percent.Userinfo)
}

// Password returns the percent-encoded password.
func (u *URL) Password() string {
	if u == nil {
		return ""
	}
	return u.rec.Password
}

// SetPassword sets the password. It is ignored when the URL cannot have credentials.
func (u *URL) SetPassword(s string) {
	if u.rec.cannotHaveCredentialsOrPort() {
		return
	}
	u.rec.Password = percent.EncodeAfterEncoding(s, &percent.Userinfo)
}

// Host returns the serialized host and port.
func (u *URL) Host() string {
	if u == nil || u.rec.Host.IsZero() {
		return ""
	}
	if !u.rec.HasPort {
		return u.rec.Host.String()
	}
	return u.rec.Host.String() + ":" + portString(u.rec.Port)
}

// SetHost sets the host and optionally the port.
func (u *URL) SetHost(s string) {
	if u.rec.CannotBeABase {
		return
	}
	u.update(s, StateHost, nil)
}

// Hostname returns the serialized host.
func (u *URL) Hostname() string {
	if u == nil {
		return ""
	}
	return u.rec.Host.String()
}

// SetHostname sets the host. Input containing a port is ignored.
func (u *URL) SetHostname(s string) {
	if u.rec.CannotBeABase {
		return
	}
	u.update(s, StateHostname, nil)
}

// Port returns the port in decimal or an empty string.
func (u *URL) Port() string {
	if u == nil || !u.rec.HasPort {
		return ""
	}
	return portString(u.rec.Port)
}

// PortNumber returns the explicit port or the default port of the scheme.
func (u *URL) PortNumber() (uint16, bool) {
	if u == nil {
		return 0, false
	}
	if u.rec.HasPort {
		return u.rec.Port, true
	}
	return DefaultPort(u.rec.Scheme)
}

// SetPort sets the port. An empty string removes it.
// It is ignored when the URL cannot have a port.
func (u *URL) SetPort(s string) {
	if u.rec.cannotHaveCredentialsOrPort() {
		return
	}
	if s == "" {
		u.rec.Port, u.rec.HasPort = 0, false
		return
	}
	u.update(s, StatePort, nil)
}

// Pathname returns the serialized path.
func (u *URL) Pathname() string {
	if u == nil {
		return ""
	}
	return u.rec.Pathname()
}

// SetPathname replaces the path. It is ignored for cannot-be-a-base URLs.
func (u *URL) SetPathname(s string) {
	if u.rec.CannotBeABase {
		return
	}
	u.update(s, StatePathStart, func(r *Record) { r.Path = nil })
}

// Search returns "?" followed by the query, or an empty string for an empty or absent query.
func (u *URL) Search() string {
	if u == nil || !u.rec.HasQuery || u.rec.Query == "" {
		return ""
	}
	return "?" + u.rec.Query
}

// SetSearch replaces the query. An empty string removes it, a leading "?" is ignored.
func (u *URL) SetSearch(s string) {
	if s == "" {
		u.rec.clearQuery()
		return
	}
	s = strings.TrimPrefix(s, "?")
	u.update(s, StateQuery, func(r *Record) { r.setQuery("") })
}

// Hash returns "#" followed by the fragment, or an empty string.
func (u *URL) Hash() string {
	if u == nil || u.rec.Fragment == "" {
		return ""
	}
	return "#" + u.rec.Fragment
}

// SetHash replaces the fragment. An empty string removes it, a leading "#" is ignored.
func (u *URL) SetHash(s string) {
	if s == "" {
		u.rec.Fragment = ""
		return
	}
	s = strings.TrimPrefix(s, "#")
	u.update(s, StateFragment, func(r *Record) { r.Fragment = "" })
}

// update parses s with a state override into a copy of the record
// and commits the copy only when parsing succeeds.
func (u *URL) update(s string, override State, prepare func(r *Record)) {
	scratch := u.rec.Clone()
	if prepare != nil {
		prepare(scratch)
	}
	if err := ParseInto(scratch, s, nil, override, u.opts); err != nil {
		return
	}
	u.rec = *scratch
}

// ToJSON returns the serialized URL.
func (u *URL) ToJSON() string { return u.Href() }

// IsValid reports whether u holds a parsed URL.
func (u *URL) IsValid() bool { return u != nil && u.rec.Scheme != "" }

// Clone returns a deep copy of u.
func (u *URL) Clone() *URL {
	if u == nil {
		return nil
	}
	return &URL{rec: *u.rec.Clone(), opts: u.opts}
}

// Equal reports whether u and val serialize to the same string.
// val can be a URL, *URL, Record or *Record.
func (u *URL) Equal(val any) bool {
	return u.equal(val, false)
}

// EqualIgnoreFragment is like [URL.Equal] but ignores fragments.
func (u *URL) EqualIgnoreFragment(val any) bool {
	return u.equal(val, true)
}

func (u *URL) equal(val any, excludeFragment bool) bool {
	var other *Record
	switch v := val.(type) {
	case URL:
		other = &v.rec
	case *URL:
		if v == nil {
			return u == nil
		}
		other = &v.rec
	case Record:
		other = &v
	case *Record:
		other = v
	default:
		return false
	}
	if u == nil || other == nil {
		return u == nil && other == nil
	}
	return u.rec.Href(excludeFragment) == other.Href(excludeFragment)
}

// RenderTo writes the serialized URL to w.
func (u *URL) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	if u == nil {
		return 0, nil
	}
	return errtrace.Wrap2(u.rec.RenderTo(w, opts))
}

// Render returns the serialized URL.
func (u *URL) Render(opts *RenderOptions) string {
	if u == nil {
		return ""
	}
	return u.rec.Render(opts)
}

// String returns the serialized URL.
func (u *URL) String() string { return u.Href() }

// Format implements [fmt.Formatter].
func (u *URL) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		if f.Flag('+') {
			u.RenderTo(f, nil) //nolint:errcheck
			return
		}
		fmt.Fprint(f, u.String())
		return
	case 'q':
		fmt.Fprint(f, strconv.Quote(u.String()))
		return
	case 'v':
		if !f.Flag('+') && !f.Flag('#') {
			fmt.Fprint(f, u.String())
			return
		}
		fallthrough
	default:
		if u == nil {
			fmt.Fprint(f, "<nil>")
			return
		}
		type hideMethods Record
		type Record hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), Record(u.rec))
		return
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (u *URL) MarshalText() ([]byte, error) {
	return []byte(u.Href()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (u *URL) UnmarshalText(text []byte) error {
	return errtrace.Wrap(u.SetHref(string(text)))
}

// MarshalJSON implements [json.Marshaler]. A URL is encoded as its href string.
func (u *URL) MarshalJSON() ([]byte, error) {
	return errtrace.Wrap2(json.Marshal(u.Href()))
}

// UnmarshalJSON implements [json.Unmarshaler].
func (u *URL) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errtrace.Wrap(err)
	}
	return errtrace.Wrap(u.SetHref(s))
}
