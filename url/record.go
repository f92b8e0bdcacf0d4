package url

import (
	"slices"

	"github.com/ghettovoice/ufetch/host"
)

// Record is the structured form of a URL.
//
// A Record is owned by a single [URL] or parse call. Records used as a base are only read,
// fields inherited from a base are copied, so later changes of the base never leak into
// the derived record.
type Record struct {
	// Scheme is an ASCII lower-case scheme without the trailing colon.
	Scheme string
	// Username and Password are stored percent-encoded.
	Username string
	Password string
	// Host is the zero Host when the URL has no host.
	Host host.Host
	// Port is meaningful only when HasPort is set.
	// A port equal to the default port of the scheme is never stored.
	Port    uint16
	HasPort bool
	// Path holds percent-encoded segments. When CannotBeABase is set
	// it holds exactly one element, the opaque path.
	Path []string
	// Query is meaningful only when HasQuery is set.
	Query    string
	HasQuery bool
	// Fragment is the percent-encoded fragment, an empty string means no fragment.
	Fragment      string
	CannotBeABase bool
}

var defaultPorts = map[string]uint16{
	"ftp":   21,
	"file":  0,
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
}

// IsSpecialScheme reports whether scheme is one of ftp, file, http, https, ws or wss.
func IsSpecialScheme(scheme string) bool {
	_, ok := defaultPorts[scheme]
	return ok
}

// DefaultPort returns the default port of a special scheme.
// It returns false for file and for non-special schemes.
func DefaultPort(scheme string) (uint16, bool) {
	p, ok := defaultPorts[scheme]
	return p, ok && p != 0
}

// IsSpecial reports whether the record has a special scheme.
func (r *Record) IsSpecial() bool { return IsSpecialScheme(r.Scheme) }

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	r2 := *r
	r2.Path = slices.Clone(r.Path)
	return &r2
}

func (r *Record) includesCredentials() bool {
	return r.Username != "" || r.Password != ""
}

// cannotHaveCredentialsOrPort reports whether username, password and port are immutable.
func (r *Record) cannotHaveCredentialsOrPort() bool {
	return r.Host.IsZero() || r.Host.IsEmpty() || r.CannotBeABase || r.Scheme == "file"
}

func (r *Record) setPort(port uint16) {
	if def, ok := DefaultPort(r.Scheme); ok && def == port {
		r.Port, r.HasPort = 0, false
		return
	}
	r.Port, r.HasPort = port, true
}

// shortenPath removes the last path segment. A lone normalized Windows drive letter
// of a file URL is kept.
func (r *Record) shortenPath() {
	if r.Scheme == "file" && len(r.Path) == 1 && isNormalizedWindowsDriveLetter(r.Path[0]) {
		return
	}
	if len(r.Path) > 0 {
		r.Path = r.Path[:len(r.Path)-1]
	}
}

// inheritAuthority copies credentials, host and port from base.
func (r *Record) inheritAuthority(base *Record) {
	r.Username = base.Username
	r.Password = base.Password
	r.Host = base.Host
	r.Port = base.Port
	r.HasPort = base.HasPort
}

func (r *Record) inheritPathAndQuery(base *Record) {
	r.Path = slices.Clone(base.Path)
	r.Query = base.Query
	r.HasQuery = base.HasQuery
}

func (r *Record) setQuery(q string) {
	r.Query, r.HasQuery = q, true
}

func (r *Record) clearQuery() {
	r.Query, r.HasQuery = "", false
}

func isWindowsDriveLetter(s string) bool {
	return len(s) == 2 && isASCIIAlpha(rune(s[0])) && (s[1] == ':' || s[1] == '|')
}

func isNormalizedWindowsDriveLetter(s string) bool {
	return len(s) == 2 && isASCIIAlpha(rune(s[0])) && s[1] == ':'
}

func isASCIIAlpha(c rune) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isASCIIDigit(c rune) bool { return '0' <= c && c <= '9' }

func isASCIIAlphanumeric(c rune) bool { return isASCIIAlpha(c) || isASCIIDigit(c) }

func lowerASCII(c rune) rune {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
