package url

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"braces.dev/errtrace"

	"github.com/ghettovoice/ufetch/host"
	"github.com/ghettovoice/ufetch/percent"
)

// ParseOptions configure the URL parser. A nil *ParseOptions means defaults.
type ParseOptions struct {
	// ToASCII selects the domain-to-ASCII step for hosts of special URLs.
	ToASCII host.ToASCIIMode `json:"to_ascii,omitempty"`
}

func (o *ParseOptions) hostOptions() *host.Options {
	if o == nil {
		return nil
	}
	return &host.Options{ToASCII: o.ToASCII}
}

// ParseRecord parses input against an optional base record into a new record.
func ParseRecord(input string, base *Record, opts *ParseOptions) (*Record, error) {
	var rec Record
	if err := ParseInto(&rec, input, base, NoOverride, opts); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &rec, nil
}

// ParseInto runs the URL parser over input, writing the result into rec.
//
// Without a state override rec is reset first and leading and trailing C0 controls
// and spaces are trimmed from input. With a state override only the part of rec the state
// is responsible for is updated, an input the override state rejects leaves rec as it is
// or partially updated, so callers that need atomic updates should parse into a copy.
// ASCII tab and newline are removed from input in both cases.
//
// base is only read.
func ParseInto(rec *Record, input string, base *Record, override State, opts *ParseOptions) error {
	if override == NoOverride {
		*rec = Record{}
		input = strings.TrimFunc(input, isC0ControlOrSpace)
	}

	p := &parser{
		input:    []rune(removeTabAndNewline(input)),
		raw:      input,
		rec:      rec,
		base:     base,
		override: override,
		state:    override,
		hostOpts: opts.hostOptions(),
	}
	if p.state == NoOverride {
		p.state = StateSchemeStart
	}
	return errtrace.Wrap(p.run())
}

func isC0ControlOrSpace(c rune) bool { return c <= 0x20 }

func removeTabAndNewline(s string) string {
	if !strings.ContainsAny(s, "\t\n\r") {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
}

const eof rune = -1

type action uint8

const (
	actNext action = iota
	actDone
)

// parser is the cursor shared by the state handlers.
type parser struct {
	input    []rune
	raw      string
	pointer  int
	buf      []byte
	rec      *Record
	base     *Record
	override State
	state    State
	hostOpts *host.Options

	atSignSeen        bool
	insideBrackets    bool
	passwordTokenSeen bool
}

func (p *parser) run() error {
	for {
		c := eof
		if p.pointer < len(p.input) {
			c = p.input[p.pointer]
		}

		act, err := p.step(c)
		if err != nil {
			return errtrace.Wrap(err)
		}
		if act == actDone {
			return nil
		}
		if p.pointer >= len(p.input) {
			return nil
		}
		p.pointer++
	}
}

func (p *parser) step(c rune) (action, error) {
	switch p.state {
	case StateSchemeStart:
		return errtrace.Wrap2(p.schemeStart(c))
	case StateScheme:
		return errtrace.Wrap2(p.scheme(c))
	case StateNoScheme:
		return errtrace.Wrap2(p.noScheme(c))
	case StateSpecialRelativeOrAuthority:
		return p.specialRelativeOrAuthority(c), nil
	case StatePathOrAuthority:
		return p.pathOrAuthority(c), nil
	case StateRelative:
		return p.relative(c), nil
	case StateRelativeSlash:
		return p.relativeSlash(c), nil
	case StateSpecialAuthoritySlashes:
		return p.specialAuthoritySlashes(c), nil
	case StateSpecialAuthorityIgnoreSlashes:
		return p.specialAuthorityIgnoreSlashes(c), nil
	case StateAuthority:
		return errtrace.Wrap2(p.authority(c))
	case StateHost, StateHostname:
		return errtrace.Wrap2(p.host(c))
	case StatePort:
		return errtrace.Wrap2(p.port(c))
	case StateFile:
		return p.file(c), nil
	case StateFileSlash:
		return p.fileSlash(c), nil
	case StateFileHost:
		return errtrace.Wrap2(p.fileHost(c))
	case StatePathStart:
		return p.pathStart(c), nil
	case StatePath:
		return p.path(c), nil
	case StateCannotBeABaseURLPath:
		return p.cannotBeABaseURLPath(c), nil
	case StateQuery:
		return p.query(c), nil
	case StateFragment:
		return p.fragment(c), nil
	default:
		return actDone, nil
	}
}

func (p *parser) fail(cause error) error {
	return newInvalidURLError(cause, p.raw) //errtrace:skip
}

// rewind moves the pointer back by n code points.
func (p *parser) rewind(n int) { p.pointer -= n }

// remainingStartsWith reports whether the code points after the pointer start with s.
func (p *parser) remainingStartsWith(s string) bool {
	i := p.pointer + 1
	for _, r := range s {
		if i >= len(p.input) || p.input[i] != r {
			return false
		}
		i++
	}
	return true
}

// startsWithWindowsDriveLetter reports whether the code points from the pointer
// start with a Windows drive letter followed by EOF, /, \, ? or #.
func (p *parser) startsWithWindowsDriveLetter() bool {
	rest := p.input[min(p.pointer, len(p.input)):]
	if len(rest) < 2 || !isASCIIAlpha(rest[0]) || rest[1] != ':' && rest[1] != '|' {
		return false
	}
	if len(rest) == 2 {
		return true
	}
	switch rest[2] {
	case '/', '\\', '?', '#':
		return true
	}
	return false
}

func (p *parser) appendRune(c rune) { p.buf = utf8.AppendRune(p.buf, c) }

func (p *parser) resetBuf() { p.buf = p.buf[:0] }

func (p *parser) isSpecialSeparator(c rune) bool {
	return c == '\\' && p.rec.IsSpecial()
}

func (p *parser) schemeStart(c rune) (action, error) {
	switch {
	case isASCIIAlpha(c):
		p.appendRune(lowerASCII(c))
		p.state = StateScheme
	case p.override == NoOverride:
		p.state = StateNoScheme
		p.rewind(1)
	default:
		return actDone, errtrace.Wrap(p.fail(ErrInvalidScheme))
	}
	return actNext, nil
}

func (p *parser) scheme(c rune) (action, error) {
	switch {
	case isASCIIAlphanumeric(c) || c == '+' || c == '-' || c == '.':
		p.appendRune(lowerASCII(c))
	case c == ':':
		scheme := string(p.buf)
		if p.override != NoOverride {
			if p.rec.IsSpecial() != IsSpecialScheme(scheme) {
				return actDone, nil
			}
			if (p.rec.includesCredentials() || p.rec.HasPort) && scheme == "file" {
				return actDone, nil
			}
			if p.rec.Scheme == "file" && p.rec.Host.IsEmpty() {
				return actDone, nil
			}
		}
		p.rec.Scheme = scheme
		if p.override != NoOverride {
			if p.rec.HasPort {
				p.rec.setPort(p.rec.Port)
			}
			return actDone, nil
		}
		p.resetBuf()
		switch {
		case p.rec.Scheme == "file":
			p.state = StateFile
		case p.rec.IsSpecial() && p.base != nil && p.base.Scheme == p.rec.Scheme:
			p.state = StateSpecialRelativeOrAuthority
		case p.rec.IsSpecial():
			p.state = StateSpecialAuthoritySlashes
		case p.remainingStartsWith("/"):
			p.state = StatePathOrAuthority
			p.pointer++
		default:
			p.rec.CannotBeABase = true
			p.rec.Path = []string{""}
			p.state = StateCannotBeABaseURLPath
		}
	case p.override == NoOverride:
		p.resetBuf()
		p.state = StateNoScheme
		p.pointer = -1
	default:
		return actDone, errtrace.Wrap(p.fail(ErrInvalidScheme))
	}
	return actNext, nil
}

func (p *parser) noScheme(c rune) (action, error) {
	switch {
	case p.base == nil || p.base.CannotBeABase && c != '#':
		return actDone, errtrace.Wrap(p.fail(ErrMissingBase))
	case p.base.CannotBeABase && c == '#':
		p.rec.Scheme = p.base.Scheme
		p.rec.inheritPathAndQuery(p.base)
		p.rec.Fragment = ""
		p.rec.CannotBeABase = true
		p.state = StateFragment
	case p.base.Scheme != "file":
		p.state = StateRelative
		p.rewind(1)
	default:
		p.state = StateFile
		p.rewind(1)
	}
	return actNext, nil
}

func (p *parser) specialRelativeOrAuthority(c rune) action {
	if c == '/' && p.remainingStartsWith("/") {
		p.state = StateSpecialAuthorityIgnoreSlashes
		p.pointer++
	} else {
		p.state = StateRelative
		p.rewind(1)
	}
	return actNext
}

func (p *parser) pathOrAuthority(c rune) action {
	if c == '/' {
		p.state = StateAuthority
	} else {
		p.state = StatePath
		p.rewind(1)
	}
	return actNext
}

func (p *parser) relative(c rune) action {
	p.rec.Scheme = p.base.Scheme
	switch {
	case c == '/' || p.isSpecialSeparator(c):
		p.state = StateRelativeSlash
	default:
		p.rec.inheritAuthority(p.base)
		p.rec.inheritPathAndQuery(p.base)
		switch c {
		case '?':
			p.rec.setQuery("")
			p.state = StateQuery
		case '#':
			p.rec.Fragment = ""
			p.state = StateFragment
		case eof:
		default:
			p.rec.clearQuery()
			p.rec.shortenPath()
			p.state = StatePath
			p.rewind(1)
		}
	}
	return actNext
}

func (p *parser) relativeSlash(c rune) action {
	switch {
	case p.rec.IsSpecial() && (c == '/' || c == '\\'):
		p.state = StateSpecialAuthorityIgnoreSlashes
	case c == '/':
		p.state = StateAuthority
	default:
		p.rec.inheritAuthority(p.base)
		p.state = StatePath
		p.rewind(1)
	}
	return actNext
}

func (p *parser) specialAuthoritySlashes(c rune) action {
	p.state = StateSpecialAuthorityIgnoreSlashes
	if c == '/' && p.remainingStartsWith("/") {
		p.pointer++
	} else {
		p.rewind(1)
	}
	return actNext
}

func (p *parser) specialAuthorityIgnoreSlashes(c rune) action {
	if c != '/' && c != '\\' {
		p.state = StateAuthority
		p.rewind(1)
	}
	return actNext
}

func (p *parser) authority(c rune) (action, error) {
	switch {
	case c == '@':
		if p.atSignSeen {
			p.buf = append([]byte("%40"), p.buf...)
		}
		p.atSignSeen = true
		user := []byte(p.rec.Username)
		pass := []byte(p.rec.Password)
		for _, r := range string(p.buf) {
			if r == ':' && !p.passwordTokenSeen {
				p.passwordTokenSeen = true
				continue
			}
			if p.passwordTokenSeen {
				pass = percent.AppendRune(pass, r, &percent.Userinfo)
			} else {
				user = percent.AppendRune(user, r, &percent.Userinfo)
			}
		}
		p.rec.Username = string(user)
		p.rec.Password = string(pass)
		p.resetBuf()
	case c == eof || c == '/' || c == '?' || c == '#' || p.isSpecialSeparator(c):
		if p.atSignSeen && len(p.buf) == 0 {
			return actDone, errtrace.Wrap(p.fail(ErrInvalidCredentials))
		}
		p.rewind(utf8.RuneCount(p.buf) + 1)
		p.resetBuf()
		p.state = StateHost
	default:
		p.appendRune(c)
	}
	return actNext, nil
}

func (p *parser) parseHost() (host.Host, error) {
	h, err := host.ParseWith(string(p.buf), p.rec.IsSpecial(), p.hostOpts)
	if err != nil {
		return host.Host{}, errtrace.Wrap(p.fail(err))
	}
	return h, nil
}

func (p *parser) host(c rune) (action, error) {
	switch {
	case p.override != NoOverride && p.rec.Scheme == "file":
		p.rewind(1)
		p.state = StateFileHost
	case c == ':' && !p.insideBrackets:
		if len(p.buf) == 0 {
			return actDone, errtrace.Wrap(p.fail(ErrEmptyHost))
		}
		if p.override == StateHostname {
			return actDone, nil
		}
		h, err := p.parseHost()
		if err != nil {
			return actDone, errtrace.Wrap(err)
		}
		p.rec.Host = h
		p.resetBuf()
		p.state = StatePort
	case c == eof || c == '/' || c == '?' || c == '#' || p.isSpecialSeparator(c):
		p.rewind(1)
		if p.rec.IsSpecial() && len(p.buf) == 0 {
			return actDone, errtrace.Wrap(p.fail(ErrEmptyHost))
		}
		if p.override != NoOverride && len(p.buf) == 0 && (p.rec.includesCredentials() || p.rec.HasPort) {
			return actDone, nil
		}
		h, err := p.parseHost()
		if err != nil {
			return actDone, errtrace.Wrap(err)
		}
		p.rec.Host = h
		p.resetBuf()
		p.state = StatePathStart
		if p.override != NoOverride {
			return actDone, nil
		}
	default:
		switch c {
		case '[':
			p.insideBrackets = true
		case ']':
			p.insideBrackets = false
		}
		p.appendRune(c)
	}
	return actNext, nil
}

func (p *parser) port(c rune) (action, error) {
	switch {
	case isASCIIDigit(c):
		p.appendRune(c)
	case c == eof || c == '/' || c == '?' || c == '#' || p.isSpecialSeparator(c) || p.override != NoOverride:
		if len(p.buf) > 0 {
			port, err := parsePort(p.buf)
			if err != nil {
				return actDone, errtrace.Wrap(p.fail(err))
			}
			p.rec.setPort(port)
			p.resetBuf()
		}
		if p.override != NoOverride {
			return actDone, nil
		}
		p.state = StatePathStart
		p.rewind(1)
	default:
		return actDone, errtrace.Wrap(p.fail(ErrInvalidPort))
	}
	return actNext, nil
}

// parsePort parses ASCII digits into a port, rejecting values above 65535
// without overflowing on long inputs.
func parsePort(digits []byte) (uint16, error) {
	var n uint32
	for _, d := range digits {
		n = n*10 + uint32(d-'0')
		if n > 65535 {
			return 0, errtrace.Wrap(ErrInvalidPort)
		}
	}
	return uint16(n), nil
}

func (p *parser) file(c rune) action {
	p.rec.Scheme = "file"
	p.rec.Host = host.Domain("")
	switch {
	case c == '/' || c == '\\':
		p.state = StateFileSlash
	case p.base != nil && p.base.Scheme == "file":
		p.rec.Host = p.base.Host
		p.rec.inheritPathAndQuery(p.base)
		switch c {
		case '?':
			p.rec.setQuery("")
			p.state = StateQuery
		case '#':
			p.rec.Fragment = ""
			p.state = StateFragment
		case eof:
		default:
			p.rec.clearQuery()
			if p.startsWithWindowsDriveLetter() {
				p.rec.Path = nil
			} else {
				p.rec.shortenPath()
			}
			p.state = StatePath
			p.rewind(1)
		}
	default:
		p.state = StatePath
		p.rewind(1)
	}
	return actNext
}

func (p *parser) fileSlash(c rune) action {
	if c == '/' || c == '\\' {
		p.state = StateFileHost
		return actNext
	}
	if p.base != nil && p.base.Scheme == "file" {
		p.rec.Host = p.base.Host
		if !p.startsWithWindowsDriveLetter() && len(p.base.Path) > 0 && isNormalizedWindowsDriveLetter(p.base.Path[0]) {
			p.rec.Path = append(p.rec.Path, p.base.Path[0])
		}
	}
	p.state = StatePath
	p.rewind(1)
	return actNext
}

func (p *parser) fileHost(c rune) (action, error) {
	switch c {
	case eof, '/', '\\', '?', '#':
		p.rewind(1)
		switch {
		case p.override == NoOverride && isWindowsDriveLetter(string(p.buf)):
			// the buffer is reused as the first path segment
			p.state = StatePath
		case len(p.buf) == 0:
			p.rec.Host = host.Domain("")
			if p.override != NoOverride {
				return actDone, nil
			}
			p.state = StatePathStart
		default:
			h, err := p.parseHost()
			if err != nil {
				return actDone, errtrace.Wrap(err)
			}
			if d, ok := h.Domain(); ok && d == "localhost" {
				h = host.Domain("")
			}
			p.rec.Host = h
			if p.override != NoOverride {
				return actDone, nil
			}
			p.resetBuf()
			p.state = StatePathStart
		}
	default:
		p.appendRune(c)
	}
	return actNext, nil
}

func (p *parser) pathStart(c rune) action {
	switch {
	case p.rec.IsSpecial():
		p.state = StatePath
		if c != '/' && c != '\\' {
			p.rewind(1)
		}
	case p.override == NoOverride && c == '?':
		p.rec.setQuery("")
		p.state = StateQuery
	case p.override == NoOverride && c == '#':
		p.rec.Fragment = ""
		p.state = StateFragment
	case c != eof:
		p.state = StatePath
		if c != '/' {
			p.rewind(1)
		}
	case p.override != NoOverride && p.rec.Host.IsZero():
		p.rec.Path = append(p.rec.Path, "")
	}
	return actNext
}

func (p *parser) path(c rune) action {
	slash := c == '/' || p.isSpecialSeparator(c)
	if !(c == eof || slash || p.override == NoOverride && (c == '?' || c == '#')) {
		p.buf = percent.AppendRune(p.buf, c, &percent.Path)
		return actNext
	}

	seg := string(p.buf)
	switch {
	case isDoubleDotSegment(seg):
		p.rec.shortenPath()
		if !slash {
			p.rec.Path = append(p.rec.Path, "")
		}
	case isSingleDotSegment(seg):
		if !slash {
			p.rec.Path = append(p.rec.Path, "")
		}
	default:
		if p.rec.Scheme == "file" && len(p.rec.Path) == 0 && isWindowsDriveLetter(seg) {
			seg = seg[:1] + ":"
		}
		p.rec.Path = append(p.rec.Path, seg)
	}
	p.resetBuf()

	switch c {
	case '?':
		p.rec.setQuery("")
		p.state = StateQuery
	case '#':
		p.rec.Fragment = ""
		p.state = StateFragment
	}
	return actNext
}

func isSingleDotSegment(s string) bool {
	return s == "." || strings.EqualFold(s, "%2e")
}

func isDoubleDotSegment(s string) bool {
	switch len(s) {
	case 2:
		return s == ".."
	case 4:
		return strings.EqualFold(s, ".%2e") || strings.EqualFold(s, "%2e.")
	case 6:
		return strings.EqualFold(s, "%2e%2e")
	}
	return false
}

func (p *parser) cannotBeABaseURLPath(c rune) action {
	switch c {
	case '?', '#', eof:
		p.rec.Path[0] += string(p.buf)
		p.resetBuf()
		switch c {
		case '?':
			p.rec.setQuery("")
			p.state = StateQuery
		case '#':
			p.rec.Fragment = ""
			p.state = StateFragment
		}
	default:
		p.buf = percent.AppendRune(p.buf, c, &percent.C0Control)
	}
	return actNext
}

func (p *parser) query(c rune) action {
	if c == eof || p.override == NoOverride && c == '#' {
		set := &percent.Query
		if p.rec.IsSpecial() {
			set = &percent.SpecialQuery
		}
		p.rec.Query += percent.EncodeAfterEncoding(string(p.buf), set)
		p.resetBuf()
		if c == '#' {
			p.rec.Fragment = ""
			p.state = StateFragment
		}
		return actNext
	}
	p.appendRune(c)
	return actNext
}

func (p *parser) fragment(c rune) action {
	if c == eof {
		p.rec.Fragment += string(p.buf)
		p.resetBuf()
		return actNext
	}
	p.buf = percent.AppendRune(p.buf, c, &percent.Fragment)
	return actNext
}

// portString formats a port for serialization.
func portString(port uint16) string { return strconv.FormatUint(uint64(port), 10) }
