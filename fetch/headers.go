package fetch

import (
	"cmp"
	"io"
	"iter"
	"maps"
	"net/http"
	"slices"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/ufetch/bytestring"
	"github.com/ghettovoice/ufetch/internal/errorutil"
	"github.com/ghettovoice/ufetch/internal/ioutil"
	"github.com/ghettovoice/ufetch/internal/types"
	"github.com/ghettovoice/ufetch/internal/util"
)

// Guard controls which mutations a [Headers] list accepts.
type Guard uint8

const (
	GuardNone Guard = iota
	// GuardRequest silently drops forbidden request header names.
	GuardRequest
	// GuardRequestNoCORS keeps only CORS-safelisted request headers.
	GuardRequestNoCORS
	// GuardResponse silently drops Set-Cookie and Set-Cookie2.
	GuardResponse
	// GuardImmutable rejects every mutation with [ErrImmutableHeaders].
	GuardImmutable
)

var guardNames = [...]string{
	GuardNone:          "none",
	GuardRequest:       "request",
	GuardRequestNoCORS: "request-no-cors",
	GuardResponse:      "response",
	GuardImmutable:     "immutable",
}

func (g Guard) String() string {
	if int(g) < len(guardNames) {
		return guardNames[g]
	}
	return "unknown"
}

type headerEntry struct {
	name, value string
}

// Headers is an ordered list of headers with lower-cased names.
// Values of repeated names are combined with ", ".
//
// Headers is not safe for concurrent mutation.
type Headers struct {
	guard   Guard
	entries []headerEntry
}

// NewHeaders returns an empty header list with the given guard.
func NewHeaders(guard Guard) *Headers {
	return &Headers{guard: guard}
}

// HeadersFromHTTP copies hdr into a new header list with the given guard.
// Names are added in sorted order, invalid names and values are skipped.
func HeadersFromHTTP(hdr http.Header, guard Guard) *Headers {
	h := NewHeaders(guard)
	if guard == GuardImmutable {
		h.guard = GuardNone
	}
	for _, name := range slices.Sorted(maps.Keys(hdr)) {
		for _, v := range hdr[name] {
			h.Append(name, v) //nolint:errcheck
		}
	}
	h.guard = guard
	return h
}

// ParseHeaders parses a raw CRLF-separated header block, as returned by
// XMLHttpRequest.getAllResponseHeaders, into a list guarded with [GuardResponse].
// Lines without a colon and lines with an invalid name are skipped.
func ParseHeaders(raw bytestring.ByteString) *Headers {
	h := NewHeaders(GuardResponse)
	for line := range strings.SplitSeq(raw.String(), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		h.Append(name, value) //nolint:errcheck
	}
	return h
}

// Guard returns the guard of the list.
func (h *Headers) Guard() Guard {
	if h == nil {
		return GuardNone
	}
	return h.guard
}

// Len returns the number of distinct header names.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Append adds value to the header name, combining it with an existing value.
func (h *Headers) Append(name, value string) error {
	n, v, err := normalizeHeader(name, value)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if err := h.checkMutable(); err != nil {
		return errtrace.Wrap(err)
	}
	if h.dropped(n) {
		return nil
	}
	if i := h.index(n); i >= 0 {
		combined := h.entries[i].value + ", " + v
		if h.guard != GuardRequestNoCORS || isNoCORSSafelisted(n, combined) {
			h.entries[i].value = combined
		}
		return nil
	}
	if h.guard == GuardRequestNoCORS && !isNoCORSSafelisted(n, v) {
		return nil
	}
	h.entries = append(h.entries, headerEntry{n, v})
	return nil
}

// Set replaces every value of the header name with value.
func (h *Headers) Set(name, value string) error {
	n, v, err := normalizeHeader(name, value)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if err := h.checkMutable(); err != nil {
		return errtrace.Wrap(err)
	}
	if h.dropped(n) {
		return nil
	}
	if h.guard == GuardRequestNoCORS && !isNoCORSSafelisted(n, v) {
		return nil
	}
	if i := h.index(n); i >= 0 {
		h.entries[i].value = v
		return nil
	}
	h.entries = append(h.entries, headerEntry{n, v})
	return nil
}

// Get returns the combined value of the header name.
func (h *Headers) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	if i := h.index(util.LCase(name)); i >= 0 {
		return h.entries[i].value, true
	}
	return "", false
}

// Has reports whether the header name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Delete removes the header name.
func (h *Headers) Delete(name string) error {
	n := util.LCase(name)
	if !isToken(n) {
		return errtrace.Wrap(errorf(ErrInvalidHeaderName, name))
	}
	if err := h.checkMutable(); err != nil {
		return errtrace.Wrap(err)
	}
	if h.dropped(n) {
		return nil
	}
	if i := h.index(n); i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
	}
	return nil
}

// All iterates over the headers sorted by name.
func (h *Headers) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if h == nil {
			return
		}
		sorted := slices.SortedFunc(slices.Values(h.entries), func(a, b headerEntry) int {
			return cmp.Compare(a.name, b.name)
		})
		for _, e := range sorted {
			if !yield(e.name, e.value) {
				return
			}
		}
	}
}

// Header converts the list into an [http.Header] with canonical keys.
func (h *Headers) Header() http.Header {
	hdr := make(http.Header, h.Len())
	for n, v := range h.All() {
		hdr[http.CanonicalHeaderKey(n)] = []string{v}
	}
	return hdr
}

// Clone returns a copy of the list with the same guard.
func (h *Headers) Clone() *Headers {
	if h == nil {
		return nil
	}
	return &Headers{guard: h.guard, entries: slices.Clone(h.entries)}
}

// Equal reports whether val holds the same headers, ignoring order and guard.
func (h *Headers) Equal(val any) bool {
	var other *Headers
	switch v := val.(type) {
	case Headers:
		other = &v
	case *Headers:
		other = v
	default:
		return false
	}
	if h.Len() != other.Len() {
		return false
	}
	for n, v := range h.All() {
		if ov, ok := other.Get(n); !ok || ov != v {
			return false
		}
	}
	return true
}

// RenderTo writes the headers as "name: value" lines terminated by CRLF.
func (h *Headers) RenderTo(w io.Writer, _ *types.RenderOptions) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for n, v := range h.All() {
		cw.Fprint(n, ": ", v, "\r\n")
	}
	return errtrace.Wrap2(cw.Result())
}

// Render returns the headers as a raw header block.
func (h *Headers) Render(opts *types.RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	h.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

func (h *Headers) String() string { return h.Render(nil) }

// freeze makes the list immutable.
func (h *Headers) freeze() { h.guard = GuardImmutable }

func (h *Headers) checkMutable() error {
	if h == nil {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError("nil headers"))
	}
	if h.guard == GuardImmutable {
		return errtrace.Wrap(ErrImmutableHeaders)
	}
	return nil
}

func (h *Headers) dropped(name string) bool { return isForbidden(h.guard, name) }

func (h *Headers) index(name string) int {
	return slices.IndexFunc(h.entries, func(e headerEntry) bool { return e.name == name })
}

func isForbidden(guard Guard, name string) bool {
	switch guard {
	case GuardRequest:
		return isForbiddenRequestHeader(name)
	case GuardResponse:
		return name == "set-cookie" || name == "set-cookie2"
	default:
		return false
	}
}

func normalizeHeader(name, value string) (string, string, error) {
	if !isToken(name) {
		return "", "", errtrace.Wrap(errorf(ErrInvalidHeaderName, name))
	}
	v := strings.Trim(value, "\n\r\t ")
	if strings.ContainsAny(v, "\x00\n\r") {
		return "", "", errtrace.Wrap(errorf(ErrInvalidHeaderValue, value))
	}
	return util.LCase(name), v, nil
}

var tokenChars = func() (t [256]bool) {
	for c := '0'; c <= '9'; c++ {
		t[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		t[c] = true
		t[c-'a'+'A'] = true
	}
	for _, c := range "!#$%&'*+-.^_`|~" {
		t[c] = true
	}
	return t
}()

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if !tokenChars[s[i]] {
			return false
		}
	}
	return true
}

var forbiddenRequestHeaders = map[string]bool{
	"accept-charset":                 true,
	"accept-encoding":                true,
	"access-control-request-headers": true,
	"access-control-request-method":  true,
	"connection":                     true,
	"content-length":                 true,
	"cookie":                         true,
	"cookie2":                        true,
	"date":                           true,
	"dnt":                            true,
	"expect":                         true,
	"host":                           true,
	"keep-alive":                     true,
	"origin":                         true,
	"referer":                        true,
	"te":                             true,
	"trailer":                        true,
	"transfer-encoding":              true,
	"upgrade":                        true,
	"via":                            true,
}

func isForbiddenRequestHeader(name string) bool {
	return forbiddenRequestHeaders[name] ||
		strings.HasPrefix(name, "proxy-") ||
		strings.HasPrefix(name, "sec-")
}

var corsSafeContentTypes = []string{
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"text/plain",
}

func isNoCORSSafelisted(name, value string) bool {
	if len(value) > 128 {
		return false
	}
	switch name {
	case "accept":
		return !strings.ContainsFunc(value, isCORSUnsafe)
	case "accept-language", "content-language":
		return !strings.ContainsFunc(value, func(r rune) bool {
			return !isASCIIAlphanumeric(r) && !strings.ContainsRune(" *,-.;=", r)
		})
	case "content-type":
		if strings.ContainsFunc(value, isCORSUnsafe) {
			return false
		}
		essence, _, _ := strings.Cut(value, ";")
		return slices.Contains(corsSafeContentTypes, util.LCase(util.TrimSP(essence)))
	default:
		return false
	}
}

func isCORSUnsafe(r rune) bool {
	return r < 0x20 && r != '\t' || r == 0x7F || strings.ContainsRune("\"():<>?@[\\]{}", r)
}

func isASCIIAlphanumeric(r rune) bool {
	return '0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}
