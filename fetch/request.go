package fetch

import (
	"context"
	"io"
	"net/http"
	neturl "net/url"
	"slices"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/ufetch/internal/errorutil"
	"github.com/ghettovoice/ufetch/internal/types"
	"github.com/ghettovoice/ufetch/url"
)

// Credentials is the credentials mode of a request.
// It decides whether the client cookie jar is used, see [ClientOptions.Jar].
type Credentials string

const (
	// CredentialsOmit never sends or stores cookies.
	CredentialsOmit Credentials = "omit"
	// CredentialsSameOrigin uses cookies while the current URL is same origin with the request URL.
	CredentialsSameOrigin Credentials = "same-origin"
	// CredentialsInclude always uses cookies.
	CredentialsInclude Credentials = "include"
)

// RequestInit holds the optional parts of a new [Request].
type RequestInit struct {
	// Method defaults to GET.
	Method string
	// Headers are copied into the request header list.
	// Forbidden request headers are dropped.
	Headers *Headers
	// Body must be nil for GET and HEAD requests.
	Body io.Reader
	// Credentials defaults to [CredentialsOmit].
	Credentials Credentials
}

// Request is a fetch request.
type Request struct {
	*Body

	Method      string
	URL         *url.URL
	Headers     *Headers
	Credentials Credentials
}

var normalizedMethods = []string{"DELETE", "GET", "HEAD", "OPTIONS", "POST", "PUT"}

var forbiddenMethods = []string{"CONNECT", "TRACE", "TRACK"}

// NewRequest creates a request for input resolved against an optional base URL.
func NewRequest(input string, base *url.URL, init *RequestInit) (*Request, error) {
	if base != nil && !types.IsValid(base) {
		return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid base URL"))
	}
	u, err := url.ParseRef(input, base)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if u.Username() != "" || u.Password() != "" {
		return nil, errtrace.Wrap(errorf(ErrCredentialsInURL, input))
	}

	if init == nil {
		init = &RequestInit{}
	}
	req := &Request{
		Method:      http.MethodGet,
		URL:         u,
		Headers:     NewHeaders(GuardRequest),
		Credentials: CredentialsOmit,
	}
	if init.Method != "" {
		m, err := normalizeMethod(init.Method)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		req.Method = m
	}
	if init.Credentials != "" {
		req.Credentials = init.Credentials
	}
	for n, v := range init.Headers.All() {
		if err := req.Headers.Append(n, v); err != nil {
			return nil, errtrace.Wrap(err)
		}
	}
	if init.Body != nil && (req.Method == http.MethodGet || req.Method == http.MethodHead) {
		return nil, errtrace.Wrap(errorf(ErrBodyNotAllowed, req.Method))
	}
	req.Body = newBody(init.Body)
	return req, nil
}

func normalizeMethod(m string) (string, error) {
	if !isToken(m) {
		return "", errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid method %q", m))
	}
	upper := strings.ToUpper(m)
	if slices.Contains(forbiddenMethods, upper) {
		return "", errtrace.Wrap(errorf(ErrForbiddenMethod, m))
	}
	if slices.Contains(normalizedMethods, upper) {
		return upper, nil
	}
	return m, nil
}

// Clone returns a copy of the request. The copy shares the body with r,
// so Clone fails with [ErrBodyUsed] once the body has been read.
func (r *Request) Clone() (*Request, error) {
	if r == nil {
		return nil, nil
	}
	if r.Body.Used() {
		return nil, errtrace.Wrap(ErrBodyUsed)
	}
	return &Request{
		Body:        r.Body,
		Method:      r.Method,
		URL:         types.Clone[*url.URL](r.URL),
		Headers:     r.Headers.Clone(),
		Credentials: r.Credentials,
	}, nil
}

// Validate checks that the request can be sent.
func (r *Request) Validate() error {
	if r == nil {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError("nil request"))
	}
	if !types.IsValid(r.URL) {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid request URL"))
	}
	if p := r.URL.Protocol(); p != "http:" && p != "https:" {
		return errtrace.Wrap(errorf(ErrUnsupportedScheme, p))
	}
	if r.Body.Used() {
		return errtrace.Wrap(ErrBodyUsed)
	}
	return nil
}

// newHTTPRequest builds the wire request for u. The fragment is never sent.
// The request-target is taken from the serialized URL as is, so paths that
// net/url would reject or re-escape reach the server unchanged.
func newHTTPRequest(ctx context.Context, method string, u *url.URL, hdr *Headers, body io.Reader) (*http.Request, error) {
	rec := u.Record()
	hreq, err := http.NewRequestWithContext(ctx, method, rec.Scheme+":", body)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	hreq.URL = &neturl.URL{
		Scheme:     rec.Scheme,
		Host:       u.Host(),
		Opaque:     "//" + u.Host() + u.Pathname(),
		RawQuery:   rec.Query,
		ForceQuery: rec.HasQuery && rec.Query == "",
	}
	hreq.Host = hreq.URL.Host
	hreq.Header = hdr.Header()
	return hreq, nil
}

// cookieURL is the jar key for u.
func cookieURL(u *url.URL) *neturl.URL {
	return &neturl.URL{
		Scheme: strings.TrimSuffix(u.Protocol(), ":"),
		Host:   u.Host(),
		Path:   u.Pathname(),
	}
}
