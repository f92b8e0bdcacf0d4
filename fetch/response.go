package fetch

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/ufetch/internal/errorutil"
	"github.com/ghettovoice/ufetch/url"
)

// ResponseType is the type of a response.
type ResponseType string

const (
	ResponseBasic          ResponseType = "basic"
	ResponseCORS           ResponseType = "cors"
	ResponseDefault        ResponseType = "default"
	ResponseError          ResponseType = "error"
	ResponseOpaque         ResponseType = "opaque"
	ResponseOpaqueRedirect ResponseType = "opaqueredirect"
)

// ResponseInit holds the optional parts of a new [Response].
type ResponseInit struct {
	// Status defaults to 200 and must be in range 200-599.
	Status     int
	StatusText string
	// Headers are copied into the response header list.
	// Set-Cookie headers are dropped.
	Headers *Headers
}

// Response is a fetch response.
type Response struct {
	*Body

	Type       ResponseType
	URL        *url.URL
	Redirected bool
	Status     int
	StatusText string
	Headers    *Headers
}

// NewResponse creates a response with an optional body.
func NewResponse(body io.Reader, init *ResponseInit) (*Response, error) {
	if init == nil {
		init = &ResponseInit{}
	}
	status := init.Status
	if status == 0 {
		status = http.StatusOK
	}
	if status < 200 || status > 599 {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidStatus, "%d", status))
	}
	if body != nil && isNullBodyStatus(status) {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrBodyNotAllowed, "status %d", status))
	}

	res := &Response{
		Body:       newBody(body),
		Type:       ResponseDefault,
		Status:     status,
		StatusText: init.StatusText,
		Headers:    NewHeaders(GuardResponse),
	}
	for n, v := range init.Headers.All() {
		if err := res.Headers.Append(n, v); err != nil {
			return nil, errtrace.Wrap(err)
		}
	}
	return res, nil
}

// ErrorResponse returns a network error response.
func ErrorResponse() *Response {
	h := NewHeaders(GuardImmutable)
	return &Response{
		Body:    newBody(nil),
		Type:    ResponseError,
		Headers: h,
	}
}

// newNetworkResponse wraps a transport response. Its headers are immutable.
func newNetworkResponse(hres *http.Response, u *url.URL, redirected bool) *Response {
	h := HeadersFromHTTP(hres.Header, GuardResponse)
	h.freeze()
	var body io.Reader
	if hres.Body != nil && hres.Body != http.NoBody {
		body = hres.Body
	}
	return &Response{
		Body:       newBody(body),
		Type:       ResponseBasic,
		URL:        u,
		Redirected: redirected,
		Status:     hres.StatusCode,
		StatusText: strings.TrimPrefix(hres.Status, strconv.Itoa(hres.StatusCode)+" "),
		Headers:    h,
	}
}

// OK reports whether the status is in range 200-299.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status <= 299 }

// Href returns the final URL of the response or an empty string.
func (r *Response) Href() string { return r.URL.Href() }

func isNullBodyStatus(status int) bool {
	switch status {
	case http.StatusSwitchingProtocols, http.StatusNoContent, http.StatusResetContent, http.StatusNotModified:
		return true
	}
	return false
}

func isRedirectStatus(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
