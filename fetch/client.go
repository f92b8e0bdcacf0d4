package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/ufetch/dns"
	"github.com/ghettovoice/ufetch/host"
	"github.com/ghettovoice/ufetch/internal/errorutil"
	"github.com/ghettovoice/ufetch/internal/log"
	"github.com/ghettovoice/ufetch/internal/types"
	"github.com/ghettovoice/ufetch/url"
)

//go:generate go tool mockgen -destination=../internal/testutil/fetchmock/transport.go -package=fetchmock . Transport

// Transport sends a single HTTP request. [http.RoundTripper] implements it.
type Transport interface {
	RoundTrip(req *http.Request) (*http.Response, error)
}

// DefaultMaxRedirects is the redirect limit used when [ClientOptions.MaxRedirects] is zero.
const DefaultMaxRedirects = 20

// ClientOptions configures a [Client].
type ClientOptions struct {
	// Transport sends the requests. If nil, a clone of [http.DefaultTransport]
	// is used, dialing through Resolver when it is set.
	Transport Transport
	// Resolver looks up domain hosts. Ignored when Transport is set.
	Resolver *dns.Resolver
	// Jar stores response cookies and supplies request cookies for requests
	// whose [Credentials] mode allows it. If nil, cookies are not used.
	Jar http.CookieJar
	// Logger receives request traces at debug level.
	Logger *slog.Logger
	// Timeout limits a whole fetch including redirects and reading the body.
	// Zero means no limit.
	Timeout time.Duration
	// MaxRedirects limits followed redirects. Zero means [DefaultMaxRedirects],
	// a negative value disables redirect following.
	MaxRedirects int
}

// Client sends fetch requests. It is safe for concurrent use.
type Client struct {
	transport    Transport
	jar          http.CookieJar
	log          *slog.Logger
	timeout      time.Duration
	maxRedirects int
}

// NewClient creates a client. A nil opts uses the defaults.
func NewClient(opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}
	c := &Client{
		transport:    opts.Transport,
		jar:          opts.Jar,
		log:          log.Or(opts.Logger),
		timeout:      opts.Timeout,
		maxRedirects: opts.MaxRedirects,
	}
	if c.maxRedirects == 0 {
		c.maxRedirects = DefaultMaxRedirects
	}
	if c.transport == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
		if opts.Resolver != nil {
			tr.DialContext = resolvingDialer(opts.Resolver)
		}
		c.transport = tr
	}
	return c
}

// resolvingDialer dials domain hosts through r and IP addresses directly.
func resolvingDialer(r *dns.Resolver) func(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		hostname, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		if ip := net.ParseIP(hostname); ip != nil {
			return errtrace.Wrap2(d.DialContext(ctx, network, addr))
		}
		ips, err := r.LookupHost(ctx, host.Domain(hostname))
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		var errs []error
		for _, ip := range ips {
			conn, err := d.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
			if err == nil {
				return conn, nil
			}
			errs = append(errs, err)
		}
		return nil, errtrace.Wrap(errorutil.JoinPrefix("dial "+addr+":", errs...))
	}
}

var defClient = NewClient(nil)

// DefaultClient returns the client used by [Fetch].
func DefaultClient() *Client { return defClient }

// Fetch creates a request from input and init and sends it with the default client.
func Fetch(ctx context.Context, input string, init *RequestInit) (*Response, error) {
	req, err := NewRequest(input, nil, init)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return errtrace.Wrap2(defClient.Do(ctx, req))
}

// Do sends req and follows redirects. Relative Location values are resolved
// against the current URL by the URL parser. The request body is consumed.
//
// Transport failures are wrapped with [ErrFetchFailed].
// A response with a non-2xx status is not an error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := types.Validate(req); err != nil {
		return nil, errtrace.Wrap(err)
	}

	var payload []byte
	if !req.Body.IsNull() {
		var err error
		if payload, err = req.Body.Bytes(ctx); err != nil {
			return nil, errtrace.Wrap(err)
		}
	}

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	var (
		method     = req.Method
		cur        = req.URL.Clone()
		redirected bool
		start      = time.Now()
	)
	for redirects := 0; ; redirects++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		hreq, err := newHTTPRequest(ctx, method, cur, req.Headers, body)
		if err != nil {
			cancel()
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrFetchFailed, err))
		}

		useJar := c.withCredentials(req, cur)
		if useJar {
			for _, ck := range c.jar.Cookies(cookieURL(cur)) {
				hreq.AddCookie(ck)
			}
		}

		c.log.DebugContext(ctx, "sending request",
			slog.String("method", method),
			slog.Any("url", cur),
			slog.Int("redirects", redirects),
		)
		hres, err := c.transport.RoundTrip(hreq)
		if err != nil {
			cancel()
			c.log.DebugContext(ctx, "request failed", slog.Any("url", cur), slog.Any("error", err))
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrFetchFailed, err))
		}
		if useJar {
			if cks := hres.Cookies(); len(cks) > 0 {
				c.jar.SetCookies(cookieURL(cur), cks)
			}
		}

		next, err := c.redirectTarget(cur, hres)
		if err != nil {
			closeBody(hres)
			cancel()
			return nil, errtrace.Wrap(err)
		}
		if next == nil {
			c.log.DebugContext(ctx, "response received",
				slog.Any("url", cur),
				slog.Int("status", hres.StatusCode),
				slog.Duration("elapsed", time.Since(start)),
			)
			if hres.Body != nil && hres.Body != http.NoBody {
				hres.Body = &cancelOnClose{ReadCloser: hres.Body, cancel: cancel}
			} else {
				cancel()
			}
			return newNetworkResponse(hres, cur, redirected), nil
		}
		closeBody(hres)

		if redirects >= c.maxRedirects {
			cancel()
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrFetchFailed, ErrTooManyRedirects))
		}
		if hres.StatusCode == http.StatusSeeOther && method != http.MethodHead ||
			(hres.StatusCode == http.StatusMovedPermanently || hres.StatusCode == http.StatusFound) && method == http.MethodPost {
			method = http.MethodGet
			payload = nil
		}
		c.log.DebugContext(ctx, "following redirect",
			slog.Any("from", cur),
			slog.Any("to", next),
			slog.Int("status", hres.StatusCode),
		)
		cur = next
		redirected = true
	}
}

// withCredentials reports whether the jar is used for req sent to cur.
func (c *Client) withCredentials(req *Request, cur *url.URL) bool {
	if c.jar == nil {
		return false
	}
	switch req.Credentials {
	case CredentialsInclude:
		return true
	case CredentialsSameOrigin:
		return cur.Origin() == req.URL.Origin()
	default:
		return false
	}
}

// redirectTarget returns the URL to follow for a redirect response, or nil
// when hres is final.
func (c *Client) redirectTarget(cur *url.URL, hres *http.Response) (*url.URL, error) {
	if c.maxRedirects < 0 || !isRedirectStatus(hres.StatusCode) {
		return nil, nil
	}
	loc := hres.Header.Get("Location")
	if loc == "" {
		return nil, nil
	}
	next, err := url.ParseRef(loc, cur)
	if err != nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrFetchFailed, err))
	}
	if p := next.Protocol(); p != "http:" && p != "https:" {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrFetchFailed, errorf(ErrUnsupportedScheme, p)))
	}
	if next.Hash() == "" && cur.Hash() != "" {
		next.SetHash(cur.Hash())
	}
	return next, nil
}

// CloseIdleConnections closes idle connections of the transport if it supports it.
func (c *Client) CloseIdleConnections() {
	if tr, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
		tr.CloseIdleConnections()
	}
}

func closeBody(hres *http.Response) {
	if hres.Body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(hres.Body, 4<<10)) //nolint:errcheck
	hres.Body.Close()
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	if errors.Is(err, io.EOF) {
		c.cancel()
	}
	return n, err //errtrace:skip
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return errtrace.Wrap(c.ReadCloser.Close())
}
