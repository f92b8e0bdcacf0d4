package fetch

import "github.com/ghettovoice/ufetch/internal/errorutil"

// Error represents a fetch error.
// See [errorutil.Error].
type Error = errorutil.Error

const ErrInvalidArgument = errorutil.ErrInvalidArgument

const (
	ErrInvalidHeaderName  Error = "invalid header name"
	ErrInvalidHeaderValue Error = "invalid header value"
	ErrImmutableHeaders   Error = "immutable headers"
	ErrCredentialsInURL   Error = "request URL includes credentials"
	ErrForbiddenMethod    Error = "forbidden method"
	ErrBodyNotAllowed     Error = "body not allowed"
	ErrBodyUsed           Error = "body already used"
	ErrInvalidStatus      Error = "invalid status"
	ErrUnsupportedScheme  Error = "unsupported scheme"
	ErrTooManyRedirects   Error = "too many redirects"
	// ErrFetchFailed wraps transport and redirect failures.
	ErrFetchFailed Error = "failed to fetch"
)

func errorf(sentinel Error, val string) error {
	return errorutil.NewWrapperError(sentinel, "%q", val) //errtrace:skip
}
