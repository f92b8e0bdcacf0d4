package host

import "github.com/ghettovoice/ufetch/internal/errorutil"

// Error represents a host error.
// See [errorutil.Error].
type Error = errorutil.Error

// Host errors. Every error returned by the parser matches [ErrInvalidHost]
// and, where it applies, one of the more specific errors.
const (
	ErrInvalidHost        Error = "invalid host"
	ErrInvalidIPv4        Error = "invalid IPv4 address"
	ErrInvalidIPv6        Error = "invalid IPv6 address"
	ErrForbiddenCodePoint Error = "forbidden host code point"
)

func newInvalidHostError(args ...any) error {
	return errorutil.NewWrapperError(ErrInvalidHost, args...) //errtrace:skip
}

func newInvalidIPv4Error(format string, args ...any) error {
	return newInvalidHostError(errorutil.NewWrapperError(ErrInvalidIPv4, append([]any{format}, args...)...)) //errtrace:skip
}

func newInvalidIPv6Error(format string, args ...any) error {
	return newInvalidHostError(errorutil.NewWrapperError(ErrInvalidIPv6, append([]any{format}, args...)...)) //errtrace:skip
}

func newForbiddenCodePointError(s string, c byte) error {
	return newInvalidHostError(errorutil.NewWrapperError(ErrForbiddenCodePoint, "%q in %q", c, s)) //errtrace:skip
}
