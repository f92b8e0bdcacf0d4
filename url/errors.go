package url

import "github.com/ghettovoice/ufetch/internal/errorutil"

// Error represents a URL error.
// See [errorutil.Error].
type Error = errorutil.Error

// ErrInvalidURL is matched by every parse failure. The specific cause is wrapped alongside it.
const ErrInvalidURL Error = "invalid URL"

// Parse failure causes.
const (
	ErrInvalidScheme      Error = "invalid scheme"
	ErrMissingBase        Error = "relative URL without a base"
	ErrEmptyHost          Error = "empty host"
	ErrInvalidPort        Error = "invalid port"
	ErrInvalidCredentials Error = "credentials without host"
)

func newInvalidURLError(cause error, input string) error {
	return errorutil.NewWrapperError(ErrInvalidURL, errorutil.NewWrapperError(cause, "%q", input)) //errtrace:skip
}
