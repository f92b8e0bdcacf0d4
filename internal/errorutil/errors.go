// Package errorutil provides the sentinel error type and wrapping helpers
// used across the module.
package errorutil

//go:generate go tool errtrace -w .

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ghettovoice/ufetch/internal/util"
)

// Error is a constant sentinel error.
type Error string

func (s Error) Error() string { return string(s) }

// ErrInvalidArgument is returned for nil or malformed arguments.
const ErrInvalidArgument Error = "invalid argument"

// NewWrapperError attaches details to sentinel so that the result matches it with [errors.Is].
//
// args are interpreted by the first element:
//   - none or an unsupported type: sentinel itself
//   - error: "sentinel: err", or err unchanged when it already matches sentinel
//   - string: a message, formatted with the rest of args when present
func NewWrapperError(sentinel error, args ...any) error {
	if len(args) == 0 {
		return sentinel //errtrace:skip
	}
	var detail string
	switch v := args[0].(type) {
	case error:
		if errors.Is(v, sentinel) {
			return v //errtrace:skip
		}
		return fmt.Errorf("%w: %w", sentinel, v) //errtrace:skip
	case string:
		detail = v
		if len(args) > 1 {
			detail = fmt.Sprintf(v, args[1:]...)
		}
	default:
		return sentinel //errtrace:skip
	}
	return fmt.Errorf("%w: %s", sentinel, detail) //errtrace:skip
}

// NewInvalidArgumentError is [NewWrapperError] with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return NewWrapperError(ErrInvalidArgument, args...) //errtrace:skip
}

// Join combines errs skipping nil values. It returns nil when nothing is left
// and the single error when only one is left.
func Join(errs ...error) error {
	return JoinPrefix("", errs...) //errtrace:skip
}

// JoinPrefix is [Join] with a message put before the joined errors.
func JoinPrefix(prefix string, errs ...error) error {
	var kept []error
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	prefix = strings.TrimRight(prefix, ": ")
	switch {
	case len(kept) == 0:
		return nil
	case len(kept) == 1 && prefix == "":
		return kept[0] //errtrace:skip
	case len(kept) == 1:
		return fmt.Errorf("%s: %w", prefix, kept[0]) //errtrace:skip
	}
	return &multiError{prefix: prefix, errs: kept} //errtrace:skip
}

// multiError renders as "prefix: err1; err2".
type multiError struct {
	prefix string
	errs   []error
}

func (e *multiError) Error() string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)

	if e.prefix != "" {
		sb.WriteString(e.prefix)
		sb.WriteString(": ")
	}
	for i, err := range e.errs {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (e *multiError) Unwrap() []error { return e.errs }

// IsTimeoutErr reports whether err or an error it wraps is a timeout.
func IsTimeoutErr(err error) bool {
	var e interface{ Timeout() bool }
	return errors.As(err, &e) && e.Timeout()
}
