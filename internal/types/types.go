// Package types contains the interfaces shared by the module value types.
package types

//go:generate go tool errtrace -w .

import (
	"io"

	"braces.dev/errtrace"

	"github.com/ghettovoice/ufetch/internal/errorutil"
)

// Renderer is implemented by values with a textual serialization.
type Renderer interface {
	// Render returns the serialization as a string.
	Render(opts *RenderOptions) string
	// RenderTo writes the serialization to w and returns the number of bytes written.
	RenderTo(w io.Writer, opts *RenderOptions) (int, error)
}

// RenderOptions tune serialization. A nil *RenderOptions means defaults.
type RenderOptions struct {
	// ExcludeFragment omits the URL fragment.
	ExcludeFragment bool `json:"exclude_fragment,omitempty"`
}

// IsValid reports whether v has an IsValid method that returns true.
func IsValid(v any) bool {
	vv, ok := v.(interface{ IsValid() bool })
	return ok && vv.IsValid()
}

// Validate calls the Validate method of v.
// Values without one fail with [errorutil.ErrInvalidArgument].
func Validate(v any) error {
	vv, ok := v.(interface{ Validate() error })
	if !ok {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError("%T cannot be validated", v))
	}
	return errtrace.Wrap(vv.Validate())
}

// Clone returns v.Clone() when v has such a method returning T.
// Otherwise v itself is returned when it is a T, or the zero T.
func Clone[T any](v any) T {
	if c, ok := v.(interface{ Clone() T }); ok {
		return c.Clone()
	}
	t, _ := v.(T)
	return t
}
