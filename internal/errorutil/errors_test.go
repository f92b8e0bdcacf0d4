package errorutil_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/ufetch/internal/errorutil"
)

const errTest errorutil.Error = "test error"

func TestNewWrapperError(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	cases := []struct {
		name    string
		args    []any
		wantMsg string
		wantIs  []error
	}{
		{"no args", nil, "test error", []error{errTest}},
		{"message", []any{"bad input"}, "test error: bad input", []error{errTest}},
		{"formatted", []any{"bad %q at %d", "x", 3}, `test error: bad "x" at 3`, []error{errTest}},
		{"error", []any{inner}, "test error: inner", []error{errTest, inner}},
		{"already wrapped", []any{errorutil.NewWrapperError(errTest, "once")}, "test error: once", []error{errTest}},
		{"unsupported arg", []any{42}, "test error", []error{errTest}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			err := errorutil.NewWrapperError(errTest, c.args...)
			if got := err.Error(); got != c.wantMsg {
				t.Errorf("errorutil.NewWrapperError(%v) = %q, want %q", c.args, got, c.wantMsg)
			}
			for _, want := range c.wantIs {
				if diff := cmp.Diff(err, want, cmpopts.EquateErrors()); diff != "" {
					t.Errorf("errorutil.NewWrapperError(%v) does not match %v", c.args, want)
				}
			}
		})
	}
}

func TestJoinPrefix(t *testing.T) {
	t.Parallel()

	e1, e2 := errors.New("first"), errors.New("second")

	if err := errorutil.Join(nil, nil); err != nil {
		t.Errorf("errorutil.Join(nil, nil) = %v, want nil", err)
	}
	if err := errorutil.Join(nil, e1); err != e1 { //nolint:errorlint
		t.Errorf("errorutil.Join(nil, e1) = %v, want e1 itself", err)
	}

	cases := []struct {
		name   string
		prefix string
		errs   []error
		want   string
	}{
		{"single with prefix", "dial h:80:", []error{e1}, "dial h:80: first"},
		{"many", "", []error{e1, nil, e2}, "first; second"},
		{"many with prefix", "lookup", []error{e1, e2}, "lookup: first; second"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			err := errorutil.JoinPrefix(c.prefix, c.errs...)
			if got := err.Error(); got != c.want {
				t.Errorf("errorutil.JoinPrefix(%q) = %q, want %q", c.prefix, got, c.want)
			}
			if !errors.Is(err, e1) {
				t.Errorf("errorutil.JoinPrefix(%q) does not match first error", c.prefix)
			}
		})
	}
}

func TestIsTimeoutErr(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped dns timeout", errorutil.NewWrapperError(errTest, &net.DNSError{Err: "i/o timeout", IsTimeout: true}), true},
		{"dns not found", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			if got := errorutil.IsTimeoutErr(c.err); got != c.want {
				t.Errorf("errorutil.IsTimeoutErr(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}
