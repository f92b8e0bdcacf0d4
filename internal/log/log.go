// Package log provides logging utilities.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/golang-cz/devslog"
	"github.com/miekg/dns"
	"github.com/phsym/console-slog"
	slogformatter "github.com/samber/slog-formatter"

	"github.com/ghettovoice/ufetch/host"
	"github.com/ghettovoice/ufetch/internal/constraints"
	"github.com/ghettovoice/ufetch/url"
)

// NewHandler wraps h with the formatters for the module types.
var NewHandler = slogformatter.NewFormatterHandler(
	slogformatter.ErrorFormatter("error"),
	slogformatter.FormatByType(func(u *url.URL) slog.Value {
		if u == nil {
			return slog.StringValue("")
		}
		return slog.StringValue(u.Href())
	}),
	slogformatter.FormatByType(func(h host.Host) slog.Value {
		return slog.GroupValue(
			slog.String("kind", h.Kind().String()),
			slog.String("name", h.String()),
		)
	}),
	slogformatter.FormatByType(func(r *http.Request) slog.Value {
		if r == nil {
			return slog.StringValue("")
		}
		return slog.GroupValue(
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
		)
	}),
	slogformatter.FormatByType(func(m *dns.Msg) slog.Value {
		if m == nil {
			return slog.StringValue("")
		}
		attrs := []slog.Attr{
			slog.Uint64("id", uint64(m.Id)),
			slog.String("rcode", dns.RcodeToString[m.Rcode]),
			slog.Int("answers", len(m.Answer)),
		}
		if len(m.Question) > 0 {
			q := m.Question[0]
			attrs = append(attrs,
				slog.String("name", q.Name),
				slog.String("type", dns.TypeToString[q.Qtype]),
			)
		}
		return slog.GroupValue(attrs...)
	}),
)

// Def is a default logger.
var Def = slog.New(NewHandler(
	console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource:  true,
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339Nano,
	}),
))

// Dev is a developer logger.
var Dev = slog.New(NewHandler(
	devslog.NewHandler(os.Stderr, &devslog.Options{
		HandlerOptions: &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		},
		SortKeys:   true,
		TimeFormat: time.RFC3339Nano,
	}),
))

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (h noopHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h noopHandler) WithGroup(string) slog.Handler { return h }

// Noop is a noop logger.
var Noop = slog.New(noopHandler{})

// Or returns l, or [Noop] when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Noop
	}
	return l
}

type fmtValue struct {
	v        any
	goSyntax bool
}

func (v fmtValue) LogValue() slog.Value {
	if v.goSyntax {
		return slog.StringValue(fmt.Sprintf("%#v", v.v))
	}
	return slog.StringValue(fmt.Sprintf("%+v", v.v))
}

// FmtValue returns a value logger that formats values using '%+v' or '%#v' syntax.
func FmtValue(v any, goSyntax bool) slog.LogValuer { return fmtValue{v, goSyntax} }

type stringValue[T constraints.Byteseq] struct {
	v T
}

func (v stringValue[T]) LogValue() slog.Value {
	return slog.StringValue(string(v.v))
}

// StringValue returns a value logger that formats v as string.
func StringValue[T constraints.Byteseq](v T) slog.LogValuer { return stringValue[T]{v} }
