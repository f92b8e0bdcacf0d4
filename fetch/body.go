package fetch

import (
	"context"
	"encoding/json"
	"io"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/ufetch/bytestring"
)

type bodyState string

const (
	bodyUnused bodyState = "unused"
	bodyUsed   bodyState = "used"
)

type bodyTrigger string

const (
	triggerConsume bodyTrigger = "consume"
	triggerCancel  bodyTrigger = "cancel"
)

// Body is a one-shot request or response payload.
// Reading it with [Body.Bytes], [Body.Text] or [Body.JSON], or closing it,
// moves it to the used state, after which every read fails with [ErrBodyUsed].
//
// A Body is not safe for concurrent reads.
type Body struct {
	null bool
	rc   io.ReadCloser
	data []byte
	sm   *stateless.StateMachine
}

func newBody(r io.Reader) *Body {
	b := &Body{null: r == nil}
	if r != nil {
		rc, ok := r.(io.ReadCloser)
		if !ok {
			rc = io.NopCloser(r)
		}
		b.rc = rc
	}

	b.sm = stateless.NewStateMachine(bodyUnused)
	b.sm.Configure(bodyUnused).
		Permit(triggerConsume, bodyUsed).
		Permit(triggerCancel, bodyUsed)
	b.sm.Configure(bodyUsed).
		OnEntryFrom(triggerConsume, func(context.Context, ...any) error {
			return b.drain()
		}).
		OnEntryFrom(triggerCancel, func(context.Context, ...any) error {
			return b.release()
		})
	return b
}

func (b *Body) drain() error {
	if b.rc == nil {
		return nil
	}
	data, err := io.ReadAll(b.rc)
	if cerr := b.release(); err == nil {
		err = cerr
	}
	b.data = data
	return errtrace.Wrap(err)
}

func (b *Body) release() error {
	if b.rc == nil {
		return nil
	}
	rc := b.rc
	b.rc = nil
	return errtrace.Wrap(rc.Close())
}

// IsNull reports whether the body was created without a payload.
func (b *Body) IsNull() bool { return b == nil || b.null }

// Used reports whether the body has been read or closed.
func (b *Body) Used() bool {
	return b != nil && b.sm.MustState() == bodyUsed
}

func (b *Body) consume(ctx context.Context) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	if b.Used() {
		return nil, errtrace.Wrap(ErrBodyUsed)
	}
	if err := b.sm.FireCtx(ctx, triggerConsume); err != nil {
		return nil, errtrace.Wrap(err)
	}
	data := b.data
	b.data = nil
	return data, nil
}

// Bytes reads the whole body.
func (b *Body) Bytes(ctx context.Context) ([]byte, error) {
	return errtrace.Wrap2(b.consume(ctx))
}

// Text reads the whole body and decodes it as UTF-8, dropping a leading BOM
// and replacing invalid sequences with U+FFFD.
func (b *Body) Text(ctx context.Context) (string, error) {
	data, err := b.consume(ctx)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	return bytestring.Decode(data), nil
}

// JSON reads the body as text and unmarshals it into v.
func (b *Body) JSON(ctx context.Context, v any) error {
	text, err := b.Text(ctx)
	if err != nil {
		return errtrace.Wrap(err)
	}
	return errtrace.Wrap(json.Unmarshal([]byte(text), v))
}

// Close releases the underlying reader without reading it.
// Closing a used body is a no-op.
func (b *Body) Close() error {
	if b == nil || b.Used() {
		return nil
	}
	return errtrace.Wrap(b.sm.Fire(triggerCancel))
}
