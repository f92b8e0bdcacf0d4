// Package ioutil contains writer helpers for RenderTo implementations.
package ioutil

import (
	"fmt"
	"io"
	"sync"

	"braces.dev/errtrace"
)

// CountingWriter sums the bytes written to the underlying writer.
// After the first failed write all further writes are skipped and
// [CountingWriter.Result] reports that error.
type CountingWriter struct {
	w   io.Writer
	num int
	err error
}

// NewCountingWriter creates a CountingWriter over w.
func NewCountingWriter(w io.Writer) *CountingWriter { return &CountingWriter{w: w} }

func (cw *CountingWriter) add(n int, err error) (int, error) {
	cw.num += n
	if err != nil {
		cw.err = errtrace.Wrap(err)
	}
	return n, cw.err //errtrace:skip
}

// Write implements [io.Writer].
func (cw *CountingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err //errtrace:skip
	}
	return cw.add(cw.w.Write(p))
}

// WriteString implements [io.StringWriter].
func (cw *CountingWriter) WriteString(s string) (int, error) {
	if cw.err != nil {
		return 0, cw.err //errtrace:skip
	}
	return cw.add(io.WriteString(cw.w, s))
}

// Fprint writes the operands in the [fmt.Fprint] manner.
func (cw *CountingWriter) Fprint(args ...any) (int, error) {
	if cw.err != nil {
		return 0, cw.err //errtrace:skip
	}
	return cw.add(fmt.Fprint(cw.w, args...))
}

// Call runs a RenderTo-style fn against the underlying writer.
func (cw *CountingWriter) Call(fn func(io.Writer) (int, error)) *CountingWriter {
	if cw.err == nil {
		cw.add(fn(cw.w)) //nolint:errcheck
	}
	return cw
}

// Result returns the number of bytes written and the first write error.
func (cw *CountingWriter) Result() (int, error) { return cw.num, cw.err } //errtrace:skip

var cntWrtPool = sync.Pool{
	New: func() any { return new(CountingWriter) },
}

// GetCountingWriter takes a writer over w from the pool.
func GetCountingWriter(w io.Writer) *CountingWriter {
	cw := cntWrtPool.Get().(*CountingWriter) //nolint:forcetypeassert
	cw.w = w
	return cw
}

// FreeCountingWriter resets cw and returns it to the pool.
func FreeCountingWriter(cw *CountingWriter) {
	*cw = CountingWriter{}
	cntWrtPool.Put(cw)
}
