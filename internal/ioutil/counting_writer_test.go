package ioutil_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/ufetch/internal/ioutil"
)

type limitWriter struct {
	sb    strings.Builder
	limit int
}

var errFull = errors.New("writer is full")

func (w *limitWriter) Write(p []byte) (int, error) {
	if room := w.limit - w.sb.Len(); len(p) > room {
		w.sb.Write(p[:room])
		return room, errFull
	}
	return w.sb.Write(p)
}

func TestCountingWriter(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	cw := ioutil.GetCountingWriter(&sb)
	defer ioutil.FreeCountingWriter(cw)

	cw.WriteString("http")
	cw.Write([]byte("://"))
	cw.Call(func(w io.Writer) (int, error) { return io.WriteString(w, "host") })
	cw.Fprint(":", 8080)

	n, err := cw.Result()
	if err != nil {
		t.Fatalf("cw.Result() error = %v, want nil", err)
	}
	if want := "http://host:8080"; sb.String() != want || n != len(want) {
		t.Errorf("cw wrote (%q, %d), want (%q, %d)", sb.String(), n, want, len(want))
	}
}

func TestCountingWriter_StopsOnError(t *testing.T) {
	t.Parallel()

	w := &limitWriter{limit: 5}
	cw := ioutil.NewCountingWriter(w)

	cw.WriteString("abc")
	cw.WriteString("def")
	called := false
	cw.Call(func(io.Writer) (int, error) { called = true; return 0, nil })
	if n, err := cw.Fprint("ghi"); n != 0 || err == nil {
		t.Errorf("cw.Fprint() after failure = (%d, %v), want (0, error)", n, err)
	}

	n, err := cw.Result()
	if diff := cmp.Diff(err, errFull, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("cw.Result() error = %v, want %v", err, errFull)
	}
	if n != 5 || w.sb.String() != "abcde" {
		t.Errorf("cw.Result() = %d, wrote %q, want 5 and \"abcde\"", n, w.sb.String())
	}
	if called {
		t.Errorf("cw.Call() ran after a failed write")
	}
}
