package fetch_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/ufetch/fetch"
)

type trackingReader struct {
	io.Reader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

func TestNewResponse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		body       io.Reader
		init       *fetch.ResponseInit
		wantStatus int
		wantOK     bool
		wantErr    error
	}{
		{"defaults", nil, nil, 200, true, nil},
		{"not found", strings.NewReader("x"), &fetch.ResponseInit{Status: 404, StatusText: "Not Found"}, 404, false, nil},
		{"status too low", nil, &fetch.ResponseInit{Status: 199}, 0, false, fetch.ErrInvalidStatus},
		{"status too high", nil, &fetch.ResponseInit{Status: 600}, 0, false, fetch.ErrInvalidStatus},
		{"no content with body", strings.NewReader("x"), &fetch.ResponseInit{Status: 204}, 0, false, fetch.ErrBodyNotAllowed},
		{"not modified without body", nil, &fetch.ResponseInit{Status: 304}, 304, false, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			res, err := fetch.NewResponse(c.body, c.init)
			if c.wantErr != nil {
				if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
					t.Errorf("fetch.NewResponse() error = %v, want %v\ndiff (-got +want):\n%v", err, c.wantErr, diff)
				}
				return
			}
			if err != nil {
				t.Fatalf("fetch.NewResponse() error = %v, want nil", err)
			}
			if res.Status != c.wantStatus || res.OK() != c.wantOK {
				t.Errorf("fetch.NewResponse() status = %d ok = %v, want %d ok = %v",
					res.Status, res.OK(), c.wantStatus, c.wantOK,
				)
			}
			if res.Type != fetch.ResponseDefault {
				t.Errorf("fetch.NewResponse().Type = %q, want %q", res.Type, fetch.ResponseDefault)
			}
		})
	}
}

func TestResponse_Text(t *testing.T) {
	t.Parallel()

	r := &trackingReader{Reader: strings.NewReader("\xEF\xBB\xBFh\xC3\xA9llo \xFF")}
	res, err := fetch.NewResponse(r, nil)
	if err != nil {
		t.Fatalf("fetch.NewResponse() error = %v, want nil", err)
	}
	if res.Used() || res.IsNull() {
		t.Errorf("new response Used() = %v IsNull() = %v, want false false", res.Used(), res.IsNull())
	}

	got, err := res.Text(context.Background())
	if err != nil {
		t.Fatalf("res.Text() error = %v, want nil", err)
	}
	if want := "h\u00e9llo \uFFFD"; got != want {
		t.Errorf("res.Text() = %q, want %q", got, want)
	}
	if !r.closed {
		t.Errorf("underlying reader was not closed after reading")
	}
	if !res.Used() {
		t.Errorf("res.Used() = false after reading, want true")
	}

	_, err = res.Text(context.Background())
	if diff := cmp.Diff(err, fetch.ErrBodyUsed, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("second res.Text() error = %v, want %v", err, fetch.ErrBodyUsed)
	}
	_, err = res.Bytes(context.Background())
	if diff := cmp.Diff(err, fetch.ErrBodyUsed, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("res.Bytes() after Text() error = %v, want %v", err, fetch.ErrBodyUsed)
	}
}

func TestResponse_JSON(t *testing.T) {
	t.Parallel()

	res, err := fetch.NewResponse(strings.NewReader(`{"name":"ufetch","tags":["a","b"]}`), nil)
	if err != nil {
		t.Fatalf("fetch.NewResponse() error = %v, want nil", err)
	}
	var got struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	if err := res.JSON(context.Background(), &got); err != nil {
		t.Fatalf("res.JSON() error = %v, want nil", err)
	}
	if got.Name != "ufetch" || len(got.Tags) != 2 {
		t.Errorf("res.JSON() = %+v, want name ufetch and 2 tags", got)
	}
}

func TestResponse_Close(t *testing.T) {
	t.Parallel()

	r := &trackingReader{Reader: strings.NewReader("unread")}
	res, err := fetch.NewResponse(r, nil)
	if err != nil {
		t.Fatalf("fetch.NewResponse() error = %v, want nil", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("res.Close() error = %v, want nil", err)
	}
	if !r.closed || !res.Used() {
		t.Errorf("after res.Close() closed = %v used = %v, want true true", r.closed, res.Used())
	}
	if err := res.Close(); err != nil {
		t.Errorf("second res.Close() error = %v, want nil", err)
	}
	if _, err := res.Bytes(context.Background()); err == nil {
		t.Errorf("res.Bytes() after Close() error = nil, want error")
	}
}

func TestResponse_NullBody(t *testing.T) {
	t.Parallel()

	res := fetch.ErrorResponse()
	if res.Type != fetch.ResponseError || res.Status != 0 || !res.IsNull() {
		t.Errorf("fetch.ErrorResponse() = type %q status %d null %v, want error 0 true", res.Type, res.Status, res.IsNull())
	}
	got, err := res.Text(context.Background())
	if err != nil || got != "" {
		t.Errorf("res.Text() = (%q, %v), want (\"\", nil)", got, err)
	}
	if err := res.Headers.Set("a", "b"); err == nil {
		t.Errorf("error response headers are mutable")
	}
}
