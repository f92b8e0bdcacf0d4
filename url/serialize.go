package url

import (
	"io"

	"braces.dev/errtrace"

	"github.com/ghettovoice/ufetch/internal/ioutil"
	"github.com/ghettovoice/ufetch/internal/types"
	"github.com/ghettovoice/ufetch/internal/util"
)

// RenderOptions control URL serialization.
type RenderOptions = types.RenderOptions

// RenderTo writes the serialized record to w.
func (r *Record) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	if r == nil {
		return 0, nil
	}

	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(r.Scheme)
	cw.WriteString(":")
	if !r.Host.IsZero() {
		cw.WriteString("//")
		if r.includesCredentials() {
			cw.WriteString(r.Username)
			if r.Password != "" {
				cw.WriteString(":")
				cw.WriteString(r.Password)
			}
			cw.WriteString("@")
		}
		cw.WriteString(r.Host.String())
		if r.HasPort {
			cw.WriteString(":")
			cw.WriteString(portString(r.Port))
		}
	} else if !r.CannotBeABase && len(r.Path) > 1 && r.Path[0] == "" {
		cw.WriteString("/.")
	}
	cw.Call(r.renderPath)
	if r.HasQuery {
		cw.WriteString("?")
		cw.WriteString(r.Query)
	}
	if (opts == nil || !opts.ExcludeFragment) && r.Fragment != "" {
		cw.WriteString("#")
		cw.WriteString(r.Fragment)
	}
	return errtrace.Wrap2(cw.Result())
}

func (r *Record) renderPath(w io.Writer) (num int, err error) {
	if r.CannotBeABase {
		if len(r.Path) == 0 {
			return 0, nil
		}
		return errtrace.Wrap2(io.WriteString(w, r.Path[0]))
	}

	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for _, seg := range r.Path {
		cw.WriteString("/")
		cw.WriteString(seg)
	}
	return errtrace.Wrap2(cw.Result())
}

// Render returns the serialized record.
func (r *Record) Render(opts *RenderOptions) string {
	if r == nil {
		return ""
	}
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	r.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

// Href serializes the record, optionally without the fragment.
func (r *Record) Href(excludeFragment bool) string {
	return r.Render(&RenderOptions{ExcludeFragment: excludeFragment})
}

// String returns the serialized record.
func (r *Record) String() string { return r.Render(nil) }

// Pathname returns the serialized path.
func (r *Record) Pathname() string {
	if r == nil {
		return ""
	}
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	r.renderPath(sb) //nolint:errcheck
	return sb.String()
}

var tupleOriginSchemes = map[string]bool{
	"ftp":   true,
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
}

// Origin returns the ASCII serialization of the record's origin.
// Schemes without a tuple origin serialize as "null".
func (r *Record) Origin() string {
	if r == nil || !tupleOriginSchemes[r.Scheme] {
		return "null"
	}
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	sb.WriteString(r.Scheme)
	sb.WriteString("://")
	sb.WriteString(r.Host.String())
	if r.HasPort {
		sb.WriteByte(':')
		sb.WriteString(portString(r.Port))
	}
	return sb.String()
}
