package percent_test

import (
	"testing"

	"github.com/ghettovoice/ufetch/bytestring"
	"github.com/ghettovoice/ufetch/percent"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   byte
		want string
	}{
		{0x00, "%00"},
		{' ', "%20"},
		{0x7F, "%7F"},
		{0xAB, "%AB"},
		{0xFF, "%FF"},
	}
	for _, c := range cases {
		if got := percent.Encode(c.in); got != c.want {
			t.Errorf("percent.Encode(%#x) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEncodeSet_Contains(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		set  *percent.EncodeSet
		in   string
		out  string
	}{
		{"c0 control", &percent.C0Control, "\x00\x1F\x7F\x80\xFF", " azAZ09~!\"#%<>"},
		{"fragment", &percent.Fragment, " \"<>`\x00", "#?'{}%/"},
		{"query", &percent.Query, " \"#<>\x00", "'`?{}%/"},
		{"special query", &percent.SpecialQuery, " \"#<>'", "`?{}%/"},
		{"path", &percent.Path, " \"#<>?`{}", "'/:;=@%"},
		{"userinfo", &percent.Userinfo, "/:;=@[\\]^|?", "$%&+,!~*'()"},
		{"component", &percent.Component, "$%&+,/:@", "!~*'()-._"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			for i := 0; i < len(c.in); i++ {
				if !c.set.Contains(c.in[i]) {
					t.Errorf("set.Contains(%q) = false, want true", c.in[i])
				}
			}
			for i := 0; i < len(c.out); i++ {
				if c.set.Contains(c.out[i]) {
					t.Errorf("set.Contains(%q) = true, want false", c.out[i])
				}
			}
		})
	}
}

func TestEncodeAfterEncoding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		set  *percent.EncodeSet
		want string
	}{
		{"empty", "", &percent.Path, ""},
		{"untouched", "abc/def", &percent.Path, "abc/def"},
		{"space in path", "a b", &percent.Path, "a%20b"},
		{"non-ascii", "ü", &percent.Path, "%C3%BC"},
		{"supplementary", "😀", &percent.Fragment, "%F0%9F%98%80"},
		{"invalid utf8", "a\xFF", &percent.C0Control, "a%EF%BF%BD"},
		{"percent kept in path", "%zz", &percent.Path, "%zz"},
		{"percent escaped in component", "a%b", &percent.Component, "a%25b"},
		{"userinfo", "us:er@x", &percent.Userinfo, "us%3Aer%40x"},
		{"special query quote", "a'b", &percent.SpecialQuery, "a%27b"},
		{"query quote", "a'b", &percent.Query, "a'b"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			if got := percent.EncodeAfterEncoding(c.in, c.set); got != c.want {
				t.Errorf("percent.EncodeAfterEncoding(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestEncodeRune(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   rune
		set  *percent.EncodeSet
		want string
	}{
		{'a', &percent.C0Control, "a"},
		{' ', &percent.Fragment, "%20"},
		{' ', &percent.C0Control, " "},
		{'é', &percent.C0Control, "%C3%A9"},
		{0xD800, &percent.C0Control, "%EF%BF%BD"},
	}
	for _, c := range cases {
		if got := percent.EncodeRune(c.in, c.set); got != c.want {
			t.Errorf("percent.EncodeRune(%U) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want bytestring.ByteString
	}{
		{"empty", "", ""},
		{"plain", "abc", "abc"},
		{"space", "a%20b", "a b"},
		{"lower hex", "%c3%bc", "\xC3\xBC"},
		{"raw byte", "%FF", "\xFF"},
		{"trailing percent", "a%", "a%"},
		{"one digit", "a%2", "a%2"},
		{"bad digits", "%zz%2g", "%zz%2g"},
		{"double percent", "%%41", "%A"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			if got := percent.Decode(c.in); got != c.want {
				t.Errorf("percent.Decode(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	texts := []string{"", "a b", "ключ=значение&x", "100%", "😀/?#"}
	for _, s := range texts {
		enc := percent.EncodeAfterEncoding(s, &percent.Component)
		if got := bytestring.Decode(percent.Decode(enc)); got != s {
			t.Errorf("decode(percent.EncodeAfterEncoding(%q)) = %q, want %q", s, got, s)
		}
	}
}
