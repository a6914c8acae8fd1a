package wire

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncodeRequestBasic(t *testing.T) {
	req := NewRequest(MethodGet, "/index")
	req.SetHeader("Host", "localhost")
	req.SetHeader("User-Agent", "gurt-go/1.0.0")

	var buf bytes.Buffer
	if err := EncodeRequest(&buf, req); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got := buf.String()
	want := "GET /index GURT/1.0.0\r\n" +
		"host: localhost\r\n" +
		"user-agent: gurt-go/1.0.0\r\n" +
		"content-length: 0\r\n" +
		"\r\n"
	if got != want {
		t.Fatalf("unexpected encoding:\ngot  %q\nwant %q", got, want)
	}
}

func TestEncodeRequestInjectsContentLength(t *testing.T) {
	req := NewRequest(MethodPost, "/submit")
	req.SetHeader("host", "example.dev")
	req.SetBody([]byte("hello world"))

	var buf bytes.Buffer
	if err := EncodeRequest(&buf, req); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), "content-length: 11\r\n") {
		t.Fatalf("missing injected content-length: %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\r\n\r\nhello world") {
		t.Fatalf("body not appended after blank line: %q", buf.String())
	}
}

func TestEncodeRequestKeepsExplicitContentLength(t *testing.T) {
	req := NewRequest(MethodPost, "/submit")
	req.SetHeader("content-length", "3")
	req.SetBody([]byte("abc"))

	var buf bytes.Buffer
	if err := EncodeRequest(&buf, req); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Count(buf.String(), "content-length") != 1 {
		t.Fatalf("expected exactly one content-length header: %q", buf.String())
	}
}

func TestEncodeRequestHeaderOrderIsInsertionOrder(t *testing.T) {
	req := NewRequest(MethodGet, "/")
	req.SetHeader("b-second", "2")
	req.SetHeader("a-first", "1")
	req.SetHeader("b-second", "22")

	var buf bytes.Buffer
	if err := EncodeRequest(&buf, req); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := buf.String()
	if strings.Index(got, "b-second: 22") > strings.Index(got, "a-first: 1") {
		t.Fatalf("insertion order not preserved: %q", got)
	}
}

func TestEncodeRequestRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		req  *Request
		want error
	}{
		{
			name: "nil request",
			req:  nil,
			want: ErrInvalidMethod,
		},
		{
			name: "unknown method",
			req:  NewRequest(Method("FETCH"), "/"),
			want: ErrInvalidMethod,
		},
		{
			name: "empty path",
			req:  NewRequest(MethodGet, ""),
			want: ErrInvalidPath,
		},
		{
			name: "path with space",
			req:  NewRequest(MethodGet, "/a b"),
			want: ErrInvalidPath,
		},
		{
			name: "header value with crlf",
			req:  NewRequest(MethodGet, "/").SetHeader("x-bad", "a\r\nb"),
			want: ErrInvalidHeader,
		},
		{
			name: "header name with space",
			req:  NewRequest(MethodGet, "/").SetHeader("x bad", "v"),
			want: ErrInvalidHeader,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := EncodeRequest(&buf, tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestHeadersCaseInsensitiveLookup(t *testing.T) {
	var h Headers
	h.Set("Content-Type", "text/plain")

	for _, key := range []string{"content-type", "Content-Type", "CONTENT-TYPE", "CoNtEnT-tYpE"} {
		v, ok := h.Get(key)
		if !ok || v != "text/plain" {
			t.Fatalf("lookup %q: got %q ok=%v", key, v, ok)
		}
	}

	h.Set("CONTENT-TYPE", "application/json")
	if h.Len() != 1 {
		t.Fatalf("Set with different casing should replace, have %d pairs", h.Len())
	}
	if v, _ := h.Get("content-type"); v != "application/json" {
		t.Fatalf("unexpected value %q", v)
	}
}
