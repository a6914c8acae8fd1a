package gurt

import (
	"errors"
	"testing"

	"github.com/gurted/gurt-go/internal/testutil/testlog"
)

func TestParseTarget(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		url  string
		want Target
	}{
		{
			name: "host only",
			url:  "gurt://example.dev",
			want: Target{Host: "example.dev", Port: 4878, Path: "/"},
		},
		{
			name: "explicit port and path",
			url:  "gurt://localhost:9000/api/items",
			want: Target{Host: "localhost", Port: 9000, Path: "/api/items"},
		},
		{
			name: "query string travels with path",
			url:  "gurt://example.dev/search?q=gurt&page=2",
			want: Target{Host: "example.dev", Port: 4878, Path: "/search?q=gurt&page=2"},
		},
		{
			name: "trailing slash",
			url:  "gurt://example.dev/",
			want: Target{Host: "example.dev", Port: 4878, Path: "/"},
		},
		{
			name: "ipv4 host",
			url:  "gurt://127.0.0.1:4878/",
			want: Target{Host: "127.0.0.1", Port: 4878, Path: "/"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTarget(tc.url)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.url, err)
			}
			if got != tc.want {
				t.Fatalf("parse %q: got %+v want %+v", tc.url, got, tc.want)
			}
		})
	}
}

func TestParseTargetErrors(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		url  string
		want error
	}{
		{name: "http scheme", url: "http://example.dev", want: ErrScheme},
		{name: "https scheme", url: "https://example.dev", want: ErrScheme},
		{name: "no scheme", url: "example.dev/path", want: ErrScheme},
		{name: "missing host", url: "gurt:///path", want: ErrTarget},
		{name: "bad port", url: "gurt://example.dev:notaport/", want: ErrTarget},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTarget(tc.url)
			if !errors.Is(err, tc.want) {
				t.Fatalf("parse %q: expected %v, got %v", tc.url, tc.want, err)
			}
		})
	}
}

func TestTargetAddr(t *testing.T) {
	testlog.Start(t)
	if got := (Target{Host: "example.dev", Port: 4878}).Addr(); got != "example.dev:4878" {
		t.Fatalf("addr %q", got)
	}
	if got := (Target{Host: "::1", Port: 4878}).Addr(); got != "[::1]:4878" {
		t.Fatalf("ipv6 addr %q", got)
	}
}
