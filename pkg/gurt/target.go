package gurt

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

// Target is the parsed form of a gurt:// URL.
type Target struct {
	Host string
	Port int
	Path string
}

// ParseTarget decomposes a gurt:// URL into host, port, and path. The port
// defaults to 4878 and the path to "/"; a query string travels with the
// path. Any scheme other than exactly "gurt" is rejected.
func ParseTarget(rawURL string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrTarget, err)
	}
	if u.Scheme != "gurt" {
		return Target{}, fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", ErrTarget, rawURL)
	}

	port := wire.DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Target{}, fmt.Errorf("%w: port %q", ErrTarget, p)
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return Target{Host: host, Port: port, Path: path}, nil
}

// Addr returns the dialable host:port form.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}
