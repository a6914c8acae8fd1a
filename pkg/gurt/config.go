package gurt

import (
	"fmt"
	"time"

	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

// Default timeouts, taken from the protocol reference values.
const (
	DefaultConnectTimeout   = 10 * time.Second
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultRequestTimeout   = 30 * time.Second
)

// Config is the immutable per-client configuration. One Config may be shared
// read-only across any number of requests; it is never mutated after
// construction.
type Config struct {
	// ConnectTimeout bounds the TCP dial. Zero means no explicit cap.
	ConnectTimeout time.Duration

	// HandshakeTimeout bounds the plaintext negotiation and, separately,
	// the TLS upgrade. Zero means no explicit cap.
	HandshakeTimeout time.Duration

	// RequestTimeout bounds each blocking send or receive after the session
	// is established. Zero means no explicit cap.
	RequestTimeout time.Duration

	// UserAgent identifies this client during the handshake and on every
	// request.
	UserAgent string

	// Insecure disables peer certificate verification. Unsafe; intended
	// only for self-signed development certificates.
	Insecure bool

	// Limits bounds decoder memory use. Zero values fall back to the
	// protocol defaults.
	Limits wire.Limits
}

// DefaultConfig returns the reference configuration: 10s connect, 5s
// handshake, 30s request, verification enabled.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   DefaultConnectTimeout,
		HandshakeTimeout: DefaultHandshakeTimeout,
		RequestTimeout:   DefaultRequestTimeout,
		UserAgent:        "gurt-go/" + wire.Version,
		Limits:           wire.DefaultLimits(),
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("%w: negative connect timeout", ErrConfig)
	}
	if c.HandshakeTimeout < 0 {
		return fmt.Errorf("%w: negative handshake timeout", ErrConfig)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: negative request timeout", ErrConfig)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("%w: user agent required", ErrConfig)
	}
	return nil
}
