// Package gurt is a client for the GURT protocol: an HTTP-like
// request/response exchange over mandatory TLS 1.3, preceded by a plaintext
// handshake that negotiates the protocol version before the upgrade.
//
// Every request owns a dedicated connection for its lifetime; there is no
// pooling or multiplexing. Concurrent calls on one Client are independent
// and share only the read-only configuration.
package gurt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gurted/gurt-go/internal/observability"
	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

// Client issues GURT requests. Construct it once and reuse it freely; it
// holds no per-request state.
type Client struct {
	cfg Config
}

// New returns a client for cfg, which is validated once and never mutated.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg}, nil
}

// NewDefault returns a client with the reference configuration.
func NewDefault() *Client {
	return &Client{cfg: DefaultConfig()}
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Get issues a GET request.
func (c *Client) Get(url string) (*wire.Response, error) {
	return c.do(wire.MethodGet, url, "", nil)
}

// Head issues a HEAD request.
func (c *Client) Head(url string) (*wire.Response, error) {
	return c.do(wire.MethodHead, url, "", nil)
}

// Options issues an OPTIONS request.
func (c *Client) Options(url string) (*wire.Response, error) {
	return c.do(wire.MethodOptions, url, "", nil)
}

// Delete issues a DELETE request.
func (c *Client) Delete(url string) (*wire.Response, error) {
	return c.do(wire.MethodDelete, url, "", nil)
}

// Post issues a POST request with the given content type and body.
func (c *Client) Post(url, contentType string, body []byte) (*wire.Response, error) {
	return c.do(wire.MethodPost, url, contentType, body)
}

// Put issues a PUT request with the given content type and body.
func (c *Client) Put(url, contentType string, body []byte) (*wire.Response, error) {
	return c.do(wire.MethodPut, url, contentType, body)
}

// Patch issues a PATCH request with the given content type and body.
func (c *Client) Patch(url, contentType string, body []byte) (*wire.Response, error) {
	return c.do(wire.MethodPatch, url, contentType, body)
}

// PostJSON marshals v and POSTs it as application/json.
func (c *Client) PostJSON(url string, v any) (*wire.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal json body: %w", ErrProtocol, err)
	}
	return c.Post(url, "application/json", body)
}

func (c *Client) do(method wire.Method, rawURL, contentType string, body []byte) (*wire.Response, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	req := wire.NewRequest(method, target.Path)
	req.SetHeader("host", target.Host)
	req.SetHeader("user-agent", c.cfg.UserAgent)
	if contentType != "" {
		req.SetHeader("content-type", contentType)
	}
	if len(body) > 0 {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := c.roundTrip(target, req)
	elapsed := time.Since(start)

	if err != nil {
		observability.RecordRequestFailure(string(method), Kind(err))
		log.Debug().
			Str("method", string(method)).
			Str("addr", target.Addr()).
			Str("kind", Kind(err)).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("gurt: request failed")
		return nil, err
	}

	observability.RecordRequest(string(method), resp.StatusCode, elapsed)
	log.Debug().
		Str("method", string(method)).
		Str("addr", target.Addr()).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("gurt: request complete")
	return resp, nil
}

// roundTrip runs one full exchange: open (connect, handshake, TLS upgrade),
// send, receive, close. The earliest-failing phase is the one reported.
func (c *Client) roundTrip(target Target, req *wire.Request) (*wire.Response, error) {
	sess, err := Open(target, c.cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	var buf bytes.Buffer
	if err := wire.EncodeRequest(&buf, req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	if err := sess.Send(buf.Bytes()); err != nil {
		return nil, err
	}
	return sess.Receive(wire.NewDecoder(c.cfg.Limits))
}
