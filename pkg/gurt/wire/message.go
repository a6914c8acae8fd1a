// Package wire implements the GURT text framing: request encoding and
// incremental response decoding. The codec performs no I/O.
package wire

import (
	"encoding/json"
	"strings"
)

// Protocol constants shared by the codec, the handshake, and the transport.
const (
	Version      = "1.0.0"
	VersionToken = "GURT/" + Version
	ALPNToken    = "GURT/1.0"
	DefaultPort  = 4878

	lineEnd   = "\r\n"
	headerEnd = "\r\n\r\n"
)

// Method is a GURT request method.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodPatch   Method = "PATCH"

	// MethodHandshake is the plaintext pre-TLS negotiation verb. It never
	// appears inside a TLS-wrapped exchange.
	MethodHandshake Method = "HANDSHAKE"
)

var methods = map[Method]struct{}{
	MethodGet:       {},
	MethodPost:      {},
	MethodPut:       {},
	MethodDelete:    {},
	MethodHead:      {},
	MethodOptions:   {},
	MethodPatch:     {},
	MethodHandshake: {},
}

// Valid reports whether m is one of the defined GURT methods.
func (m Method) Valid() bool {
	_, ok := methods[m]
	return ok
}

// Header is one name/value pair. Names are stored lowercased.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header collection. Wire order is insertion order;
// lookups are case-insensitive. Names are lowercased on insertion, matching
// the canonical GURT form.
type Headers struct {
	pairs []Header
}

// Set replaces the value of name, or appends it if absent.
func (h *Headers) Set(name, value string) {
	name = strings.ToLower(name)
	for i := range h.pairs {
		if h.pairs[i].Name == name {
			h.pairs[i].Value = value
			return
		}
	}
	h.pairs = append(h.pairs, Header{Name: name, Value: value})
}

// Add appends a header without replacing existing entries of the same name.
func (h *Headers) Add(name, value string) {
	h.pairs = append(h.pairs, Header{Name: strings.ToLower(name), Value: value})
}

// Get returns the first value of name, case-insensitively.
func (h *Headers) Get(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, p := range h.pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// All returns the pairs in wire order. The slice is shared; callers must not
// modify it.
func (h *Headers) All() []Header {
	return h.pairs
}

// Len returns the number of header pairs.
func (h *Headers) Len() int {
	return len(h.pairs)
}

// Request is one GURT request. It is built fresh per call and must not be
// mutated after being handed to the encoder.
type Request struct {
	Method  Method
	Path    string
	Version string
	Headers Headers
	Body    []byte
}

// NewRequest constructs a request for the current protocol version.
func NewRequest(method Method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Version: Version,
	}
}

// SetHeader sets one header, replacing any existing value.
func (r *Request) SetHeader(name, value string) *Request {
	r.Headers.Set(name, value)
	return r
}

// SetBody sets the raw request body.
func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	return r
}

// Response is one decoded GURT response. It is immutable once produced by
// the decoder; ownership passes to the caller.
type Response struct {
	Version       string
	StatusCode    int
	StatusMessage string
	Headers       Headers
	Body          []byte
}

// Header returns a response header value, case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	return r.Headers.Get(name)
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON unmarshals the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsClientError reports whether the status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError reports whether the status code is 500 or above.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}
