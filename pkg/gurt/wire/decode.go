package wire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Limits bounds decoder memory use against a malicious or buggy server.
type Limits struct {
	MaxHeaderBytes int
	MaxBodyBytes   int
}

// DefaultLimits returns the protocol defaults: 64 KiB of header section and
// a 10 MiB body.
func DefaultLimits() Limits {
	return Limits{
		MaxHeaderBytes: 64 * 1024,
		MaxBodyBytes:   10 * 1024 * 1024,
	}
}

// maxChunkSizeLine bounds the hex size line of one chunk, terminator included.
const maxChunkSizeLine = 18

type decodeState int

const (
	stateStatusLine decodeState = iota
	stateHeaders
	stateBodyFixed
	stateBodyChunked
	stateBodyUntilClose
	stateDone
)

type chunkPhase int

const (
	chunkSize chunkPhase = iota
	chunkData
	chunkDataEnd
	chunkLast
)

// Decoder incrementally parses one GURT response from bytes supplied as they
// arrive off the wire. Feed reports completion; Finish signals end of stream
// for bodies delimited by connection close. A Decoder parses exactly one
// response and is not reusable.
type Decoder struct {
	limits Limits

	state decodeState
	phase chunkPhase

	buf         []byte
	headerBytes int
	bodyNeed    int
	chunkNeed   int

	resp *Response
	body bytes.Buffer
	err  error
}

// NewDecoder returns a decoder enforcing the given limits. Zero-valued
// limits fall back to DefaultLimits.
func NewDecoder(limits Limits) *Decoder {
	if limits.MaxHeaderBytes <= 0 {
		limits.MaxHeaderBytes = DefaultLimits().MaxHeaderBytes
	}
	if limits.MaxBodyBytes <= 0 {
		limits.MaxBodyBytes = DefaultLimits().MaxBodyBytes
	}
	return &Decoder{
		limits: limits,
		resp:   &Response{},
	}
}

// Feed appends p to the decoder's input and advances the parse. It returns
// done=true once a complete response is available, or a protocol error, which
// is sticky. Bytes arriving after completion are a framing violation.
func (d *Decoder) Feed(p []byte) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.state == stateDone {
		if len(p) > 0 {
			return true, d.fail(ErrTrailingData)
		}
		return true, nil
	}
	d.buf = append(d.buf, p...)
	if err := d.advance(); err != nil {
		return false, err
	}
	return d.state == stateDone, nil
}

// Finish signals that the peer closed the connection. For a body delimited
// by connection close this completes the response; any other unfinished
// state is a truncation error.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	switch d.state {
	case stateDone:
		return nil
	case stateBodyUntilClose:
		d.complete()
		return nil
	default:
		return d.fail(ErrTruncated)
	}
}

// Done reports whether a complete response is available.
func (d *Decoder) Done() bool {
	return d.state == stateDone && d.err == nil
}

// Response returns the decoded response once Done reports true, nil before.
func (d *Decoder) Response() *Response {
	if !d.Done() {
		return nil
	}
	return d.resp
}

func (d *Decoder) fail(err error) error {
	d.err = err
	return err
}

func (d *Decoder) advance() error {
	for {
		switch d.state {
		case stateStatusLine:
			line, ok, err := d.nextHeaderLine()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := d.parseStatusLine(line); err != nil {
				return d.fail(err)
			}
			d.state = stateHeaders

		case stateHeaders:
			line, ok, err := d.nextHeaderLine()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if len(line) == 0 {
				if err := d.beginBody(); err != nil {
					return d.fail(err)
				}
				continue
			}
			if err := d.parseHeaderLine(line); err != nil {
				return d.fail(err)
			}

		case stateBodyFixed:
			take := min(len(d.buf), d.bodyNeed)
			d.body.Write(d.buf[:take])
			d.buf = d.buf[take:]
			d.bodyNeed -= take
			if d.bodyNeed > 0 {
				return nil
			}
			d.complete()

		case stateBodyChunked:
			progressed, err := d.advanceChunked()
			if err != nil {
				return d.fail(err)
			}
			if !progressed {
				return nil
			}

		case stateBodyUntilClose:
			if d.body.Len()+len(d.buf) > d.limits.MaxBodyBytes {
				return d.fail(ErrBodyTooLarge)
			}
			d.body.Write(d.buf)
			d.buf = nil
			return nil

		case stateDone:
			if len(d.buf) > 0 {
				return d.fail(ErrTrailingData)
			}
			return nil
		}
	}
}

// nextHeaderLine extracts one CRLF-terminated line from the buffer, counting
// it against the header-section limit. ok=false means more bytes are needed.
func (d *Decoder) nextHeaderLine() ([]byte, bool, error) {
	idx := bytes.Index(d.buf, []byte(lineEnd))
	if idx < 0 {
		if d.headerBytes+len(d.buf) > d.limits.MaxHeaderBytes {
			return nil, false, d.fail(ErrHeaderTooLarge)
		}
		return nil, false, nil
	}
	d.headerBytes += idx + len(lineEnd)
	if d.headerBytes > d.limits.MaxHeaderBytes {
		return nil, false, d.fail(ErrHeaderTooLarge)
	}
	line := d.buf[:idx]
	d.buf = d.buf[idx+len(lineEnd):]
	return line, true, nil
}

func (d *Decoder) parseStatusLine(line []byte) error {
	parts := strings.SplitN(string(line), " ", 3)
	if len(parts) < 2 {
		return fmt.Errorf("%w: %q", ErrMalformedStatusLine, line)
	}
	version, ok := strings.CutPrefix(parts[0], "GURT/")
	if !ok || version == "" {
		return fmt.Errorf("%w: bad protocol token %q", ErrMalformedStatusLine, parts[0])
	}
	code, err := parseStatusCode(parts[1])
	if err != nil {
		return err
	}
	d.resp.Version = version
	d.resp.StatusCode = code
	if len(parts) == 3 && parts[2] != "" {
		d.resp.StatusMessage = parts[2]
	} else {
		d.resp.StatusMessage = StatusText(code)
	}
	return nil
}

func parseStatusCode(s string) (int, error) {
	if len(s) != 3 {
		return 0, fmt.Errorf("%w: status code %q", ErrMalformedStatusLine, s)
	}
	code, err := strconv.Atoi(s)
	if err != nil || code < 100 || code > 599 {
		return 0, fmt.Errorf("%w: status code %q", ErrMalformedStatusLine, s)
	}
	return code, nil
}

func (d *Decoder) parseHeaderLine(line []byte) error {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}
	name := strings.ToLower(strings.TrimSpace(string(line[:idx])))
	if name == "" {
		return fmt.Errorf("%w: empty name in %q", ErrMalformedHeader, line)
	}
	value := strings.TrimSpace(string(line[idx+1:]))
	d.resp.Headers.Add(name, value)
	return nil
}

// beginBody selects body framing once the header section is complete:
// chunked transfer encoding, a content-length, or read-until-close.
func (d *Decoder) beginBody() error {
	if te, ok := d.resp.Headers.Get("transfer-encoding"); ok {
		if strings.ToLower(strings.TrimSpace(te)) != "chunked" {
			return fmt.Errorf("%w: transfer-encoding %q", ErrMalformedHeader, te)
		}
		d.state = stateBodyChunked
		d.phase = chunkSize
		return nil
	}
	if cl, ok := d.resp.Headers.Get("content-length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %q", ErrInvalidContentLength, cl)
		}
		if n > d.limits.MaxBodyBytes {
			return fmt.Errorf("%w: declared %d bytes", ErrBodyTooLarge, n)
		}
		if n == 0 {
			d.complete()
			return nil
		}
		d.bodyNeed = n
		d.state = stateBodyFixed
		return nil
	}
	d.state = stateBodyUntilClose
	return nil
}

// advanceChunked consumes at most one chunk-framing element. It reports
// whether any progress was made; no progress means more bytes are needed.
func (d *Decoder) advanceChunked() (bool, error) {
	switch d.phase {
	case chunkSize:
		idx := bytes.Index(d.buf, []byte(lineEnd))
		if idx < 0 {
			if len(d.buf) > maxChunkSizeLine {
				return false, ErrMalformedChunk
			}
			return false, nil
		}
		size, err := parseChunkSize(d.buf[:idx])
		if err != nil {
			return false, err
		}
		d.buf = d.buf[idx+len(lineEnd):]
		if size == 0 {
			d.phase = chunkLast
			return true, nil
		}
		if d.body.Len()+size > d.limits.MaxBodyBytes {
			return false, ErrBodyTooLarge
		}
		d.chunkNeed = size
		d.phase = chunkData
		return true, nil

	case chunkData:
		take := min(len(d.buf), d.chunkNeed)
		d.body.Write(d.buf[:take])
		d.buf = d.buf[take:]
		d.chunkNeed -= take
		if d.chunkNeed > 0 {
			return false, nil
		}
		d.phase = chunkDataEnd
		return true, nil

	case chunkDataEnd:
		if len(d.buf) < len(lineEnd) {
			return false, nil
		}
		if !bytes.HasPrefix(d.buf, []byte(lineEnd)) {
			return false, ErrMalformedChunk
		}
		d.buf = d.buf[len(lineEnd):]
		d.phase = chunkSize
		return true, nil

	case chunkLast:
		if len(d.buf) < len(lineEnd) {
			return false, nil
		}
		if !bytes.HasPrefix(d.buf, []byte(lineEnd)) {
			return false, ErrMalformedChunk
		}
		d.buf = d.buf[len(lineEnd):]
		d.complete()
		return true, nil
	}
	return false, nil
}

func parseChunkSize(line []byte) (int, error) {
	s := strings.TrimSpace(string(line))
	if s == "" {
		return 0, ErrMalformedChunk
	}
	size, err := strconv.ParseInt(s, 16, 32)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%w: size line %q", ErrMalformedChunk, line)
	}
	return int(size), nil
}

func (d *Decoder) complete() {
	d.resp.Body = d.body.Bytes()
	d.state = stateDone
}
