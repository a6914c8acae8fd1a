// Package gurttest runs an in-process GURT server for end-to-end client
// tests: plaintext handshake, TLS 1.3 upgrade with ALPN, one request/response
// exchange per connection. Its parsing is deliberately independent of the
// client's codec so tests do not verify the codec against itself.
package gurttest

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gurted/gurt-go/internal/testutil/tlstest"
)

const (
	versionToken = "GURT/1.0.0"
	alpnToken    = "GURT/1.0"
)

// Request is one parsed inbound request, as seen by the test server.
type Request struct {
	Method  string
	Path    string
	Version string
	Headers map[string]string
	Body    []byte
}

// Options shapes the server's behavior for one test.
type Options struct {
	// RejectStatus, when non-zero, answers the handshake with this status
	// instead of 101. RejectMessage is the status message sent with it.
	RejectStatus  int
	RejectMessage string

	// SilentHandshake reads the hello and never answers, so the client's
	// handshake timeout fires.
	SilentHandshake bool

	// StallRequests completes the handshake and TLS upgrade but never
	// answers requests, so the client's request timeout fires.
	StallRequests bool

	// ALPN overrides the advertised application protocol token.
	ALPN string

	// Respond maps a request to raw response bytes. Nil installs the
	// default: 200 OK, text/plain, body "ok".
	Respond func(req Request) []byte
}

// Server is the listening endpoint. Close stops it and waits for in-flight
// connections.
type Server struct {
	t    *testing.T
	opts Options
	ln   net.Listener
	tcfg *tls.Config
	ca   *tlstest.Authority

	wg   sync.WaitGroup
	done chan struct{}
}

// Start listens on an ephemeral loopback port with a fresh self-signed
// certificate chain and serves connections until Close.
func Start(t *testing.T, opts Options) *Server {
	t.Helper()

	if opts.ALPN == "" {
		opts.ALPN = alpnToken
	}
	if opts.Respond == nil {
		opts.Respond = func(Request) []byte {
			return TextResponse(200, "OK", "text/plain", "ok")
		}
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("gurttest: listen: %v", err)
	}

	ca := tlstest.NewAuthority(t, "gurttest root")
	s := &Server{
		t:    t,
		opts: opts,
		ln:   ln,
		tcfg: ca.LoopbackServerConfig(t, opts.ALPN),
		ca:   ca,
		done: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// URL returns a gurt:// URL for path on this server.
func (s *Server) URL(path string) string {
	return "gurt://" + s.ln.Addr().String() + path
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops the listener and waits for connection handlers to finish.
func (s *Server) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	s.ln.Close()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	hello, err := readRequest(r)
	if err != nil || hello.Method != "HANDSHAKE" {
		return
	}

	if s.opts.SilentHandshake {
		<-s.done
		return
	}
	if s.opts.RejectStatus != 0 {
		fmt.Fprintf(conn, "%s %d %s\r\ncontent-length: 0\r\n\r\n",
			versionToken, s.opts.RejectStatus, s.opts.RejectMessage)
		return
	}

	fmt.Fprintf(conn, "%s 101 SWITCHING_PROTOCOLS\r\ncontent-length: 0\r\n\r\n", versionToken)

	tconn := tls.Server(conn, s.tcfg)
	if err := tconn.Handshake(); err != nil {
		return
	}
	defer tconn.Close()

	tr := bufio.NewReader(tconn)
	req, err := readRequest(tr)
	if err != nil {
		return
	}
	if s.opts.StallRequests {
		<-s.done
		return
	}
	tconn.Write(s.opts.Respond(req))
}

// readRequest parses one framed request: start line, headers, then a body of
// exactly content-length bytes.
func readRequest(r *bufio.Reader) (Request, error) {
	startLine, err := readLine(r)
	if err != nil {
		return Request{}, err
	}
	parts := strings.SplitN(startLine, " ", 3)
	if len(parts) != 3 {
		return Request{}, fmt.Errorf("gurttest: bad start line %q", startLine)
	}
	req := Request{
		Method:  parts[0],
		Path:    parts[1],
		Version: parts[2],
		Headers: make(map[string]string),
	}

	for {
		line, err := readLine(r)
		if err != nil {
			return Request{}, err
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return Request{}, fmt.Errorf("gurttest: bad header line %q", line)
		}
		req.Headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	if cl := req.Headers["content-length"]; cl != "" {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 {
			return Request{}, fmt.Errorf("gurttest: bad content-length %q", cl)
		}
		req.Body = make([]byte, n)
		if _, err := io.ReadFull(r, req.Body); err != nil {
			return Request{}, err
		}
	}
	return req, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

// TextResponse builds a framed response with a content-length body.
func TextResponse(status int, message, contentType, body string) []byte {
	return []byte(fmt.Sprintf("%s %d %s\r\ncontent-type: %s\r\ncontent-length: %d\r\n\r\n%s",
		versionToken, status, message, contentType, len(body), body))
}
