package handshake

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

// serveAck reads the client hello off conn and answers with raw.
func serveAck(t *testing.T, conn net.Conn, raw string) {
	t.Helper()
	go func() {
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if line == "\r\n" {
				break
			}
		}
		io.WriteString(conn, raw)
	}()
}

func TestRunAccepted(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	helloLine := make(chan string, 1)
	go func() {
		r := bufio.NewReader(server)
		start, _ := r.ReadString('\n')
		helloLine <- start
		for {
			line, err := r.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		io.WriteString(server, "GURT/1.0.0 101 SWITCHING_PROTOCOLS\r\ncontent-length: 0\r\n\r\n")
	}()

	e := New("gurt-go-test/1.0")
	out, err := e.Run(client, "localhost", time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Proto != wire.ALPNToken {
		t.Fatalf("negotiated proto %q", out.Proto)
	}
	if e.State() != StateAccepted {
		t.Fatalf("state %v", e.State())
	}
	if got := <-helloLine; got != "HANDSHAKE / GURT/1.0.0\r\n" {
		t.Fatalf("hello start line %q", got)
	}
}

func TestRunRejectedCarriesPeerReason(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serveAck(t, server, "GURT/1.0.0 400 unsupported-version\r\ncontent-length: 0\r\n\r\n")

	e := New("gurt-go-test/1.0")
	_, err := e.Run(client, "localhost", time.Now().Add(time.Second))
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported-version") {
		t.Fatalf("peer reason missing from %q", err)
	}
	if e.State() != StateRejected {
		t.Fatalf("state %v", e.State())
	}
}

func TestRunTimesOutWithoutAck(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	// Drain the hello but never answer.
	go io.Copy(io.Discard, server)

	e := New("gurt-go-test/1.0")
	start := time.Now()
	_, err := e.Run(client, "localhost", time.Now().Add(50*time.Millisecond))
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout did not bound the wait")
	}
	if e.State() != StateTimedOut {
		t.Fatalf("state %v", e.State())
	}
}

func TestRunMalformedAck(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serveAck(t, server, "NOT A GURT RESPONSE\r\n")

	e := New("gurt-go-test/1.0")
	_, err := e.Run(client, "localhost", time.Now().Add(time.Second))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestRunClosedBeforeAck(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		r := bufio.NewReader(server)
		for {
			line, err := r.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		server.Close()
	}()

	e := New("gurt-go-test/1.0")
	_, err := e.Run(client, "localhost", time.Now().Add(time.Second))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed on early close, got %v", err)
	}
}

func TestRunSingleUse(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serveAck(t, server, "GURT/1.0.0 101 SWITCHING_PROTOCOLS\r\ncontent-length: 0\r\n\r\n")

	e := New("gurt-go-test/1.0")
	if _, err := e.Run(client, "localhost", time.Now().Add(time.Second)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := e.Run(client, "localhost", time.Now().Add(time.Second)); !errors.Is(err, ErrSpent) {
		t.Fatalf("expected ErrSpent, got %v", err)
	}
}

func TestStateStrings(t *testing.T) {
	states := map[State]string{
		StateIdle:        "idle",
		StateSentHello:   "sent-hello",
		StateAwaitingAck: "awaiting-ack",
		StateAccepted:    "accepted",
		StateRejected:    "rejected",
		StateTimedOut:    "timed-out",
	}
	for s, want := range states {
		if s.String() != want {
			t.Fatalf("state %d: %q", s, s.String())
		}
	}
}
