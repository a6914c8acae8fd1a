// Package handshake drives the plaintext GURT negotiation that precedes the
// TLS upgrade. The client sends a HANDSHAKE request; the server accepts with
// status 101 (SWITCHING_PROTOCOLS) or rejects with any other well-formed
// response. On acceptance both ends upgrade to TLS 1.3 using the negotiated
// application protocol token.
package handshake

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

var (
	ErrRejected  = errors.New("handshake: rejected by peer")
	ErrTimedOut  = errors.New("handshake: timed out")
	ErrMalformed = errors.New("handshake: malformed exchange")
	ErrSpent     = errors.New("handshake: engine already used")
)

// State is the engine's position in the negotiation.
type State int

const (
	StateIdle State = iota
	StateSentHello
	StateAwaitingAck
	StateAccepted
	StateRejected
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSentHello:
		return "sent-hello"
	case StateAwaitingAck:
		return "awaiting-ack"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	case StateTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Outcome is a successful negotiation result.
type Outcome struct {
	// Proto is the negotiated application protocol token, later pinned as
	// the TLS ALPN identifier.
	Proto string
}

// Engine performs one plaintext negotiation. It is single-use: Run may be
// called exactly once. The engine never retries; retry policy belongs to the
// caller.
type Engine struct {
	// ClientID identifies this client to the peer (user-agent header).
	ClientID string

	state State
}

// New returns an idle engine identifying itself as clientID.
func New(clientID string) *Engine {
	return &Engine{ClientID: clientID}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	return e.state
}

// Run sends the hello over conn and reads the peer's acknowledgment, bounded
// by deadline (zero means unbounded). A peer rejection yields ErrRejected
// wrapping the peer-supplied reason, deadline expiry yields ErrTimedOut, and
// unparseable ack bytes yield ErrMalformed.
func (e *Engine) Run(conn net.Conn, host string, deadline time.Time) (Outcome, error) {
	if e.state != StateIdle {
		return Outcome{}, ErrSpent
	}

	if err := conn.SetDeadline(deadline); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	defer conn.SetDeadline(time.Time{})

	hello := wire.NewRequest(wire.MethodHandshake, "/")
	hello.SetHeader("host", host)
	hello.SetHeader("user-agent", e.ClientID)

	e.state = StateSentHello
	if err := wire.EncodeRequest(conn, hello); err != nil {
		return Outcome{}, e.failTransport(err)
	}

	e.state = StateAwaitingAck
	ack, err := e.readAck(conn)
	if err != nil {
		return Outcome{}, err
	}

	if ack.StatusCode != wire.StatusSwitchingProtocols {
		e.state = StateRejected
		return Outcome{}, fmt.Errorf("%w: %d %s", ErrRejected, ack.StatusCode, ack.StatusMessage)
	}

	e.state = StateAccepted
	return Outcome{Proto: wire.ALPNToken}, nil
}

// readAck feeds bytes off the socket into the response decoder until it
// completes. The ack always carries explicit framing, so connection close
// before completion is a malformed exchange.
func (e *Engine) readAck(conn net.Conn) (*wire.Response, error) {
	dec := wire.NewDecoder(wire.DefaultLimits())
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			done, derr := dec.Feed(buf[:n])
			if derr != nil {
				e.state = StateRejected
				return nil, fmt.Errorf("%w: %w", ErrMalformed, derr)
			}
			if done {
				return dec.Response(), nil
			}
		}
		if err != nil {
			return nil, e.failTransport(err)
		}
	}
}

func (e *Engine) failTransport(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		e.state = StateTimedOut
		return fmt.Errorf("%w: %w", ErrTimedOut, err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		e.state = StateRejected
		return fmt.Errorf("%w: connection closed during negotiation", ErrMalformed)
	}
	e.state = StateRejected
	return err
}
