package gurt

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gurted/gurt-go/pkg/gurt/handshake"
	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

// Session owns one socket for exactly one request/response exchange:
// dial, plaintext handshake, TLS upgrade, send, receive, close. It is never
// reused after Close.
type Session struct {
	cfg       Config
	target    Target
	conn      *tls.Conn
	closeOnce sync.Once
	closeErr  error
}

// Open establishes a session against target: TCP connect bounded by the
// connect timeout, plaintext negotiation bounded by the handshake timeout,
// then the TLS 1.3 upgrade with ALPN pinned to the negotiated token. On any
// failure the socket is closed before the error is returned.
func Open(target Target, cfg Config) (*Session, error) {
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	raw, err := dialer.Dial("tcp", target.Addr())
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrConnectTimeout, target.Addr(), err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, target.Addr(), err)
	}
	log.Debug().Str("addr", target.Addr()).Msg("gurt: tcp connected")

	eng := handshake.New(cfg.UserAgent)
	out, err := eng.Run(raw, target.Host, deadline(cfg.HandshakeTimeout))
	if err != nil {
		raw.Close()
		if errors.Is(err, handshake.ErrTimedOut) {
			return nil, fmt.Errorf("%w: %w", ErrHandshakeTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	log.Debug().Str("proto", out.Proto).Msg("gurt: handshake accepted")

	conn, err := upgradeTLS(raw, target.Host, out.Proto, cfg)
	if err != nil {
		raw.Close()
		return nil, err
	}
	log.Debug().Str("addr", target.Addr()).Msg("gurt: tls established")

	return &Session{cfg: cfg, target: target, conn: conn}, nil
}

// upgradeTLS wraps the already-handshaken socket in TLS 1.3, advertising
// proto as the sole application protocol. The peer must select it.
func upgradeTLS(raw net.Conn, host, proto string, cfg Config) (*tls.Conn, error) {
	tlsCfg := &tls.Config{
		ServerName:         host,
		MinVersion:         tls.VersionTLS13,
		MaxVersion:         tls.VersionTLS13,
		NextProtos:         []string{proto},
		InsecureSkipVerify: cfg.Insecure,
	}
	conn := tls.Client(raw, tlsCfg)

	if d := deadline(cfg.HandshakeTimeout); !d.IsZero() {
		if err := conn.SetDeadline(d); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTLS, err)
		}
	}
	if err := conn.Handshake(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTLS, err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTLS, err)
	}

	if got := conn.ConnectionState().NegotiatedProtocol; got != proto {
		conn.Close()
		return nil, fmt.Errorf("%w: peer selected alpn %q, want %q", ErrTLS, got, proto)
	}
	return conn, nil
}

// Send writes one encoded request, bounded by the request timeout. On any
// failure the session is torn down.
func (s *Session) Send(p []byte) error {
	if err := s.conn.SetWriteDeadline(deadline(s.cfg.RequestTimeout)); err != nil {
		s.Close()
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if _, err := s.conn.Write(p); err != nil {
		s.Close()
		if isTimeout(err) {
			return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

// Receive reads from the socket into dec until it reports a complete
// response. The read deadline is re-armed before every blocking read.
// Connection close before completion is accepted only for bodies the
// decoder can finish at EOF.
func (s *Session) Receive(dec *wire.Decoder) (*wire.Response, error) {
	buf := make([]byte, 32*1024)
	for {
		if err := s.conn.SetReadDeadline(deadline(s.cfg.RequestTimeout)); err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: %w", ErrConnection, err)
		}
		n, err := s.conn.Read(buf)
		if n > 0 {
			done, derr := dec.Feed(buf[:n])
			if derr != nil {
				s.Close()
				return nil, fmt.Errorf("%w: %w", ErrProtocol, derr)
			}
			if done {
				return dec.Response(), nil
			}
		}
		if err != nil {
			s.Close()
			switch {
			case isTimeout(err):
				return nil, fmt.Errorf("%w: %w", ErrRequestTimeout, err)
			case errors.Is(err, io.EOF):
				if ferr := dec.Finish(); ferr != nil {
					return nil, fmt.Errorf("%w: %w", ErrProtocol, ferr)
				}
				return dec.Response(), nil
			default:
				return nil, fmt.Errorf("%w: %w", ErrConnection, err)
			}
		}
	}
}

// Close releases the socket. It is idempotent and safe on every exit path.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
