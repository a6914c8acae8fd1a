package gurt

import "errors"

// Failure kinds, one sentinel per class so callers can branch on cause with
// errors.Is. Wrapped errors carry both the kind and the underlying cause.
var (
	ErrScheme           = errors.New("gurt: unsupported url scheme")
	ErrTarget           = errors.New("gurt: invalid target")
	ErrConfig           = errors.New("gurt: invalid configuration")
	ErrConnection       = errors.New("gurt: connection failed")
	ErrConnectTimeout   = errors.New("gurt: connect timed out")
	ErrHandshake        = errors.New("gurt: handshake failed")
	ErrHandshakeTimeout = errors.New("gurt: handshake timed out")
	ErrTLS              = errors.New("gurt: tls failure")
	ErrRequestTimeout   = errors.New("gurt: request timed out")
	ErrProtocol         = errors.New("gurt: protocol error")
)

// Kind returns a short stable label for the failure class of err, used for
// metrics and CLI reporting. Unclassified errors report "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConnectTimeout):
		return "connect-timeout"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrHandshakeTimeout):
		return "handshake-timeout"
	case errors.Is(err, ErrHandshake):
		return "handshake"
	case errors.Is(err, ErrTLS):
		return "tls"
	case errors.Is(err, ErrRequestTimeout):
		return "request-timeout"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrScheme), errors.Is(err, ErrTarget):
		return "target"
	case errors.Is(err, ErrConfig):
		return "config"
	default:
		return "internal"
	}
}
