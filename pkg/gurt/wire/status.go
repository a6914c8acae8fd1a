package wire

// GURT status codes. The numbering mirrors HTTP semantics; the canonical
// messages use the protocol's CAPS_WITH_UNDERSCORES form.
const (
	StatusSwitchingProtocols = 101

	StatusOK        = 200
	StatusCreated   = 201
	StatusAccepted  = 202
	StatusNoContent = 204

	StatusBadRequest           = 400
	StatusUnauthorized         = 401
	StatusForbidden            = 403
	StatusNotFound             = 404
	StatusMethodNotAllowed     = 405
	StatusTimeout              = 408
	StatusTooLarge             = 413
	StatusUnsupportedMediaType = 415
	StatusTooManyRequests      = 429

	StatusInternalServerError = 500
	StatusNotImplemented      = 501
	StatusBadGateway          = 502
	StatusServiceUnavailable  = 503
	StatusGatewayTimeout      = 504
)

var statusMessages = map[int]string{
	StatusSwitchingProtocols:   "SWITCHING_PROTOCOLS",
	StatusOK:                   "OK",
	StatusCreated:              "CREATED",
	StatusAccepted:             "ACCEPTED",
	StatusNoContent:            "NO_CONTENT",
	StatusBadRequest:           "BAD_REQUEST",
	StatusUnauthorized:         "UNAUTHORIZED",
	StatusForbidden:            "FORBIDDEN",
	StatusNotFound:             "NOT_FOUND",
	StatusMethodNotAllowed:     "METHOD_NOT_ALLOWED",
	StatusTimeout:              "TIMEOUT",
	StatusTooLarge:             "TOO_LARGE",
	StatusUnsupportedMediaType: "UNSUPPORTED_MEDIA_TYPE",
	StatusTooManyRequests:      "TOO_MANY_REQUESTS",
	StatusInternalServerError:  "INTERNAL_SERVER_ERROR",
	StatusNotImplemented:       "NOT_IMPLEMENTED",
	StatusBadGateway:           "BAD_GATEWAY",
	StatusServiceUnavailable:   "SERVICE_UNAVAILABLE",
	StatusGatewayTimeout:       "GATEWAY_TIMEOUT",
}

// StatusText returns the canonical message for a status code, or "UNKNOWN"
// for codes outside the table.
func StatusText(code int) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return "UNKNOWN"
}
