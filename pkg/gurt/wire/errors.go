package wire

import "errors"

var (
	ErrInvalidMethod        = errors.New("wire: invalid method")
	ErrInvalidPath          = errors.New("wire: invalid path")
	ErrInvalidHeader        = errors.New("wire: invalid header")
	ErrMalformedStatusLine  = errors.New("wire: malformed status line")
	ErrMalformedHeader      = errors.New("wire: malformed header line")
	ErrMalformedChunk       = errors.New("wire: malformed chunk framing")
	ErrInvalidContentLength = errors.New("wire: invalid content-length")
	ErrHeaderTooLarge       = errors.New("wire: header section too large")
	ErrBodyTooLarge         = errors.New("wire: body too large")
	ErrTruncated            = errors.New("wire: truncated message")
	ErrTrailingData         = errors.New("wire: data after complete message")
)
