package wire

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EncodeRequest writes req to w using the GURT wire format: start line,
// one header line per pair in insertion order, blank line, raw body. A
// content-length header is injected when absent so the receiving side can
// frame the body deterministically.
func EncodeRequest(w io.Writer, req *Request) error {
	if req == nil || !req.Method.Valid() {
		return ErrInvalidMethod
	}
	if err := validatePath(req.Path); err != nil {
		return err
	}

	version := req.Version
	if version == "" {
		version = Version
	}

	var buf bytes.Buffer
	buf.WriteString(string(req.Method))
	buf.WriteByte(' ')
	buf.WriteString(req.Path)
	buf.WriteByte(' ')
	buf.WriteString("GURT/")
	buf.WriteString(version)
	buf.WriteString(lineEnd)

	for _, h := range req.Headers.All() {
		if err := validateHeader(h.Name, h.Value); err != nil {
			return err
		}
		buf.WriteString(h.Name)
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteString(lineEnd)
	}
	if !req.Headers.Has("content-length") {
		buf.WriteString("content-length: ")
		buf.WriteString(strconv.Itoa(len(req.Body)))
		buf.WriteString(lineEnd)
	}

	buf.WriteString(lineEnd)
	buf.Write(req.Body)

	_, err := w.Write(buf.Bytes())
	return err
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsAny(path, " \r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

func validateHeader(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidHeader)
	}
	if strings.ContainsAny(name, ":\r\n ") {
		return fmt.Errorf("%w: name %q", ErrInvalidHeader, name)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: value for %q contains line terminator", ErrInvalidHeader, name)
	}
	return nil
}
