package protocol

import (
	"errors"
	"fmt"
)

// ErrPingMismatch reports a server that echoed a different ping payload
// than it was sent. The status obtained before the ping is still valid.
var ErrPingMismatch = errors.New("ping payload mismatch")

// Error is a protocol violation: bad framing, an unexpected packet id,
// a malformed status document, or a misused session.
type Error struct {
	Op  string // "varint", "frame", "handshake", "status", "ping"
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errf(op, format string, args ...any) *Error {
	return &Error{Op: op, Msg: fmt.Sprintf(format, args...)}
}

func wrapf(op string, err error, format string, args ...any) *Error {
	return &Error{Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}
