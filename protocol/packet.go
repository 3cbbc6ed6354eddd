package protocol

import (
	"bytes"
	"io"
)

// maxFrameLen caps incoming frames; a status response is a few KB even
// with a favicon, so 2MB is generous.
const maxFrameLen = 1 << 21

// ReadFrame reads one [VarInt length][VarInt packet_id][payload] frame.
// The declared length covers the id plus the payload.
func ReadFrame(r io.Reader) (id int32, payload []byte, err error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return 0, nil, frameErr(err, "read frame length")
	}
	if length < 1 {
		return 0, nil, errf("frame", "declared length %d too small", length)
	}
	if length > maxFrameLen {
		return 0, nil, errf("frame", "declared length %d exceeds %d", length, maxFrameLen)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, frameErr(err, "read frame body")
	}

	buf := bytes.NewReader(body)
	id, idLen, err := ReadVarInt(buf)
	if err != nil {
		return 0, nil, frameErr(err, "read packet id")
	}
	return id, body[idLen:], nil
}

// WriteFrame writes one frame for id and payload.
func WriteFrame(w io.Writer, id int32, payload []byte) error {
	total := int32(VarIntSize(id) + len(payload))

	var buf bytes.Buffer
	buf.Grow(VarIntSize(total) + int(total))
	WriteVarInt(&buf, total)
	WriteVarInt(&buf, id)
	buf.Write(payload)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return frameErr(err, "write frame")
	}
	return nil
}

// ReadString reads a VarInt-length-prefixed UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", frameErr(err, "read string length")
	}
	if length < 0 || length > maxFrameLen {
		return "", errf("frame", "string length %d out of range", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", frameErr(err, "read string data")
	}
	return string(buf), nil
}

// WriteString writes a VarInt-length-prefixed UTF-8 string.
func WriteString(w io.Writer, s string) error {
	if _, err := WriteVarInt(w, int32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// frameErr wraps an error as a framing failure, leaving an error that
// already carries protocol context untouched. I/O causes stay on the
// unwrap chain so callers can still classify timeouts.
func frameErr(err error, msg string) error {
	if perr, ok := err.(*Error); ok {
		return perr
	}
	return wrapf("frame", err, msg)
}
