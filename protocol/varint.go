package protocol

import "io"

// ReadVarInt decodes a protocol VarInt (7 data bits per byte, MSB as
// continuation flag) and reports how many bytes it consumed. Anything
// longer than 5 bytes is a protocol violation.
func ReadVarInt(r io.Reader) (int32, int, error) {
	var result uint32
	var numRead int
	buf := make([]byte, 1)

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, numRead, err
		}
		numRead++

		result |= uint32(buf[0]&0x7F) << (7 * (numRead - 1))

		if buf[0]&0x80 == 0 {
			break
		}

		if numRead >= 5 {
			return 0, numRead, errf("varint", "continuation past 5 bytes")
		}
	}

	return int32(result), numRead, nil
}

// WriteVarInt encodes value as a VarInt.
func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [5]byte
	val := uint32(value)
	n := 0
	for {
		b := byte(val & 0x7F)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if val == 0 {
			break
		}
	}
	return w.Write(buf[:n])
}

// VarIntSize returns the encoded length of value in bytes.
func VarIntSize(value int32) int {
	val := uint32(value)
	size := 0
	for {
		size++
		val >>= 7
		if val == 0 {
			break
		}
	}
	return size
}
