// Package nbt reads the subset of Minecraft's Named Binary Tag format
// needed to walk a servers.dat file: compounds, lists and strings are
// decoded, every other tag payload can be skipped without being
// materialized. All multi-byte values are big-endian.
package nbt

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// NBT tag type ids.
const (
	TagEnd       byte = 0
	TagByte      byte = 1
	TagShort     byte = 2
	TagInt       byte = 3
	TagLong      byte = 4
	TagFloat     byte = 5
	TagDouble    byte = 6
	TagByteArray byte = 7
	TagString    byte = 8
	TagList      byte = 9
	TagCompound  byte = 10
	TagIntArray  byte = 11
	TagLongArray byte = 12
)

// maxDepth bounds list/compound nesting so corrupt input cannot
// exhaust the stack.
const maxDepth = 512

// DecodeError describes malformed or truncated NBT input.
type DecodeError struct {
	Offset int
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("nbt: %s at byte %d", e.Msg, e.Offset)
}

// Decompress returns the uncompressed form of data. Vanilla writes
// servers.dat uncompressed, but gzipped NBT files exist elsewhere and
// cost nothing to accept.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Offset: 0, Msg: fmt.Sprintf("bad gzip header: %v", err)}
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, &DecodeError{Offset: 0, Msg: fmt.Sprintf("gzip stream: %v", err)}
	}
	return out, nil
}

// Reader is a cursor over a decompressed NBT document. Every length
// field is checked against the remaining input before it is used, so
// truncated or hostile data fails with a DecodeError instead of
// panicking.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current byte offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Errorf builds a DecodeError at the current offset.
func (r *Reader) Errorf(format string, args ...any) *DecodeError {
	return &DecodeError{Offset: r.pos, Msg: fmt.Sprintf(format, args...)}
}

// Remaining returns how many undecoded bytes are left. Callers use it
// to sanity-check declared element counts before allocating.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, r.Errorf("negative length %d", n)
	}
	if r.Remaining() < n {
		return nil, r.Errorf("need %d bytes, have %d", n, r.Remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Byte reads a single byte.
func (r *Reader) Byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a big-endian unsigned short.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// Int32 reads a big-endian signed int.
func (r *Reader) Int32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), nil
}

// String reads an unsigned-short-length-prefixed UTF-8 string.
func (r *Reader) String() (string, error) {
	n, err := r.Uint16()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// TagHeader reads the next tag's type byte and name. TagEnd carries no
// name and terminates the enclosing compound.
func (r *Reader) TagHeader() (typ byte, name string, err error) {
	typ, err = r.Byte()
	if err != nil {
		return 0, "", err
	}
	if typ > TagLongArray {
		return 0, "", r.Errorf("unknown tag type %d", typ)
	}
	if typ == TagEnd {
		return TagEnd, "", nil
	}
	name, err = r.String()
	return typ, name, err
}

// ListHeader reads a list payload's element type and count.
func (r *Reader) ListHeader() (elem byte, count int32, err error) {
	elem, err = r.Byte()
	if err != nil {
		return 0, 0, err
	}
	if elem > TagLongArray {
		return 0, 0, r.Errorf("unknown list element type %d", elem)
	}
	count, err = r.Int32()
	if err != nil {
		return 0, 0, err
	}
	if count < 0 {
		return 0, 0, r.Errorf("negative list count %d", count)
	}
	return elem, count, nil
}

// Skip discards the payload of one tag of the given type.
func (r *Reader) Skip(typ byte) error {
	return r.skip(typ, 0)
}

func (r *Reader) skip(typ byte, depth int) error {
	if depth > maxDepth {
		return r.Errorf("nesting deeper than %d", maxDepth)
	}
	switch typ {
	case TagByte:
		_, err := r.take(1)
		return err
	case TagShort:
		_, err := r.take(2)
		return err
	case TagInt, TagFloat:
		_, err := r.take(4)
		return err
	case TagLong, TagDouble:
		_, err := r.take(8)
		return err
	case TagByteArray:
		n, err := r.Int32()
		if err != nil {
			return err
		}
		_, err = r.take(int(n))
		return err
	case TagString:
		_, err := r.String()
		return err
	case TagList:
		elem, count, err := r.ListHeader()
		if err != nil {
			return err
		}
		if elem == TagEnd && count > 0 {
			return r.Errorf("list of end tags with count %d", count)
		}
		for i := int32(0); i < count; i++ {
			if err := r.skip(elem, depth+1); err != nil {
				return err
			}
		}
		return nil
	case TagCompound:
		for {
			inner, _, err := r.TagHeader()
			if err != nil {
				return err
			}
			if inner == TagEnd {
				return nil
			}
			if err := r.skip(inner, depth+1); err != nil {
				return err
			}
		}
	case TagIntArray:
		n, err := r.Int32()
		if err != nil {
			return err
		}
		if n > 0 && int(n) > r.Remaining()/4 {
			return r.Errorf("int array of %d elements exceeds input", n)
		}
		_, err = r.take(int(n) * 4)
		return err
	case TagLongArray:
		n, err := r.Int32()
		if err != nil {
			return err
		}
		if n > 0 && int(n) > r.Remaining()/8 {
			return r.Errorf("long array of %d elements exceeds input", n)
		}
		_, err = r.take(int(n) * 8)
		return err
	default:
		return r.Errorf("cannot skip tag type %d", typ)
	}
}
