package servers

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/skyezerfox/mcstat/nbt"
)

// builder assembles NBT fixtures for tests.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) header(typ byte, name string) {
	b.buf.WriteByte(typ)
	binary.Write(&b.buf, binary.BigEndian, uint16(len(name)))
	b.buf.WriteString(name)
}

func (b *builder) beginCompound(name string) { b.header(nbt.TagCompound, name) }

func (b *builder) end() { b.buf.WriteByte(nbt.TagEnd) }

func (b *builder) str(name, val string) {
	b.header(nbt.TagString, name)
	binary.Write(&b.buf, binary.BigEndian, uint16(len(val)))
	b.buf.WriteString(val)
}

func (b *builder) beginList(name string, elem byte, count int32) {
	b.header(nbt.TagList, name)
	b.buf.WriteByte(elem)
	binary.Write(&b.buf, binary.BigEndian, count)
}

func (b *builder) byteArray(name string, data []byte) {
	b.header(nbt.TagByteArray, name)
	binary.Write(&b.buf, binary.BigEndian, int32(len(data)))
	b.buf.Write(data)
}

func (b *builder) bytes() []byte { return b.buf.Bytes() }

// serversDat builds a realistic servers.dat: a root compound holding a
// "servers" list whose entries also carry fields the decoder must skip.
func serversDat(entries []Entry) []byte {
	var b builder
	b.beginCompound("")
	b.beginList("servers", nbt.TagCompound, int32(len(entries)))
	for i, e := range entries {
		if i%2 == 0 {
			b.byteArray("icon", []byte{0x89, 0x50, 0x4e, 0x47})
		}
		b.str("ip", e.Address)
		b.str("name", e.Name)
		b.end()
	}
	b.end()
	return b.bytes()
}

func testEntries() []Entry {
	return []Entry{
		{Name: "Hypixel", Address: "mc.hypixel.net"},
		{Name: "Local", Address: "localhost:25566"},
		{Name: "A friend", Address: "192.168.0.12"},
	}
}

func TestDecodeEntriesInOrder(t *testing.T) {
	got, err := Decode(serversDat(testEntries()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := testEntries()
	if len(got) != len(want) {
		t.Fatalf("decoded %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDecodeEmptyList(t *testing.T) {
	var b builder
	b.beginCompound("")
	b.beginList("servers", nbt.TagEnd, 0)
	b.end()

	got, err := Decode(b.bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("decoded %d entries from empty list", len(got))
	}
}

func TestDecodeGzipped(t *testing.T) {
	var zbuf bytes.Buffer
	zw := gzip.NewWriter(&zbuf)
	zw.Write(serversDat(testEntries()))
	zw.Close()

	got, err := Decode(zbuf.Bytes())
	if err != nil {
		t.Fatalf("Decode gzipped: %v", err)
	}
	if len(got) != 3 || got[0].Name != "Hypixel" {
		t.Errorf("decoded %+v", got)
	}
}

func TestDecodeTruncatedAlwaysFails(t *testing.T) {
	full := serversDat(testEntries())
	for i := 0; i < len(full); i++ {
		if _, err := Decode(full[:i]); err == nil {
			t.Fatalf("Decode of %d/%d-byte prefix succeeded", i, len(full))
		}
	}
}

func TestDecodeHugeListCount(t *testing.T) {
	// A 20-byte file can declare a list of two billion compounds. The
	// count must be rejected up front instead of sizing an allocation.
	var b builder
	b.beginCompound("")
	b.beginList("servers", nbt.TagCompound, 0x7fffffff)
	b.end()

	_, err := Decode(b.bytes())
	var derr *nbt.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Decode = %v, want DecodeError", err)
	}
	if !strings.Contains(derr.Msg, "exceeds") {
		t.Errorf("error %q does not report the oversized count", derr.Msg)
	}
}

func TestDecodeMissingField(t *testing.T) {
	var b builder
	b.beginCompound("")
	b.beginList("servers", nbt.TagCompound, 1)
	b.str("name", "No address")
	b.end()
	b.end()

	_, err := Decode(b.bytes())
	var derr *nbt.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Decode = %v, want DecodeError", err)
	}
	if !strings.Contains(derr.Msg, "ip") {
		t.Errorf("error %q does not name the missing field", derr.Msg)
	}
}

func TestDecodeNoServersList(t *testing.T) {
	var b builder
	b.beginCompound("")
	b.str("unrelated", "value")
	b.end()

	if _, err := Decode(b.bytes()); err == nil {
		t.Fatal("expected error for file without a servers list")
	}
}

func TestDecodeNonCompoundRoot(t *testing.T) {
	var b builder
	b.str("", "not a compound")

	if _, err := Decode(b.bytes()); err == nil {
		t.Fatal("expected error for non-compound root")
	}
}

func TestDecodeWrongListElementType(t *testing.T) {
	var b builder
	b.beginCompound("")
	b.beginList("servers", nbt.TagString, 1)
	binary.Write(&b.buf, binary.BigEndian, uint16(2))
	b.buf.WriteString("ab")
	b.end()

	if _, err := Decode(b.bytes()); err == nil {
		t.Fatal("expected error for non-compound list elements")
	}
}

func TestEntryLabel(t *testing.T) {
	e := Entry{Name: "Hypixel", Address: "mc.hypixel.net"}
	if got := e.Label(); got != "Hypixel (address: mc.hypixel.net)" {
		t.Errorf("Label() = %q", got)
	}
}
