// Package servers loads the saved-server list from a servers.dat file.
package servers

import (
	"fmt"
	"os"

	"github.com/skyezerfox/mcstat/nbt"
)

// Entry is one saved server, in the order the game shows it.
type Entry struct {
	Name    string
	Address string
}

// Label renders the entry the way the selection prompt shows it.
func (e Entry) Label() string {
	return fmt.Sprintf("%s (address: %s)", e.Name, e.Address)
}

// Load reads and decodes the servers.dat file at path.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open servers file: %w", err)
	}
	entries, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return entries, nil
}

// Decode parses raw servers.dat bytes. The document is a root compound
// holding a "servers" list of compounds; each element contributes its
// "name" and "ip" strings and everything else (icons included) is
// skipped without being read into memory.
func Decode(data []byte) ([]Entry, error) {
	data, err := nbt.Decompress(data)
	if err != nil {
		return nil, err
	}
	r := nbt.NewReader(data)

	typ, _, err := r.TagHeader()
	if err != nil {
		return nil, err
	}
	if typ != nbt.TagCompound {
		return nil, r.Errorf("root tag is %d, want compound", typ)
	}

	// Walk the whole root compound rather than bailing out at the
	// servers list: a truncated file must fail even when the damage is
	// after the part we care about.
	var entries []Entry
	found := false
	for {
		typ, name, err := r.TagHeader()
		if err != nil {
			return nil, err
		}
		if typ == nbt.TagEnd {
			break
		}
		if typ == nbt.TagList && name == "servers" && !found {
			entries, err = decodeList(r)
			if err != nil {
				return nil, err
			}
			found = true
			continue
		}
		if err := r.Skip(typ); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, r.Errorf("no %q list in file", "servers")
	}
	return entries, nil
}

func decodeList(r *nbt.Reader) ([]Entry, error) {
	elem, count, err := r.ListHeader()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []Entry{}, nil
	}
	if elem != nbt.TagCompound {
		return nil, r.Errorf("servers list holds tag type %d, want compound", elem)
	}
	// Each compound element needs at least its end-tag byte, so a count
	// beyond the remaining input can never decode; reject it before it
	// sizes an allocation.
	if int64(count) > int64(r.Remaining()) {
		return nil, r.Errorf("list count %d exceeds %d remaining bytes", count, r.Remaining())
	}

	entries := make([]Entry, 0, count)
	for i := int32(0); i < count; i++ {
		e, err := decodeEntry(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeEntry(r *nbt.Reader) (Entry, error) {
	var e Entry
	var haveName, haveIP bool
	for {
		typ, name, err := r.TagHeader()
		if err != nil {
			return Entry{}, err
		}
		if typ == nbt.TagEnd {
			break
		}
		switch {
		case typ == nbt.TagString && name == "name":
			e.Name, err = r.String()
			haveName = true
		case typ == nbt.TagString && name == "ip":
			e.Address, err = r.String()
			haveIP = true
		default:
			err = r.Skip(typ)
		}
		if err != nil {
			return Entry{}, err
		}
	}
	if !haveName {
		return Entry{}, r.Errorf("server entry missing %q field", "name")
	}
	if !haveIP {
		return Entry{}, r.Errorf("server entry missing %q field", "ip")
	}
	return e, nil
}
