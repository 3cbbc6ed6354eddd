package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyHost means the address had no host portion.
	ErrEmptyHost = errors.New("empty host")
	// ErrInvalidPort means the portion after the last colon is not an
	// unsigned 16-bit integer.
	ErrInvalidPort = errors.New("invalid port")
)

// Target identifies the server to query. When HasPort is false the
// dialer falls back to the standard Minecraft port.
type Target struct {
	Host    string
	Port    uint16
	HasPort bool
}

// ParseAddress splits host[:port]. The split happens on the last colon,
// so dotted hostnames and bare IPv4 addresses pass through untouched;
// bracketless IPv6 literals are not supported.
func ParseAddress(s string) (Target, error) {
	t := Target{Host: s}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		port, err := strconv.ParseUint(s[i+1:], 10, 16)
		if err != nil {
			return Target{}, fmt.Errorf("%q: %w", s[i+1:], ErrInvalidPort)
		}
		t = Target{Host: s[:i], Port: uint16(port), HasPort: true}
	}
	if t.Host == "" {
		return Target{}, ErrEmptyHost
	}
	return t, nil
}
