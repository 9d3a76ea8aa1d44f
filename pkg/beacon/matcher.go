package beacon

import (
	"errors"
	"strings"
)

// MACLength is the required length of a formatted MAC address
// (XX:XX:XX:XX:XX:XX).
const MACLength = 17

// Matcher errors.
var (
	ErrInvalidMAC = errors.New("beacon MAC must be 17 characters (XX:XX:XX:XX:XX:XX)")
)

// Matcher compares discovered advertisement addresses against the configured
// target beacon. It is stateless and safe for concurrent use.
type Matcher struct {
	target string // normalized (upper-case) form
}

// NewMatcher creates a Matcher for the given target MAC address.
// The address must be in XX:XX:XX:XX:XX:XX form; case is ignored.
func NewMatcher(mac string) (*Matcher, error) {
	normalized, ok := normalizeMAC(mac)
	if !ok {
		return nil, ErrInvalidMAC
	}
	return &Matcher{target: normalized}, nil
}

// Target returns the normalized target MAC address.
func (m *Matcher) Target() string {
	return m.target
}

// Matches reports whether the given address is the target beacon.
// Addresses that fail to normalize never match.
func (m *Matcher) Matches(addr string) bool {
	normalized, ok := normalizeMAC(addr)
	if !ok {
		return false
	}
	return normalized == m.target
}

// normalizeMAC upper-cases a MAC address and checks its shape.
func normalizeMAC(mac string) (string, bool) {
	if len(mac) != MACLength {
		return "", false
	}
	mac = strings.ToUpper(mac)
	for i := 0; i < MACLength; i++ {
		c := mac[i]
		if (i+1)%3 == 0 {
			if c != ':' {
				return "", false
			}
			continue
		}
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return "", false
		}
	}
	return mac, true
}
