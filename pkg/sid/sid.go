// Package sid parses security identifier strings of the form
// S-1-<authority>-<subauthority>[-<subauthority>...].
package sid

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// NT authority and the sub-authority that prefixes domain-scoped SIDs.
const (
	ntAuthority        = 5
	domainSubAuthority = 21
)

// Domain SIDs under S-1-5-21 carry exactly three random sub-authorities;
// account SIDs append one more, the relative identifier.
const domainSIDParts = 7 // "S", "1", "5", "21", a, b, c

// Valid reports whether s is a well-formed SID string.
func Valid(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) < 3 {
		return false
	}
	if parts[0] != "S" && parts[0] != "s" {
		return false
	}
	if parts[1] != "1" {
		return false
	}
	for _, p := range parts[2:] {
		if p == "" {
			return false
		}
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return false
		}
	}
	return true
}

// DomainPart strips an account SID down to the SID of the domain that issued
// it. Non-domain-scoped SIDs (well-known SIDs, builtin SIDs) and SIDs that
// are already domain SIDs are returned unchanged. Invalid input is returned
// unchanged; callers gate on Valid first.
func DomainPart(s string) string {
	if !Valid(s) {
		return s
	}
	parts := strings.Split(s, "-")
	if len(parts) <= domainSIDParts {
		return s
	}
	authority, _ := strconv.ParseUint(parts[2], 10, 64)
	sub, _ := strconv.ParseUint(parts[3], 10, 64)
	if authority != ntAuthority || sub != domainSubAuthority {
		return s
	}
	return strings.Join(parts[:domainSIDParts], "-")
}

// FromBinary decodes the wire form directories store in objectSid: one
// revision byte, a sub-authority count, a 48-bit big-endian authority, then
// count little-endian 32-bit sub-authorities.
func FromBinary(b []byte) (string, error) {
	if len(b) < 8 {
		return "", fmt.Errorf("binary SID too short: %d bytes", len(b))
	}
	revision := b[0]
	count := int(b[1])
	if len(b) != 8+count*4 {
		return "", fmt.Errorf("binary SID length %d does not match sub-authority count %d", len(b), count)
	}

	var authority uint64
	for _, octet := range b[2:8] {
		authority = authority<<8 | uint64(octet)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "S-%d-%d", revision, authority)
	for i := 0; i < count; i++ {
		sub := binary.LittleEndian.Uint32(b[8+i*4:])
		fmt.Fprintf(&sb, "-%d", sub)
	}
	return sb.String(), nil
}
