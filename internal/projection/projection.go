// Package projection maps canonical cached records to caller-requested
// output shapes. Both resolvers funnel through here; the functions are pure
// and hold no state.
package projection

import (
	"fmt"

	domainmodels "adresolver/internal/domains/models"
	principalmodels "adresolver/internal/principals/models"
)

// Shape is the closed enumeration of output representations. The transport
// layer validates inbound shape strings before resolution starts, so the
// projectors only ever see members of this set.
type Shape string

// Shapes accepted for domain output.
const (
	ShapeRecord            Shape = "record"
	ShapeFQDN              Shape = "fqdn"
	ShapeName              Shape = "name"
	ShapeSID               Shape = "sid"
	ShapeDistinguishedName Shape = "distinguished_name"
	ShapeNetBIOS           Shape = "netbios"
	ShapeDirectoryEntry    Shape = "directory_entry"
)

// Shapes accepted for principal output. ShapeRecord, ShapeSID and
// ShapeDirectoryEntry are shared with the domain set.
const (
	ShapeNTAccount      Shape = "ntaccount"
	ShapeUPN            Shape = "upn"
	ShapeSAMAccountName Shape = "sam_account_name"
)

// ParseDomainShape validates a shape string for domain resolution.
func ParseDomainShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeRecord, ShapeFQDN, ShapeName, ShapeSID, ShapeDistinguishedName,
		ShapeNetBIOS, ShapeDirectoryEntry:
		return Shape(s), nil
	}
	return "", fmt.Errorf("unknown domain output shape %q", s)
}

// ParsePrincipalShape validates a shape string for principal resolution.
func ParsePrincipalShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeRecord, ShapeSID, ShapeDirectoryEntry, ShapeNTAccount,
		ShapeUPN, ShapeSAMAccountName:
		return Shape(s), nil
	}
	return "", fmt.Errorf("unknown principal output shape %q", s)
}

// Domain projects a domain record to the requested shape.
func Domain(d *domainmodels.Domain, shape Shape) (any, error) {
	switch shape {
	case ShapeRecord:
		return d, nil
	case ShapeFQDN:
		return d.FQDN, nil
	case ShapeName:
		return d.Name, nil
	case ShapeSID:
		return d.SID, nil
	case ShapeDistinguishedName:
		return d.DistinguishedName, nil
	case ShapeNetBIOS:
		return d.NetBIOSName, nil
	case ShapeDirectoryEntry:
		return d.DirectoryHandle, nil
	}
	return nil, fmt.Errorf("shape %q not valid for domain records", shape)
}

// Principal projects a principal record to the requested shape. The
// NTAccount string is synthesized here, never read from storage.
func Principal(p *principalmodels.Principal, shape Shape) (any, error) {
	switch shape {
	case ShapeRecord:
		return p, nil
	case ShapeSID:
		return p.SID, nil
	case ShapeNTAccount:
		return p.NTAccount(), nil
	case ShapeUPN:
		return p.UserPrincipalName, nil
	case ShapeSAMAccountName:
		return p.SamAccountName, nil
	case ShapeDirectoryEntry:
		return p.DirectoryHandle, nil
	}
	return nil, fmt.Errorf("shape %q not valid for principal records", shape)
}
