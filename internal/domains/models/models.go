package models

import (
	"adresolver/internal/directory"
	pstrings "adresolver/pkg/platform/strings"
)

// Domain is one Active-Directory-style domain known to the registry.
//
// Invariants:
//   - DistinguishedName, Name, FQDN, SID and NetBIOSName are each globally
//     unique across registered domains
//   - UPNSuffixes is many-to-many: one suffix may be claimed by several
//     domains, one domain may claim several suffixes
//   - Immutable once registered; re-registration replaces the record under
//     every key it holds, never merges
type Domain struct {
	DistinguishedName string   `json:"distinguished_name"`
	Name              string   `json:"name"`
	FQDN              string   `json:"fqdn"`
	SID               string   `json:"sid"`
	NetBIOSName       string   `json:"netbios_name"`
	UPNSuffixes       []string `json:"upn_suffixes"`

	// PDCEmulator is advisory only; nothing routes through it.
	PDCEmulator string `json:"pdc_emulator,omitempty"`

	// Credential, when set, is used for follow-up queries against this
	// domain. Absent means "use the caller-supplied credential".
	Credential directory.Credential `json:"-"`

	// DirectoryHandle is the underlying directory object as returned by
	// the query service, passed through untouched on directory-entry
	// shaped output.
	DirectoryHandle any `json:"-"`
}

// FromDescriptor builds a Domain from a directory descriptor. UPN suffixes
// always include the domain's own FQDN so UPN lookups on it resolve without
// a forest walk.
func FromDescriptor(d *directory.DomainDescriptor, forestSuffixes []string, cred directory.Credential) *Domain {
	suffixes := pstrings.DedupeAndTrim(append([]string{d.FQDN}, forestSuffixes...))
	return &Domain{
		DistinguishedName: d.DistinguishedName,
		Name:              d.Name,
		FQDN:              d.FQDN,
		SID:               d.SID,
		NetBIOSName:       d.NetBIOSName,
		UPNSuffixes:       suffixes,
		PDCEmulator:       d.PDCEmulator,
		Credential:        cred,
		DirectoryHandle:   d.Handle,
	}
}

// HasCredential reports whether this domain carries its own credential for
// the second tier of the query fallback.
func (d *Domain) HasCredential() bool {
	return d.Credential != ""
}
