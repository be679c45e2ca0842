package models

import (
	"adresolver/internal/directory"
	domainmodels "adresolver/internal/domains/models"
)

// Principal is one resolved identity (user, group, or similar).
//
// Invariants:
//   - SID is unique across the principal registry
//   - UserPrincipalName, when present, is unique
//   - (Domain.FQDN, SamAccountName) is unique
//   - The NTAccount string NetBIOSName\SamAccountName is unique, except
//     when two registered domains share a NetBIOS name; that collision is
//     last-write-wins (known limitation, see DESIGN.md)
//   - Immutable once registered; removed only by a full registry clear
type Principal struct {
	SID               string `json:"sid"`
	SamAccountName    string `json:"sam_account_name"`
	UserPrincipalName string `json:"user_principal_name,omitempty"`
	DisplayName       string `json:"display_name,omitempty"`
	ObjectClass       string `json:"object_class,omitempty"`

	// Domain is a non-owning reference to the registered domain hosting
	// this principal.
	Domain *domainmodels.Domain `json:"-"`

	// DirectoryHandle is the underlying directory object, opaque here.
	DirectoryHandle any `json:"-"`
}

// FromObject converts a raw directory match into a Principal bound to the
// domain the match came from.
func FromObject(obj directory.DirectoryObject, dom *domainmodels.Domain) *Principal {
	return &Principal{
		SID:               obj.Attr(directory.AttrObjectSID),
		SamAccountName:    obj.Attr(directory.AttrSAMAccountName),
		UserPrincipalName: obj.Attr(directory.AttrUserPrincipalName),
		DisplayName:       obj.Attr(directory.AttrDisplayName),
		ObjectClass:       obj.Attr(directory.AttrObjectClass),
		Domain:            dom,
		DirectoryHandle:   obj.Handle,
	}
}

// NTAccount synthesizes the DOMAIN\user form. It is computed here rather
// than stored so the registry never holds a precomputed copy that could
// drift from its parts.
func (p *Principal) NTAccount() string {
	if p.Domain == nil {
		return p.SamAccountName
	}
	return p.Domain.NetBIOSName + `\` + p.SamAccountName
}
