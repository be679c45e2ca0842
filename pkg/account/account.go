// Package account classifies the identity notations accepted by the
// principal resolver and splits them into a local name and a domain
// discriminator.
package account

import (
	"strings"

	"adresolver/pkg/sid"
)

// Notation identifies which identity syntax an input string used.
type Notation int

const (
	// NotationBare is a plain account name with no domain discriminator;
	// the caller's current domain applies.
	NotationBare Notation = iota
	// NotationUPN is user@suffix.
	NotationUPN
	// NotationNTAccount is DOMAIN\user.
	NotationNTAccount
	// NotationSID is a literal security identifier string.
	NotationSID
)

func (n Notation) String() string {
	switch n {
	case NotationUPN:
		return "upn"
	case NotationNTAccount:
		return "ntaccount"
	case NotationSID:
		return "sid"
	default:
		return "bare"
	}
}

// Parsed is the result of classifying an identity string.
type Parsed struct {
	// LocalName is the account name without any domain qualifier. For SID
	// notation it is the full SID string.
	LocalName string
	// Discriminator selects the domain to search: the UPN suffix, the
	// NTAccount domain component, or the SID itself. Empty for bare names.
	Discriminator string
	Notation      Notation
}

// Parse classifies name into one of the four supported notations. The split
// order matters: a SID string contains no separators, so it is checked
// first; '@' beats '\' because a UPN local part can never contain either.
func Parse(name string) Parsed {
	if sid.Valid(name) {
		return Parsed{LocalName: name, Discriminator: name, Notation: NotationSID}
	}
	if at := strings.Index(name, "@"); at > 0 && at < len(name)-1 {
		return Parsed{
			LocalName:     name[:at],
			Discriminator: name[at+1:],
			Notation:      NotationUPN,
		}
	}
	if bs := strings.Index(name, `\`); bs > 0 && bs < len(name)-1 {
		return Parsed{
			LocalName:     name[bs+1:],
			Discriminator: name[:bs],
			Notation:      NotationNTAccount,
		}
	}
	return Parsed{LocalName: name, Notation: NotationBare}
}
