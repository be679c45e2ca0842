// Package directory defines the contract the resolution core has with the
// external Directory Query Service. Concrete adapters (LDAP, fakes) live in
// subpackages; the core only sees this interface.
package directory

//go:generate mockgen -source=directory.go -destination=mocks/mocks.go -package=mocks Querier

import "context"

// Credential is an opaque secret reference used to bind to a directory.
// It is passed through to adapters untouched and must never be logged.
type Credential string

// ConnectionParams route a directory query: an optional server endpoint and
// an optional credential. A zero value means "adapter defaults".
type ConnectionParams struct {
	Server     string
	Credential Credential
}

// WithoutServer drops server routing, keeping only the credential. Used for
// the second tier of the credential fallback and for sibling-domain queries
// during forest registration.
func (p ConnectionParams) WithoutServer() ConnectionParams {
	return ConnectionParams{Credential: p.Credential}
}

// CacheKey is the literal server/identity string a descriptor was last
// fetched through. The domain registry memoizes descriptors under it.
func (p ConnectionParams) CacheKey() string {
	return p.Server
}

// DomainDescriptor is the directory's answer to "describe domain X".
type DomainDescriptor struct {
	DistinguishedName string
	Name              string
	FQDN              string
	SID               string
	NetBIOSName       string
	PDCEmulator       string
	// Handle is the adapter's underlying directory object, passed through
	// untouched on directory-entry shaped output.
	Handle any
}

// ForestDescriptor describes the forest an anchor domain belongs to.
type ForestDescriptor struct {
	DomainFQDNs []string
	UPNSuffixes []string
}

// AttrSAMAccountName and friends are the object attributes the resolver
// reads back from a directory match.
const (
	AttrSAMAccountName    = "sAMAccountName"
	AttrUserPrincipalName = "userPrincipalName"
	AttrObjectSID         = "objectSid"
	AttrDisplayName       = "displayName"
	AttrObjectClass       = "objectClass"
)

// PredicateField is the closed set of fields an object query may filter on.
type PredicateField string

const (
	ByUserPrincipalName PredicateField = AttrUserPrincipalName
	BySAMAccountName    PredicateField = AttrSAMAccountName
	ByObjectSID         PredicateField = AttrObjectSID
)

// Predicate is a simple equality filter on a single object attribute.
type Predicate struct {
	Field PredicateField
	Value string
}

// DirectoryObject is a raw directory match: its distinguished name plus the
// requested attributes, single-valued ones flattened.
type DirectoryObject struct {
	DistinguishedName string
	Attributes        map[string]string
	// Handle is the adapter's underlying entry, opaque to the core.
	Handle any
}

// Attr returns a single-valued attribute, empty when absent.
func (o DirectoryObject) Attr(name string) string {
	return o.Attributes[name]
}

// Querier is the Directory Query Service port. Implementations are expected
// to block on the network; callers must not hold registry locks across these
// calls. Failures are ordinary errors, timeouts included.
type Querier interface {
	// QueryDomain returns the descriptor for the domain identified by
	// identity (name, FQDN, NetBIOS name, or SID fragment). An empty
	// identity asks for the domain reachable through conn.
	QueryDomain(ctx context.Context, identity string, conn ConnectionParams) (*DomainDescriptor, error)

	// QueryForest describes the forest of the domain reachable through conn.
	QueryForest(ctx context.Context, conn ConnectionParams) (*ForestDescriptor, error)

	// QueryObjects finds objects matching the predicate in the domain
	// reachable through conn. An empty slice with a nil error means no
	// match; that is not a failure.
	QueryObjects(ctx context.Context, predicate Predicate, conn ConnectionParams) ([]DirectoryObject, error)
}
