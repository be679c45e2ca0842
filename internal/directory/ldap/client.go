// Package ldap implements the directory query port against LDAP-speaking
// directories (Active Directory and compatible).
package ldap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	goldap "github.com/go-ldap/ldap/v3"

	"adresolver/internal/directory"
	"adresolver/pkg/sid"
)

// Attributes read from the rootDSE and the partitions container.
const (
	attrDefaultNamingContext = "defaultNamingContext"
	attrConfigNamingContext  = "configurationNamingContext"
	attrDNSHostName          = "dnsHostName"
	attrNetBIOSName          = "nETBIOSName"
	attrDNSRoot              = "dnsRoot"
	attrUPNSuffixes          = "uPNSuffixes"
)

// Client talks to directories over LDAP. It is stateless: every query dials,
// binds, searches and closes, so connection routing can change per call.
type Client struct {
	// url is the default endpoint when a query names no server, e.g.
	// ldap://dc01.contoso.com:389.
	url    string
	bindDN string
	// credential backs binds for queries that carry no credential of their
	// own. Never logged.
	credential directory.Credential
	logger     *slog.Logger
}

type Option func(c *Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCredential sets the service-account secret bound when a query carries
// no credential.
func WithCredential(cred directory.Credential) Option {
	return func(c *Client) { c.credential = cred }
}

// New constructs a Client. url may be empty when every query is expected to
// route itself.
func New(url, bindDN string, opts ...Option) *Client {
	c := &Client{url: url, bindDN: bindDN, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ directory.Querier = (*Client)(nil)

// endpoint picks the LDAP URL for a query: the connection's server first,
// then the identity being asked about (a domain FQDN doubles as a host via
// DNS domain records), then the configured default.
func (c *Client) endpoint(identity string, conn directory.ConnectionParams) (string, error) {
	switch {
	case conn.Server != "":
		return asURL(conn.Server), nil
	case identity != "" && strings.Contains(identity, "."):
		return asURL(identity), nil
	case c.url != "":
		return c.url, nil
	}
	return "", fmt.Errorf("no directory endpoint for %q", identity)
}

func asURL(server string) string {
	if strings.Contains(server, "://") {
		return server
	}
	return "ldap://" + server
}

// bindCredential picks the secret for a bind: the query's own credential
// wins, the configured service-account credential backs it up.
func (c *Client) bindCredential(conn directory.ConnectionParams) directory.Credential {
	if conn.Credential != "" {
		return conn.Credential
	}
	return c.credential
}

func (c *Client) dial(url string, conn directory.ConnectionParams) (*goldap.Conn, error) {
	l, err := goldap.DialURL(url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if cred := c.bindCredential(conn); cred != "" {
		if err := l.Bind(c.bindDN, string(cred)); err != nil {
			l.Close()
			return nil, fmt.Errorf("bind %s: %w", c.bindDN, err)
		}
	}
	return l, nil
}

// QueryDomain describes the domain identified by identity, or the domain
// behind conn when identity is empty.
func (c *Client) QueryDomain(ctx context.Context, identity string, conn directory.ConnectionParams) (*directory.DomainDescriptor, error) {
	url, err := c.endpoint(identity, conn)
	if err != nil {
		return nil, err
	}
	l, err := c.dial(url, conn)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	root, err := c.rootDSE(l)
	if err != nil {
		return nil, err
	}

	head, err := c.searchOne(l, root.defaultNC, goldap.ScopeBaseObject,
		"(objectClass=*)", []string{"objectSid", "name"})
	if err != nil {
		return nil, fmt.Errorf("read domain head %s: %w", root.defaultNC, err)
	}
	domainSID, err := sid.FromBinary(head.GetRawAttributeValue("objectSid"))
	if err != nil {
		return nil, fmt.Errorf("decode domain SID of %s: %w", root.defaultNC, err)
	}

	crossRef, err := c.searchOne(l, "CN=Partitions,"+root.configNC, goldap.ScopeWholeSubtree,
		fmt.Sprintf("(&(objectClass=crossRef)(nCName=%s))", goldap.EscapeFilter(root.defaultNC)),
		[]string{attrNetBIOSName, attrDNSRoot})
	if err != nil {
		return nil, fmt.Errorf("read partition crossRef of %s: %w", root.defaultNC, err)
	}

	fqdn := crossRef.GetAttributeValue(attrDNSRoot)
	return &directory.DomainDescriptor{
		DistinguishedName: root.defaultNC,
		Name:              head.GetAttributeValue("name"),
		FQDN:              fqdn,
		SID:               domainSID,
		NetBIOSName:       crossRef.GetAttributeValue(attrNetBIOSName),
		PDCEmulator:       root.dnsHostName,
		Handle:            head,
	}, nil
}

// QueryForest lists the domains and alternative UPN suffixes of the forest
// behind conn.
func (c *Client) QueryForest(ctx context.Context, conn directory.ConnectionParams) (*directory.ForestDescriptor, error) {
	url, err := c.endpoint("", conn)
	if err != nil {
		return nil, err
	}
	l, err := c.dial(url, conn)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	root, err := c.rootDSE(l)
	if err != nil {
		return nil, err
	}
	partitions := "CN=Partitions," + root.configNC

	container, err := c.searchOne(l, partitions, goldap.ScopeBaseObject,
		"(objectClass=*)", []string{attrUPNSuffixes})
	if err != nil {
		return nil, fmt.Errorf("read partitions container: %w", err)
	}

	// Domain partitions carry a NetBIOS name; application and configuration
	// partitions do not.
	res, err := c.search(l, partitions, goldap.ScopeSingleLevel,
		fmt.Sprintf("(&(objectClass=crossRef)(%s=*))", attrNetBIOSName),
		[]string{attrDNSRoot})
	if err != nil {
		return nil, fmt.Errorf("list domain partitions: %w", err)
	}

	forest := &directory.ForestDescriptor{
		UPNSuffixes: container.GetAttributeValues(attrUPNSuffixes),
	}
	for _, entry := range res.Entries {
		if fqdn := entry.GetAttributeValue(attrDNSRoot); fqdn != "" {
			forest.DomainFQDNs = append(forest.DomainFQDNs, fqdn)
		}
	}
	return forest, nil
}

// QueryObjects searches the domain behind conn for principals matching the
// predicate.
func (c *Client) QueryObjects(ctx context.Context, predicate directory.Predicate, conn directory.ConnectionParams) ([]directory.DirectoryObject, error) {
	url, err := c.endpoint("", conn)
	if err != nil {
		return nil, err
	}
	l, err := c.dial(url, conn)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	root, err := c.rootDSE(l)
	if err != nil {
		return nil, err
	}

	res, err := c.search(l, root.defaultNC, goldap.ScopeWholeSubtree,
		objectFilter(predicate),
		[]string{
			directory.AttrSAMAccountName,
			directory.AttrUserPrincipalName,
			directory.AttrObjectSID,
			directory.AttrDisplayName,
			directory.AttrObjectClass,
		})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", root.defaultNC, err)
	}

	objects := make([]directory.DirectoryObject, 0, len(res.Entries))
	for _, entry := range res.Entries {
		obj, err := objectFromEntry(entry)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping undecodable directory entry",
				"dn", entry.DN,
				"error", err.Error(),
			)
			continue
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// objectFilter builds the search filter for a predicate, restricted to
// security principals.
func objectFilter(p directory.Predicate) string {
	return fmt.Sprintf("(&(|(objectClass=user)(objectClass=group)(objectClass=computer))(%s=%s))",
		p.Field, goldap.EscapeFilter(p.Value))
}

func objectFromEntry(entry *goldap.Entry) (directory.DirectoryObject, error) {
	objectSID, err := sid.FromBinary(entry.GetRawAttributeValue(directory.AttrObjectSID))
	if err != nil {
		return directory.DirectoryObject{}, fmt.Errorf("decode objectSid: %w", err)
	}
	return directory.DirectoryObject{
		DistinguishedName: entry.DN,
		Attributes: map[string]string{
			directory.AttrSAMAccountName:    entry.GetAttributeValue(directory.AttrSAMAccountName),
			directory.AttrUserPrincipalName: entry.GetAttributeValue(directory.AttrUserPrincipalName),
			directory.AttrObjectSID:         objectSID,
			directory.AttrDisplayName:       entry.GetAttributeValue(directory.AttrDisplayName),
			directory.AttrObjectClass:       mostSpecificClass(entry.GetAttributeValues(directory.AttrObjectClass)),
		},
		Handle: entry,
	}, nil
}

// mostSpecificClass picks the leaf of the objectClass chain; directories
// return it ordered from "top" down.
func mostSpecificClass(classes []string) string {
	if len(classes) == 0 {
		return ""
	}
	return classes[len(classes)-1]
}

type rootDSE struct {
	defaultNC   string
	configNC    string
	dnsHostName string
}

func (c *Client) rootDSE(l *goldap.Conn) (rootDSE, error) {
	entry, err := c.searchOne(l, "", goldap.ScopeBaseObject, "(objectClass=*)",
		[]string{attrDefaultNamingContext, attrConfigNamingContext, attrDNSHostName})
	if err != nil {
		return rootDSE{}, fmt.Errorf("read rootDSE: %w", err)
	}
	root := rootDSE{
		defaultNC:   entry.GetAttributeValue(attrDefaultNamingContext),
		configNC:    entry.GetAttributeValue(attrConfigNamingContext),
		dnsHostName: entry.GetAttributeValue(attrDNSHostName),
	}
	if root.defaultNC == "" {
		return rootDSE{}, fmt.Errorf("rootDSE names no default naming context")
	}
	return root, nil
}

func (c *Client) search(l *goldap.Conn, base string, scope int, filter string, attrs []string) (*goldap.SearchResult, error) {
	req := goldap.NewSearchRequest(base, scope, goldap.NeverDerefAliases, 0, 0, false, filter, attrs, nil)
	return l.Search(req)
}

func (c *Client) searchOne(l *goldap.Conn, base string, scope int, filter string, attrs []string) (*goldap.Entry, error) {
	res, err := c.search(l, base, scope, filter, attrs)
	if err != nil {
		return nil, err
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("no entry under %q matching %s", base, filter)
	}
	return res.Entries[0], nil
}
