package store

import (
	"context"
	"strings"
	"sync"

	"adresolver/internal/domains/models"
	"adresolver/pkg/platform/sentinel"
)

// InMemory is the canonical registry of known domains. One record set is
// reachable through five independent indices plus a separate connection
// cache; Put populates every applicable index under one lock acquisition so
// no reader ever observes a partially registered record.
type InMemory struct {
	mu        sync.RWMutex
	bySID     map[string]*models.Domain
	byName    map[string]*models.Domain
	byFQDN    map[string]*models.Domain
	byNetBIOS map[string]*models.Domain
	// byUPNSuffix is one-to-many: a suffix shared across a forest maps to
	// every domain claiming it, in registration order.
	byUPNSuffix map[string][]*models.Domain
	// connCache memoizes "what descriptor did I get back when I asked
	// server X", keyed by the literal server/identity string. It is not
	// deduplicated against the identity indices.
	connCache map[string]*models.Domain
}

// NewInMemory creates an empty domain registry.
func NewInMemory() *InMemory {
	s := &InMemory{}
	s.reset()
	return s
}

func (s *InMemory) reset() {
	s.bySID = make(map[string]*models.Domain)
	s.byName = make(map[string]*models.Domain)
	s.byFQDN = make(map[string]*models.Domain)
	s.byNetBIOS = make(map[string]*models.Domain)
	s.byUPNSuffix = make(map[string][]*models.Domain)
	s.connCache = make(map[string]*models.Domain)
}

// Put registers a domain under all five indices. Re-registration replaces
// the record everywhere it is reachable: the identity indices overwrite
// their entry, and a suffix slot already held by the same FQDN is swapped
// for the new record so UPN fan-out never serves a stale pointer.
func (s *InMemory) Put(_ context.Context, d *models.Domain) error {
	if d == nil || d.FQDN == "" {
		return sentinel.ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.SID != "" {
		s.bySID[d.SID] = d
	}
	if d.Name != "" {
		s.byName[normalize(d.Name)] = d
	}
	s.byFQDN[normalize(d.FQDN)] = d
	if d.NetBIOSName != "" {
		s.byNetBIOS[normalize(d.NetBIOSName)] = d
	}

	for _, suffix := range d.UPNSuffixes {
		key := normalize(suffix)
		if i := indexOfFQDN(s.byUPNSuffix[key], d.FQDN); i >= 0 {
			s.byUPNSuffix[key][i] = d
			continue
		}
		s.byUPNSuffix[key] = append(s.byUPNSuffix[key], d)
	}
	return nil
}

func indexOfFQDN(domains []*models.Domain, fqdn string) int {
	for i, d := range domains {
		if strings.EqualFold(d.FQDN, fqdn) {
			return i
		}
	}
	return -1
}

// FindBySID looks up a domain by its SID string.
func (s *InMemory) FindBySID(_ context.Context, domainSID string) (*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.bySID[domainSID]; ok {
		return d, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByName looks up a domain by its short name, case-insensitively.
func (s *InMemory) FindByName(_ context.Context, name string) (*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.byName[normalize(name)]; ok {
		return d, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByFQDN looks up a domain by its fully qualified name.
func (s *InMemory) FindByFQDN(_ context.Context, fqdn string) (*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.byFQDN[normalize(fqdn)]; ok {
		return d, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByNetBIOS looks up a domain by its NetBIOS name.
func (s *InMemory) FindByNetBIOS(_ context.Context, netbios string) (*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.byNetBIOS[normalize(netbios)]; ok {
		return d, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByUPNSuffix returns every domain claiming the suffix, in registration
// order. Callers treat the slice as read-only.
func (s *InMemory) FindByUPNSuffix(_ context.Context, suffix string) ([]*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	domains, ok := s.byUPNSuffix[normalize(suffix)]
	if !ok || len(domains) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return domains, nil
}

// CachedConnection returns the descriptor last fetched through the given
// server/identity string.
func (s *InMemory) CachedConnection(_ context.Context, key string) (*models.Domain, error) {
	if key == "" {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.connCache[key]; ok {
		return d, nil
	}
	return nil, sentinel.ErrNotFound
}

// RememberConnection memoizes a descriptor under the server/identity string
// used to reach it.
func (s *InMemory) RememberConnection(_ context.Context, key string, d *models.Domain) error {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connCache[key] = d
	return nil
}

// List snapshots every registered domain, in no particular order.
func (s *InMemory) List(_ context.Context) ([]*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Domain, 0, len(s.byFQDN))
	for _, d := range s.byFQDN {
		out = append(out, d)
	}
	return out, nil
}

// Clear atomically replaces every index and the connection cache with empty
// ones. Lookups racing with a clear see either the old set or the new empty
// set, never a half-cleared one.
func (s *InMemory) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
