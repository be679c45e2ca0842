package store

import (
	"context"
	"strings"
	"sync"

	"adresolver/internal/principals/models"
	"adresolver/pkg/platform/sentinel"
)

// InMemory is the canonical registry of resolved principals. One record set
// is reachable four ways: by SID, by UPN (when present), by NTAccount
// string, and by a two-level domain-FQDN → SamAccountName index. Put fills
// every applicable index under one lock acquisition.
//
// NTAccount keys are not guaranteed unique when two registered domains share
// a NetBIOS name; in that case the later registration wins the NTAccount
// slot. The SID and per-domain indices still hold both records.
type InMemory struct {
	mu          sync.RWMutex
	bySID       map[string]*models.Principal
	byUPN       map[string]*models.Principal
	byNTAccount map[string]*models.Principal
	byDomain    map[string]map[string]*models.Principal
}

// NewInMemory creates an empty principal registry.
func NewInMemory() *InMemory {
	s := &InMemory{}
	s.reset()
	return s
}

func (s *InMemory) reset() {
	s.bySID = make(map[string]*models.Principal)
	s.byUPN = make(map[string]*models.Principal)
	s.byNTAccount = make(map[string]*models.Principal)
	s.byDomain = make(map[string]map[string]*models.Principal)
}

// Put registers a principal under all four index paths. The UPN index is
// only touched when the record carries a UPN.
func (s *InMemory) Put(_ context.Context, p *models.Principal) error {
	if p == nil || p.SID == "" || p.SamAccountName == "" || p.Domain == nil {
		return sentinel.ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bySID[p.SID] = p
	if p.UserPrincipalName != "" {
		s.byUPN[normalize(p.UserPrincipalName)] = p
	}
	s.byNTAccount[normalize(p.NTAccount())] = p

	fqdn := normalize(p.Domain.FQDN)
	perDomain, ok := s.byDomain[fqdn]
	if !ok {
		perDomain = make(map[string]*models.Principal)
		s.byDomain[fqdn] = perDomain
	}
	perDomain[normalize(p.SamAccountName)] = p
	return nil
}

// FindBySID looks up a principal by its SID string.
func (s *InMemory) FindBySID(_ context.Context, principalSID string) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.bySID[principalSID]; ok {
		return p, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByUPN looks up a principal by userPrincipalName, case-insensitively.
func (s *InMemory) FindByUPN(_ context.Context, upn string) (*models.Principal, error) {
	if upn == "" {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.byUPN[normalize(upn)]; ok {
		return p, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByNTAccount looks up a principal by its DOMAIN\user string.
func (s *InMemory) FindByNTAccount(_ context.Context, ntAccount string) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.byNTAccount[normalize(ntAccount)]; ok {
		return p, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindInDomain looks up a principal by its hosting domain's FQDN and its
// local account name.
func (s *InMemory) FindInDomain(_ context.Context, fqdn, samAccountName string) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if perDomain, ok := s.byDomain[normalize(fqdn)]; ok {
		if p, ok := perDomain[normalize(samAccountName)]; ok {
			return p, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List snapshots every registered principal, in no particular order.
func (s *InMemory) List(_ context.Context) ([]*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Principal, 0, len(s.bySID))
	for _, p := range s.bySID {
		out = append(out, p)
	}
	return out, nil
}

// Clear atomically replaces all four indices with empty ones.
func (s *InMemory) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
