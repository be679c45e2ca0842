// Package service resolves principals (users, groups and similar directory
// objects) registry-first, falling through to directory queries against
// candidate domains chosen from the identity's notation.
package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"adresolver/internal/directory"
	domainmodels "adresolver/internal/domains/models"
	"adresolver/internal/principals/metrics"
	"adresolver/internal/principals/models"
	audit "adresolver/pkg/platform/audit"
	"adresolver/pkg/requestcontext"
)

// Registry is the principal registry as this service consumes it: three
// direct identity indices plus the per-domain account index, and the atomic
// clear.
type Registry interface {
	Put(ctx context.Context, p *models.Principal) error
	FindBySID(ctx context.Context, principalSID string) (*models.Principal, error)
	FindByUPN(ctx context.Context, upn string) (*models.Principal, error)
	FindByNTAccount(ctx context.Context, ntAccount string) (*models.Principal, error)
	FindInDomain(ctx context.Context, fqdn, samAccountName string) (*models.Principal, error)
	List(ctx context.Context) ([]*models.Principal, error)
	Clear(ctx context.Context) error
}

// DomainResolver turns a domain discriminator (name, FQDN, NetBIOS name, SID
// or empty for the caller's own domain) into a registered domain record.
type DomainResolver interface {
	ResolveRecord(ctx context.Context, name string, conn directory.ConnectionParams) (*domainmodels.Domain, error)
}

// SuffixIndex answers which registered domains carry a UPN suffix. The
// domain registry implements it.
type SuffixIndex interface {
	FindByUPNSuffix(ctx context.Context, suffix string) ([]*domainmodels.Domain, error)
}

// AuditPublisher emits audit events for principal resolutions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the principal resolver. Directory calls happen outside any
// registry lock; the registry serializes its own access.
type Service struct {
	registry Registry
	querier  directory.Querier
	domains  DomainResolver
	suffixes SuffixIndex
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  AuditPublisher

	// flight collapses concurrent identical registry misses into a single
	// directory search.
	flight singleflight.Group
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

// New constructs a Service.
func New(registry Registry, querier directory.Querier, domains DomainResolver, suffixes SuffixIndex, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("principal registry is required")
	}
	if querier == nil {
		return nil, errors.New("directory querier is required")
	}
	if domains == nil {
		return nil, errors.New("domain resolver is required")
	}
	if suffixes == nil {
		return nil, errors.New("UPN suffix index is required")
	}
	s := &Service{
		registry: registry,
		querier:  querier,
		domains:  domains,
		suffixes: suffixes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Clear empties the principal registry; resolved principals repopulate it on
// demand.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.registry.Clear(ctx); err != nil {
		return err
	}
	s.emit(ctx, audit.ActionRegistryCleared, "", "", "cleared")
	return nil
}

// List snapshots all registered principals.
func (s *Service) List(ctx context.Context) ([]*models.Principal, error) {
	return s.registry.List(ctx)
}

func (s *Service) emit(ctx context.Context, action audit.Action, subject, domain, outcome string) {
	if s.auditor == nil {
		return
	}
	event := audit.NewEvent(action)
	event.Subject = subject
	event.Domain = domain
	event.Outcome = outcome
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err.Error())
	}
}
