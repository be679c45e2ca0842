package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"adresolver/internal/directory"
	"adresolver/internal/domains/metrics"
	"adresolver/internal/domains/models"
	audit "adresolver/pkg/platform/audit"
	"adresolver/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Registry,AuditPublisher

// Registry is the domain registry as this service consumes it: five identity
// indices, the connection cache, and the atomic clear.
type Registry interface {
	Put(ctx context.Context, d *models.Domain) error
	FindBySID(ctx context.Context, domainSID string) (*models.Domain, error)
	FindByName(ctx context.Context, name string) (*models.Domain, error)
	FindByFQDN(ctx context.Context, fqdn string) (*models.Domain, error)
	FindByNetBIOS(ctx context.Context, netbios string) (*models.Domain, error)
	FindByUPNSuffix(ctx context.Context, suffix string) ([]*models.Domain, error)
	CachedConnection(ctx context.Context, key string) (*models.Domain, error)
	RememberConnection(ctx context.Context, key string, d *models.Domain) error
	List(ctx context.Context) ([]*models.Domain, error)
	Clear(ctx context.Context) error
}

// AuditPublisher emits audit events for registration and resolution.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service resolves domains registry-first with directory fallback, and
// registers forests. Directory calls happen outside any registry lock; the
// registry serializes its own access.
type Service struct {
	registry Registry
	querier  directory.Querier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  AuditPublisher

	// defaultDomain answers empty-name resolution when the directory
	// cannot name the caller's own domain.
	defaultDomain string

	// flight collapses concurrent identical registry misses into a single
	// directory query.
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

// WithDefaultDomain sets the locally-known fallback for empty-name
// resolution.
func WithDefaultDomain(fqdn string) Option {
	return func(s *Service) { s.defaultDomain = fqdn }
}

// New constructs a Service.
func New(registry Registry, querier directory.Querier, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("domain registry is required")
	}
	if querier == nil {
		return nil, errors.New("directory querier is required")
	}
	s := &Service{
		registry: registry,
		querier:  querier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Registry exposes the underlying registry for collaborators that read the
// UPN-suffix index directly (the principal resolver's candidate selection).
func (s *Service) Registry() Registry {
	return s.registry
}

// Clear empties the registry; the next resolution repopulates from scratch.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.registry.Clear(ctx); err != nil {
		return err
	}
	s.emit(ctx, audit.ActionRegistryCleared, "", "", "cleared")
	return nil
}

// List snapshots all registered domains.
func (s *Service) List(ctx context.Context) ([]*models.Domain, error) {
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
