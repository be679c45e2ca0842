package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"adresolver/internal/directory"
	"adresolver/internal/domains/models"
	"adresolver/internal/projection"
	audit "adresolver/pkg/platform/audit"
	"adresolver/pkg/platform/sentinel"
	"adresolver/pkg/sid"
)

var tracer = otel.Tracer("adresolver/internal/domains/service")

// Resolve finds the domain identified by name and projects it to the
// requested shape. An empty name resolves the domain reachable through conn.
func (s *Service) Resolve(ctx context.Context, name string, shape projection.Shape, conn directory.ConnectionParams) (any, error) {
	record, err := s.ResolveRecord(ctx, name, conn)
	if err != nil {
		return nil, err
	}
	return projection.Domain(record, shape)
}

// ResolveRecord is Resolve without the projection step; collaborators that
// need the whole record for further processing call it directly.
//
// Registry resolution order: the domain-SID component of a SID string, then
// FQDN, then short name, then NetBIOS name. First hit wins; the indices are
// keyed independently per record, so ties cannot happen. A miss falls
// through to the directory and auto-registers what it finds.
func (s *Service) ResolveRecord(ctx context.Context, name string, conn directory.ConnectionParams) (*models.Domain, error) {
	ctx, span := tracer.Start(ctx, "domains.Resolve")
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveResolve(time.Now())
	}

	if name == "" {
		var err error
		if name, err = s.ownDomainName(ctx, conn); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	span.SetAttributes(attribute.String("domain.name", name))

	if record := s.fromRegistry(ctx, name); record != nil {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		s.emit(ctx, audit.ActionDomainResolved, name, record.FQDN, "hit")
		return record, nil
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	record, err := s.queryAndRegister(ctx, name, conn)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.emit(ctx, audit.ActionDomainResolved, name, record.FQDN, "miss")
	return record, nil
}

// ownDomainName asks the directory which domain conn reaches, falling back
// to the configured default domain name when the query fails.
func (s *Service) ownDomainName(ctx context.Context, conn directory.ConnectionParams) (string, error) {
	if cached, err := s.registry.CachedConnection(ctx, conn.CacheKey()); err == nil {
		return cached.FQDN, nil
	}
	desc, err := s.querier.QueryDomain(ctx, "", conn)
	if err != nil {
		if s.defaultDomain != "" {
			s.logger.WarnContext(ctx, "own-domain query failed, using default domain",
				"default", s.defaultDomain,
				"error", err.Error(),
			)
			return s.defaultDomain, nil
		}
		return "", fmt.Errorf("%w: own domain: %w", ErrDomainNotFound, err)
	}
	return desc.FQDN, nil
}

func (s *Service) fromRegistry(ctx context.Context, name string) *models.Domain {
	if sid.Valid(name) {
		if d, err := s.registry.FindBySID(ctx, sid.DomainPart(name)); err == nil {
			return d
		}
		return nil
	}
	if d, err := s.registry.FindByFQDN(ctx, name); err == nil {
		return d
	}
	if d, err := s.registry.FindByName(ctx, name); err == nil {
		return d
	}
	if d, err := s.registry.FindByNetBIOS(ctx, name); err == nil {
		return d
	}
	return nil
}

// queryAndRegister is the miss path. Concurrent misses for the same name
// share one directory round trip; the two-tier credential fallback retries
// with server routing dropped before giving up.
func (s *Service) queryAndRegister(ctx context.Context, name string, conn directory.ConnectionParams) (*models.Domain, error) {
	v, err, _ := s.flight.Do(strings.ToLower(name), func() (any, error) {
		// A racing flight may have registered the record already.
		if record := s.fromRegistry(ctx, name); record != nil {
			return record, nil
		}

		desc, qerr := s.querier.QueryDomain(ctx, name, conn)
		if qerr != nil && conn.Server != "" {
			s.logger.WarnContext(ctx, "domain query failed, retrying without server routing",
				"domain", name,
				"server", conn.Server,
				"error", qerr.Error(),
			)
			desc, qerr = s.querier.QueryDomain(ctx, name, conn.WithoutServer())
		}
		if qerr != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrDomainNotFound, name, qerr)
		}
		return s.registerResolved(ctx, desc, conn)
	})
	if err != nil {
		if !errors.Is(err, ErrDomainNotFound) {
			err = fmt.Errorf("%w: %q: %w", ErrDomainNotFound, name, err)
		}
		s.logger.WarnContext(ctx, "domain resolution failed", "domain", name, "error", err.Error())
		return nil, err
	}
	return v.(*models.Domain), nil
}

// registerResolved is the single-domain registration step the resolver
// shares with the forest registrar: fetch the forest's UPN suffixes
// best-effort, build the record, and populate every index. The connection
// cache remembers which descriptor this server answered with.
func (s *Service) registerResolved(ctx context.Context, desc *directory.DomainDescriptor, conn directory.ConnectionParams) (*models.Domain, error) {
	var suffixes []string
	if forest, err := s.querier.QueryForest(ctx, conn); err == nil {
		suffixes = forest.UPNSuffixes
	} else {
		s.logger.DebugContext(ctx, "forest suffixes unavailable, registering domain alone",
			"domain", desc.FQDN,
			"error", err.Error(),
		)
	}

	record := models.FromDescriptor(desc, suffixes, conn.Credential)
	if err := s.registry.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("register domain %q: %w", desc.FQDN, err)
	}
	if err := s.registry.RememberConnection(ctx, conn.CacheKey(), record); err != nil && !errors.Is(err, sentinel.ErrInvalidState) {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.DomainsRegistered.Inc()
	}
	s.emit(ctx, audit.ActionDomainRegistered, desc.FQDN, desc.FQDN, "registered")
	return record, nil
}
