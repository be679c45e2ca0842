package service

import (
	"context"
	"fmt"
	"strings"

	"adresolver/internal/directory"
	"adresolver/internal/domains/models"
	audit "adresolver/pkg/platform/audit"
)

// RegisterForest registers the domain reachable through conn and, when
// recurse is set, every reachable sibling in its forest.
//
// The anchor is mandatory: failure to query its descriptor or its forest is
// ErrDomainAccess and aborts the call, since nothing downstream can succeed
// without it. Sibling failures are skipped silently — one unreachable
// domain must not abort registration of the others.
//
// Siblings are queried with the anchor's credential and server routing
// dropped, and their records do not carry a per-domain credential the way
// the anchor's does. That asymmetry is deliberate; see DESIGN.md.
func (s *Service) RegisterForest(ctx context.Context, conn directory.ConnectionParams, recurse bool) error {
	ctx, span := tracer.Start(ctx, "domains.RegisterForest")
	defer span.End()

	anchor, err := s.querier.QueryDomain(ctx, "", conn)
	if err != nil {
		err = fmt.Errorf("%w: anchor domain: %w", ErrDomainAccess, err)
		span.RecordError(err)
		return err
	}
	forest, err := s.querier.QueryForest(ctx, conn)
	if err != nil {
		err = fmt.Errorf("%w: forest of %q: %w", ErrDomainAccess, anchor.FQDN, err)
		span.RecordError(err)
		return err
	}

	record := models.FromDescriptor(anchor, forest.UPNSuffixes, conn.Credential)
	if err := s.registry.Put(ctx, record); err != nil {
		return fmt.Errorf("register anchor %q: %w", anchor.FQDN, err)
	}
	if err := s.registry.RememberConnection(ctx, conn.CacheKey(), record); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.DomainsRegistered.Inc()
	}
	s.emit(ctx, audit.ActionDomainRegistered, anchor.FQDN, anchor.FQDN, "registered")

	if !recurse {
		return nil
	}

	siblingConn := conn.WithoutServer()
	for _, fqdn := range forest.DomainFQDNs {
		if strings.EqualFold(fqdn, anchor.FQDN) {
			continue
		}
		desc, err := s.querier.QueryDomain(ctx, fqdn, siblingConn)
		if err != nil {
			if s.metrics != nil {
				s.metrics.SiblingsSkipped.Inc()
			}
			s.logger.DebugContext(ctx, "skipping unreachable sibling domain",
				"domain", fqdn,
				"error", err.Error(),
			)
			continue
		}
		// No credential carried forward for siblings.
		sibling := models.FromDescriptor(desc, forest.UPNSuffixes, "")
		if err := s.registry.Put(ctx, sibling); err != nil {
			return fmt.Errorf("register sibling %q: %w", fqdn, err)
		}
		if s.metrics != nil {
			s.metrics.DomainsRegistered.Inc()
		}
		s.emit(ctx, audit.ActionDomainRegistered, fqdn, fqdn, "registered")
	}
	return nil
}
