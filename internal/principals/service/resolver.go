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
	domainmodels "adresolver/internal/domains/models"
	"adresolver/internal/principals/models"
	"adresolver/internal/projection"
	"adresolver/pkg/account"
	audit "adresolver/pkg/platform/audit"
	"adresolver/pkg/sid"
)

var tracer = otel.Tracer("adresolver/internal/principals/service")

// Resolve finds the principal identified by name and projects it to the
// requested shape.
//
// The fast path probes the registry with the raw input across the SID, UPN
// and NTAccount indices; a hit returns without touching the directory. A
// literal SID asked back as a SID short-circuits next: the answer is the
// input, so no directory round trip is spent on it. Everything else parses
// the notation, selects candidate domains, and searches them in order until
// one yields a match, which is registered before being returned.
func (s *Service) Resolve(ctx context.Context, name string, shape projection.Shape, conn directory.ConnectionParams) (any, error) {
	ctx, span := tracer.Start(ctx, "principals.Resolve")
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveResolve(time.Now())
	}
	span.SetAttributes(attribute.String("principal.name", name))

	if name == "" {
		return nil, fmt.Errorf("%w: empty principal name", ErrPrincipalNotFound)
	}

	if record := s.fromRegistry(ctx, name); record != nil {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		s.emit(ctx, audit.ActionPrincipalResolved, name, record.Domain.FQDN, "hit")
		return projection.Principal(record, shape)
	}

	if shape == projection.ShapeSID && sid.Valid(name) {
		return name, nil
	}

	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}
	record, err := s.queryAndRegister(ctx, name, conn)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.emit(ctx, audit.ActionPrincipalResolved, name, record.Domain.FQDN, "miss")
	return projection.Principal(record, shape)
}

// fromRegistry probes the raw input against every direct index. SID syntax
// is exclusive, so a valid SID skips the string indices.
func (s *Service) fromRegistry(ctx context.Context, name string) *models.Principal {
	if sid.Valid(name) {
		if p, err := s.registry.FindBySID(ctx, name); err == nil {
			return p
		}
		return nil
	}
	if p, err := s.registry.FindByUPN(ctx, name); err == nil {
		return p
	}
	if p, err := s.registry.FindByNTAccount(ctx, name); err == nil {
		return p
	}
	return nil
}

// queryAndRegister is the miss path. Concurrent misses for the same name
// share one directory search.
func (s *Service) queryAndRegister(ctx context.Context, name string, conn directory.ConnectionParams) (*models.Principal, error) {
	v, err, _ := s.flight.Do(strings.ToLower(name), func() (any, error) {
		// A racing flight may have registered the record already.
		if record := s.fromRegistry(ctx, name); record != nil {
			return record, nil
		}
		return s.searchCandidates(ctx, account.Parse(name), name, conn)
	})
	if err != nil {
		if !errors.Is(err, ErrPrincipalNotFound) {
			err = fmt.Errorf("%w: %q: %w", ErrPrincipalNotFound, name, err)
		}
		if s.metrics != nil {
			s.metrics.NotFound.Inc()
		}
		s.logger.WarnContext(ctx, "principal resolution failed", "principal", name, "error", err.Error())
		return nil, err
	}
	return v.(*models.Principal), nil
}

// searchCandidates selects candidate domains from the parsed notation and
// searches them in order. The first domain whose search returns a match
// wins; domains that answer with an empty result are passed over without
// error.
func (s *Service) searchCandidates(ctx context.Context, parsed account.Parsed, raw string, conn directory.ConnectionParams) (*models.Principal, error) {
	candidates, predicate, err := s.selectCandidates(ctx, parsed, raw, conn)
	if err != nil {
		return nil, err
	}

	for _, dom := range candidates {
		// Another resolution may have registered this account in the
		// meantime; a per-domain hit saves the search. UPN inputs were
		// already probed against the UPN index, and the local part of a UPN
		// is not an account name, so this check applies to the other
		// notations only.
		if parsed.Notation != account.NotationUPN && parsed.Notation != account.NotationSID {
			if p, err := s.registry.FindInDomain(ctx, dom.FQDN, parsed.LocalName); err == nil {
				return p, nil
			}
		}

		obj, found, qerr := s.searchDomain(ctx, dom, predicate, conn)
		if qerr != nil {
			s.logger.WarnContext(ctx, "directory search failed, trying next candidate",
				"principal", raw,
				"domain", dom.FQDN,
				"error", qerr.Error(),
			)
			continue
		}
		if !found {
			continue
		}

		record := models.FromObject(obj, dom)
		if err := s.registry.Put(ctx, record); err != nil {
			s.logger.WarnContext(ctx, "resolved principal not cacheable",
				"principal", raw,
				"domain", dom.FQDN,
				"error", err.Error(),
			)
		}
		return record, nil
	}

	return nil, fmt.Errorf("%w: %q: no match in %d candidate domain(s)", ErrPrincipalNotFound, raw, len(candidates))
}

// selectCandidates maps a notation to the domains worth searching and the
// predicate to search them with.
//
// UPN suffixes fan out: every registered domain carrying the suffix is a
// candidate, in registration order. An unknown suffix falls back to domain
// resolution of the suffix itself; if that fails too, the resolution is
// over, since no other domain could host the UPN. The remaining notations
// name exactly one domain: the NTAccount domain component, the SID's domain
// part, or — for bare names — the caller's own domain.
func (s *Service) selectCandidates(ctx context.Context, parsed account.Parsed, raw string, conn directory.ConnectionParams) ([]*domainmodels.Domain, directory.Predicate, error) {
	switch parsed.Notation {
	case account.NotationUPN:
		predicate := directory.Predicate{Field: directory.ByUserPrincipalName, Value: raw}
		if domains, err := s.suffixes.FindByUPNSuffix(ctx, parsed.Discriminator); err == nil && len(domains) > 0 {
			return domains, predicate, nil
		}
		dom, err := s.domains.ResolveRecord(ctx, parsed.Discriminator, conn)
		if err != nil {
			return nil, directory.Predicate{}, fmt.Errorf("%w: %q: suffix %q names no known domain: %w",
				ErrPrincipalNotFound, raw, parsed.Discriminator, err)
		}
		return []*domainmodels.Domain{dom}, predicate, nil

	case account.NotationSID:
		dom, err := s.domains.ResolveRecord(ctx, parsed.Discriminator, conn)
		if err != nil {
			return nil, directory.Predicate{}, err
		}
		return []*domainmodels.Domain{dom},
			directory.Predicate{Field: directory.ByObjectSID, Value: raw}, nil

	case account.NotationNTAccount:
		dom, err := s.domains.ResolveRecord(ctx, parsed.Discriminator, conn)
		if err != nil {
			return nil, directory.Predicate{}, err
		}
		return []*domainmodels.Domain{dom},
			directory.Predicate{Field: directory.BySAMAccountName, Value: parsed.LocalName}, nil

	default: // bare
		dom, err := s.domains.ResolveRecord(ctx, "", conn)
		if err != nil {
			return nil, directory.Predicate{}, err
		}
		return []*domainmodels.Domain{dom},
			directory.Predicate{Field: directory.BySAMAccountName, Value: parsed.LocalName}, nil
	}
}

// searchDomain runs one object query against one candidate domain. The
// first attempt uses the caller's connection, routed to the domain's own
// FQDN when the caller named no server, so a multi-candidate search reaches
// each domain rather than re-asking the default endpoint. When that fails
// and the domain record carries its own registration credential, the query
// retries once with that credential and no server routing. found is false
// when the domain answered cleanly but held no match.
func (s *Service) searchDomain(ctx context.Context, dom *domainmodels.Domain, predicate directory.Predicate, conn directory.ConnectionParams) (obj directory.DirectoryObject, found bool, err error) {
	domainConn := conn
	if domainConn.Server == "" {
		domainConn.Server = dom.FQDN
	}

	if s.metrics != nil {
		s.metrics.DirectoryQueries.Inc()
	}
	objects, err := s.querier.QueryObjects(ctx, predicate, domainConn)
	if err != nil && dom.HasCredential() {
		s.logger.WarnContext(ctx, "object query failed, retrying with the domain's registration credential",
			"domain", dom.FQDN,
			"error", err.Error(),
		)
		if s.metrics != nil {
			s.metrics.QueryFallbacks.Inc()
			s.metrics.DirectoryQueries.Inc()
		}
		objects, err = s.querier.QueryObjects(ctx, predicate, directory.ConnectionParams{Credential: dom.Credential})
	}
	if err != nil {
		return directory.DirectoryObject{}, false, err
	}
	if len(objects) == 0 {
		return directory.DirectoryObject{}, false, nil
	}
	return objects[0], true, nil
}
