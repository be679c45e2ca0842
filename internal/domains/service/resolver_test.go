package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"adresolver/internal/directory"
	"adresolver/internal/directory/mocks"
	"adresolver/internal/domains/models"
	"adresolver/internal/domains/store"
	"adresolver/internal/projection"
)

type DomainResolverSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	querier  *mocks.MockQuerier
	registry *store.InMemory
	service  *Service
	ctx      context.Context
}

func TestDomainResolverSuite(t *testing.T) {
	suite.Run(t, new(DomainResolverSuite))
}

func (s *DomainResolverSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.querier = mocks.NewMockQuerier(s.ctrl)
	s.registry = store.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.service, err = New(s.registry, s.querier,
		WithLogger(logger),
		WithDefaultDomain("contoso.com"),
	)
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *DomainResolverSuite) TearDownTest() {
	s.ctrl.Finish()
}

func contosoDescriptor() *directory.DomainDescriptor {
	return &directory.DomainDescriptor{
		DistinguishedName: "DC=contoso,DC=com",
		Name:              "contoso",
		FQDN:              "contoso.com",
		SID:               "S-1-5-21-1-2-3",
		NetBIOSName:       "CONTOSO",
		PDCEmulator:       "dc01.contoso.com",
		Handle:            "contoso-handle",
	}
}

func (s *DomainResolverSuite) registerContoso() *models.Domain {
	d := models.FromDescriptor(contosoDescriptor(), []string{"fabrikam.org"}, "")
	s.Require().NoError(s.registry.Put(s.ctx, d))
	return d
}

func (s *DomainResolverSuite) TestConstructorGuards() {
	_, err := New(nil, s.querier)
	s.Error(err)
	_, err = New(s.registry, nil)
	s.Error(err)
}

// TestRegistryHitsSkipDirectory verifies every identity key answers from the
// registry with no directory interaction.
func (s *DomainResolverSuite) TestRegistryHitsSkipDirectory() {
	d := s.registerContoso()

	s.Run("by FQDN", func() {
		got, err := s.service.Resolve(s.ctx, "contoso.com", projection.ShapeRecord, directory.ConnectionParams{})
		s.Require().NoError(err)
		s.Same(d, got)
	})

	s.Run("by short name", func() {
		got, err := s.service.Resolve(s.ctx, "contoso", projection.ShapeFQDN, directory.ConnectionParams{})
		s.Require().NoError(err)
		s.Equal("contoso.com", got)
	})

	s.Run("by NetBIOS name", func() {
		got, err := s.service.Resolve(s.ctx, "CONTOSO", projection.ShapeSID, directory.ConnectionParams{})
		s.Require().NoError(err)
		s.Equal("S-1-5-21-1-2-3", got)
	})

	s.Run("account SID strips to domain SID", func() {
		got, err := s.service.Resolve(s.ctx, "S-1-5-21-1-2-3-1013", projection.ShapeNetBIOS, directory.ConnectionParams{})
		s.Require().NoError(err)
		s.Equal("CONTOSO", got)
	})
}

// TestMissQueriesAndRegisters verifies the directory fallback registers the
// discovered domain so the second resolution is a cache hit.
func (s *DomainResolverSuite) TestMissQueriesAndRegisters() {
	conn := directory.ConnectionParams{Server: "dc01.contoso.com", Credential: "svc"}
	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "contoso.com", conn).
		Return(contosoDescriptor(), nil)
	s.querier.EXPECT().
		QueryForest(gomock.Any(), conn).
		Return(&directory.ForestDescriptor{UPNSuffixes: []string{"fabrikam.org"}}, nil)

	got, err := s.service.Resolve(s.ctx, "contoso.com", projection.ShapeDistinguishedName, conn)
	s.Require().NoError(err)
	s.Equal("DC=contoso,DC=com", got)

	// Registered under every key, including the accumulated suffix.
	byNetBIOS, err := s.registry.FindByNetBIOS(s.ctx, "CONTOSO")
	s.Require().NoError(err)
	s.Equal("contoso.com", byNetBIOS.FQDN)
	s.ElementsMatch([]string{"contoso.com", "fabrikam.org"}, byNetBIOS.UPNSuffixes)

	// Connection cache remembers which descriptor this server answered with.
	cached, err := s.registry.CachedConnection(s.ctx, "dc01.contoso.com")
	s.Require().NoError(err)
	s.Equal("contoso.com", cached.FQDN)

	// Second call: no further expectations set, so any query would fail
	// the controller.
	_, err = s.service.Resolve(s.ctx, "contoso.com", projection.ShapeRecord, conn)
	s.Require().NoError(err)
}

// TestTwoTierFallback verifies a failed routed query retries with server
// routing dropped before giving up.
func (s *DomainResolverSuite) TestTwoTierFallback() {
	conn := directory.ConnectionParams{Server: "dead.contoso.com", Credential: "svc"}
	bare := conn.WithoutServer()

	s.Run("second tier succeeds", func() {
		gomock.InOrder(
			s.querier.EXPECT().
				QueryDomain(gomock.Any(), "contoso.com", conn).
				Return(nil, errors.New("server unreachable")),
			s.querier.EXPECT().
				QueryDomain(gomock.Any(), "contoso.com", bare).
				Return(contosoDescriptor(), nil),
			s.querier.EXPECT().
				QueryForest(gomock.Any(), conn).
				Return(nil, errors.New("no forest info")),
		)

		got, err := s.service.Resolve(s.ctx, "contoso.com", projection.ShapeFQDN, conn)
		s.Require().NoError(err)
		s.Equal("contoso.com", got)
	})

	s.Run("both tiers fail", func() {
		s.Require().NoError(s.registry.Clear(s.ctx))
		original := errors.New("server unreachable")
		gomock.InOrder(
			s.querier.EXPECT().
				QueryDomain(gomock.Any(), "tailspin.net", conn).
				Return(nil, original),
			s.querier.EXPECT().
				QueryDomain(gomock.Any(), "tailspin.net", bare).
				Return(nil, original),
		)

		_, err := s.service.Resolve(s.ctx, "tailspin.net", projection.ShapeFQDN, conn)
		s.Require().ErrorIs(err, ErrDomainNotFound)
		s.ErrorIs(err, original, "the original query error stays wrapped")
	})
}

// TestEmptyNameResolvesOwnDomain verifies empty-name resolution asks the
// directory for the caller's own domain.
func (s *DomainResolverSuite) TestEmptyNameResolvesOwnDomain() {
	d := s.registerContoso()
	conn := directory.ConnectionParams{Credential: "svc"}

	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "", conn).
		Return(contosoDescriptor(), nil)

	got, err := s.service.Resolve(s.ctx, "", projection.ShapeRecord, conn)
	s.Require().NoError(err)
	s.Same(d, got)
}

// TestEmptyNameFallsBackToDefault verifies the locally-known default domain
// answers when the own-domain query fails.
func (s *DomainResolverSuite) TestEmptyNameFallsBackToDefault() {
	d := s.registerContoso()
	conn := directory.ConnectionParams{Credential: "svc"}

	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "", conn).
		Return(nil, errors.New("no directory reachable"))

	got, err := s.service.Resolve(s.ctx, "", projection.ShapeRecord, conn)
	s.Require().NoError(err)
	s.Same(d, got, "default domain contoso.com resolves from the registry")
}

// TestConcurrentMissesShareOneQuery verifies a burst of identical misses
// issues a single directory round trip.
func (s *DomainResolverSuite) TestConcurrentMissesShareOneQuery() {
	conn := directory.ConnectionParams{Credential: "svc"}
	release := make(chan struct{})

	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "contoso.com", conn).
		DoAndReturn(func(context.Context, string, directory.ConnectionParams) (*directory.DomainDescriptor, error) {
			<-release
			return contosoDescriptor(), nil
		}).
		Times(1)
	s.querier.EXPECT().
		QueryForest(gomock.Any(), conn).
		Return(&directory.ForestDescriptor{}, nil).
		Times(1)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, results[n] = s.service.Resolve(s.ctx, "contoso.com", projection.ShapeFQDN, conn)
		}(i)
	}
	close(release)
	wg.Wait()

	for _, err := range results {
		s.NoError(err)
	}
}
