package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"adresolver/internal/directory"
	"adresolver/internal/directory/mocks"
	"adresolver/internal/domains/store"
)

type ForestRegistrarSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	querier  *mocks.MockQuerier
	registry *store.InMemory
	service  *Service
	ctx      context.Context
}

func TestForestRegistrarSuite(t *testing.T) {
	suite.Run(t, new(ForestRegistrarSuite))
}

func (s *ForestRegistrarSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.querier = mocks.NewMockQuerier(s.ctrl)
	s.registry = store.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.service, err = New(s.registry, s.querier, WithLogger(logger))
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *ForestRegistrarSuite) TearDownTest() {
	s.ctrl.Finish()
}

func descriptorFor(fqdn, netbios, sidSuffix string) *directory.DomainDescriptor {
	return &directory.DomainDescriptor{
		DistinguishedName: "DC=" + netbios,
		Name:              netbios,
		FQDN:              fqdn,
		SID:               "S-1-5-21-10-20-" + sidSuffix,
		NetBIOSName:       netbios,
	}
}

// TestAnchorQueryFailureIsFatal verifies the whole call aborts when the
// anchor domain cannot be described.
func (s *ForestRegistrarSuite) TestAnchorQueryFailureIsFatal() {
	conn := directory.ConnectionParams{Server: "dc01", Credential: "svc"}
	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "", conn).
		Return(nil, errors.New("bind refused"))

	err := s.service.RegisterForest(s.ctx, conn, true)
	s.Require().ErrorIs(err, ErrDomainAccess)

	domains, lerr := s.registry.List(s.ctx)
	s.Require().NoError(lerr)
	s.Empty(domains)
}

// TestForestQueryFailureIsFatal verifies a reachable anchor with an
// unreadable forest still aborts: sibling enumeration needs the forest.
func (s *ForestRegistrarSuite) TestForestQueryFailureIsFatal() {
	conn := directory.ConnectionParams{Credential: "svc"}
	gomock.InOrder(
		s.querier.EXPECT().
			QueryDomain(gomock.Any(), "", conn).
			Return(descriptorFor("contoso.com", "CONTOSO", "1"), nil),
		s.querier.EXPECT().
			QueryForest(gomock.Any(), conn).
			Return(nil, errors.New("forest read denied")),
	)

	err := s.service.RegisterForest(s.ctx, conn, true)
	s.Require().ErrorIs(err, ErrDomainAccess)
}

// TestAnchorOnly verifies recurse=false registers exactly the anchor.
func (s *ForestRegistrarSuite) TestAnchorOnly() {
	conn := directory.ConnectionParams{Server: "dc01.contoso.com", Credential: "svc"}
	gomock.InOrder(
		s.querier.EXPECT().
			QueryDomain(gomock.Any(), "", conn).
			Return(descriptorFor("contoso.com", "CONTOSO", "1"), nil),
		s.querier.EXPECT().
			QueryForest(gomock.Any(), conn).
			Return(&directory.ForestDescriptor{
				DomainFQDNs: []string{"contoso.com", "emea.contoso.com"},
				UPNSuffixes: []string{"contoso.partners"},
			}, nil),
	)

	s.Require().NoError(s.service.RegisterForest(s.ctx, conn, false))

	domains, err := s.registry.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(domains, 1)
	s.Equal("contoso.com", domains[0].FQDN)
	s.ElementsMatch([]string{"contoso.com", "contoso.partners"}, domains[0].UPNSuffixes)

	cached, err := s.registry.CachedConnection(s.ctx, "dc01.contoso.com")
	s.Require().NoError(err)
	s.Equal("contoso.com", cached.FQDN)
}

// TestPartialForest verifies unreachable siblings are skipped without
// aborting registration of the reachable ones.
func (s *ForestRegistrarSuite) TestPartialForest() {
	conn := directory.ConnectionParams{Server: "dc01.contoso.com", Credential: "svc"}
	bare := conn.WithoutServer()
	forest := &directory.ForestDescriptor{
		DomainFQDNs: []string{
			"contoso.com",
			"emea.contoso.com",
			"apac.contoso.com",
			"dead1.contoso.com",
			"dead2.contoso.com",
		},
		UPNSuffixes: []string{"contoso.partners"},
	}

	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "", conn).
		Return(descriptorFor("contoso.com", "CONTOSO", "1"), nil)
	s.querier.EXPECT().
		QueryForest(gomock.Any(), conn).
		Return(forest, nil)
	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "emea.contoso.com", bare).
		Return(descriptorFor("emea.contoso.com", "EMEA", "2"), nil)
	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "apac.contoso.com", bare).
		Return(descriptorFor("apac.contoso.com", "APAC", "3"), nil)
	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "dead1.contoso.com", bare).
		Return(nil, errors.New("unreachable"))
	s.querier.EXPECT().
		QueryDomain(gomock.Any(), "dead2.contoso.com", bare).
		Return(nil, errors.New("unreachable"))

	s.Require().NoError(s.service.RegisterForest(s.ctx, conn, true))

	domains, err := s.registry.List(s.ctx)
	s.Require().NoError(err)
	s.Len(domains, 3)

	for _, fqdn := range []string{"contoso.com", "emea.contoso.com", "apac.contoso.com"} {
		d, err := s.registry.FindByFQDN(s.ctx, fqdn)
		s.Require().NoError(err, fqdn)
		s.Contains(d.UPNSuffixes, "contoso.partners")
	}
	_, err = s.registry.FindByFQDN(s.ctx, "dead1.contoso.com")
	s.Error(err)
}

// TestSiblingCredentialAsymmetry verifies only the anchor record retains the
// registration credential.
func (s *ForestRegistrarSuite) TestSiblingCredentialAsymmetry() {
	conn := directory.ConnectionParams{Credential: "svc"}
	gomock.InOrder(
		s.querier.EXPECT().
			QueryDomain(gomock.Any(), "", conn).
			Return(descriptorFor("contoso.com", "CONTOSO", "1"), nil),
		s.querier.EXPECT().
			QueryForest(gomock.Any(), conn).
			Return(&directory.ForestDescriptor{
				DomainFQDNs: []string{"contoso.com", "emea.contoso.com"},
			}, nil),
		s.querier.EXPECT().
			QueryDomain(gomock.Any(), "emea.contoso.com", conn.WithoutServer()).
			Return(descriptorFor("emea.contoso.com", "EMEA", "2"), nil),
	)

	s.Require().NoError(s.service.RegisterForest(s.ctx, conn, true))

	anchor, err := s.registry.FindByFQDN(s.ctx, "contoso.com")
	s.Require().NoError(err)
	s.True(anchor.HasCredential())

	sibling, err := s.registry.FindByFQDN(s.ctx, "emea.contoso.com")
	s.Require().NoError(err)
	s.False(sibling.HasCredential())
}

// TestClearThenReregister verifies a cleared registry repopulates cleanly.
func (s *ForestRegistrarSuite) TestClearThenReregister() {
	conn := directory.ConnectionParams{Credential: "svc"}
	register := func() {
		gomock.InOrder(
			s.querier.EXPECT().
				QueryDomain(gomock.Any(), "", conn).
				Return(descriptorFor("contoso.com", "CONTOSO", "1"), nil),
			s.querier.EXPECT().
				QueryForest(gomock.Any(), conn).
				Return(&directory.ForestDescriptor{DomainFQDNs: []string{"contoso.com"}}, nil),
		)
		s.Require().NoError(s.service.RegisterForest(s.ctx, conn, true))
	}

	register()
	s.Require().NoError(s.service.Clear(s.ctx))

	domains, err := s.registry.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(domains)

	register()
	d, err := s.registry.FindByFQDN(s.ctx, "contoso.com")
	s.Require().NoError(err)
	s.Equal("CONTOSO", d.NetBIOSName)
}
