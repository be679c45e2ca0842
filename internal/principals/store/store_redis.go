package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	domainmodels "adresolver/internal/domains/models"
	"adresolver/internal/principals/models"
	"adresolver/pkg/platform/sentinel"
)

// Redis is a principal registry backed by Redis, for deployments that share
// one resolution cache across processes. Same index layout as InMemory: the
// canonical record lives under the SID key, the other three index paths hold
// SID pointers. Put writes all keys in one transactional pipeline so readers
// never see a partially indexed record.
//
// The Domain reference is flattened to its identity fields on write; a read
// reconstructs a detached domain record carrying just those fields.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a principal registry on the given client. Keys are
// namespaced under "adresolver:principal:".
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "adresolver:principal:"}
}

type redisPrincipal struct {
	SID               string `json:"sid"`
	SamAccountName    string `json:"sam_account_name"`
	UserPrincipalName string `json:"user_principal_name,omitempty"`
	DisplayName       string `json:"display_name,omitempty"`
	ObjectClass       string `json:"object_class,omitempty"`
	DomainName        string `json:"domain_name"`
	DomainFQDN        string `json:"domain_fqdn"`
	DomainSID         string `json:"domain_sid"`
	DomainNetBIOS     string `json:"domain_netbios"`
}

func (s *Redis) sidKey(principalSID string) string {
	return s.prefix + "sid:" + principalSID
}

func (s *Redis) upnKey(upn string) string {
	return s.prefix + "upn:" + normalize(upn)
}

func (s *Redis) ntKey(ntAccount string) string {
	return s.prefix + "nt:" + normalize(ntAccount)
}

func (s *Redis) domainKey(fqdn, sam string) string {
	return s.prefix + "dom:" + normalize(fqdn) + ":" + normalize(sam)
}

// Put registers a principal under all four index paths.
func (s *Redis) Put(ctx context.Context, p *models.Principal) error {
	if p == nil || p.SID == "" || p.SamAccountName == "" || p.Domain == nil {
		return sentinel.ErrInvalidState
	}
	rec := redisPrincipal{
		SID:               p.SID,
		SamAccountName:    p.SamAccountName,
		UserPrincipalName: p.UserPrincipalName,
		DisplayName:       p.DisplayName,
		ObjectClass:       p.ObjectClass,
		DomainName:        p.Domain.Name,
		DomainFQDN:        p.Domain.FQDN,
		DomainSID:         p.Domain.SID,
		DomainNetBIOS:     p.Domain.NetBIOSName,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sidKey(p.SID), payload, 0)
	if p.UserPrincipalName != "" {
		pipe.Set(ctx, s.upnKey(p.UserPrincipalName), p.SID, 0)
	}
	pipe.Set(ctx, s.ntKey(p.NTAccount()), p.SID, 0)
	pipe.Set(ctx, s.domainKey(p.Domain.FQDN, p.SamAccountName), p.SID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

// FindBySID looks up a principal by its SID string.
func (s *Redis) FindBySID(ctx context.Context, principalSID string) (*models.Principal, error) {
	payload, err := s.client.Get(ctx, s.sidKey(principalSID)).Bytes()
	if err != nil {
		return nil, translateErr(err)
	}
	return decodePrincipal(payload)
}

// FindByUPN looks up a principal by userPrincipalName.
func (s *Redis) FindByUPN(ctx context.Context, upn string) (*models.Principal, error) {
	if upn == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findIndirect(ctx, s.upnKey(upn))
}

// FindByNTAccount looks up a principal by its DOMAIN\user string.
func (s *Redis) FindByNTAccount(ctx context.Context, ntAccount string) (*models.Principal, error) {
	return s.findIndirect(ctx, s.ntKey(ntAccount))
}

// FindInDomain looks up a principal by hosting domain FQDN and local name.
func (s *Redis) FindInDomain(ctx context.Context, fqdn, samAccountName string) (*models.Principal, error) {
	return s.findIndirect(ctx, s.domainKey(fqdn, samAccountName))
}

func (s *Redis) findIndirect(ctx context.Context, indexKey string) (*models.Principal, error) {
	principalSID, err := s.client.Get(ctx, indexKey).Result()
	if err != nil {
		return nil, translateErr(err)
	}
	return s.FindBySID(ctx, principalSID)
}

// List snapshots every registered principal.
func (s *Redis) List(ctx context.Context) ([]*models.Principal, error) {
	var out []*models.Principal
	iter := s.client.Scan(ctx, 0, s.prefix+"sid:*", 100).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // deleted between scan and get
		}
		if err != nil {
			return nil, translateErr(err)
		}
		p, err := decodePrincipal(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := iter.Err(); err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}

// Clear removes every key in the registry namespace. Deletion runs in scan
// batches; a concurrent Put may land after its batch was deleted, which
// matches the memory store's "old set or new empty set" guarantee per key.
func (s *Redis) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return translateErr(err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return translateErr(err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return translateErr(err)
		}
	}
	return nil
}

func decodePrincipal(payload []byte) (*models.Principal, error) {
	var rec redisPrincipal
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode principal: %w", err)
	}
	return &models.Principal{
		SID:               rec.SID,
		SamAccountName:    rec.SamAccountName,
		UserPrincipalName: rec.UserPrincipalName,
		DisplayName:       rec.DisplayName,
		ObjectClass:       rec.ObjectClass,
		Domain: &domainmodels.Domain{
			Name:        rec.DomainName,
			FQDN:        rec.DomainFQDN,
			SID:         rec.DomainSID,
			NetBIOSName: rec.DomainNetBIOS,
		},
	}, nil
}

func translateErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
}
