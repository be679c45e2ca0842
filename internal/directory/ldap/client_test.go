package ldap

import (
	"testing"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"

	"adresolver/internal/directory"
)

func TestEndpoint(t *testing.T) {
	c := New("ldap://default.example:389", "CN=svc")

	tests := []struct {
		name     string
		identity string
		conn     directory.ConnectionParams
		want     string
		wantErr  bool
	}{
		{
			name: "connection server wins",
			conn: directory.ConnectionParams{Server: "dc01.contoso.com"},
			want: "ldap://dc01.contoso.com",
		},
		{
			name: "server with scheme passes through",
			conn: directory.ConnectionParams{Server: "ldaps://dc01.contoso.com:636"},
			want: "ldaps://dc01.contoso.com:636",
		},
		{
			name:     "identity FQDN doubles as host",
			identity: "emea.contoso.com",
			want:     "ldap://emea.contoso.com",
		},
		{
			name:     "short identity falls back to default",
			identity: "CONTOSO",
			want:     "ldap://default.example:389",
		},
		{
			name: "default when nothing routes",
			want: "ldap://default.example:389",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.endpoint(tt.identity, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no endpoint anywhere", func(t *testing.T) {
		bare := New("", "")
		_, err := bare.endpoint("CONTOSO", directory.ConnectionParams{})
		assert.Error(t, err)
	})
}

func TestBindCredential(t *testing.T) {
	c := New("ldap://default.example:389", "CN=svc", WithCredential("svc-secret"))

	t.Run("query credential wins", func(t *testing.T) {
		got := c.bindCredential(directory.ConnectionParams{Credential: "caller-secret"})
		assert.Equal(t, directory.Credential("caller-secret"), got)
	})

	t.Run("configured credential backs an unauthenticated query", func(t *testing.T) {
		got := c.bindCredential(directory.ConnectionParams{})
		assert.Equal(t, directory.Credential("svc-secret"), got)
	})

	t.Run("no credential anywhere means anonymous", func(t *testing.T) {
		bare := New("", "")
		assert.Equal(t, directory.Credential(""), bare.bindCredential(directory.ConnectionParams{}))
	})
}

func TestObjectFilter(t *testing.T) {
	t.Run("escapes the value", func(t *testing.T) {
		got := objectFilter(directory.Predicate{
			Field: directory.BySAMAccountName,
			Value: "max*)(cn=*",
		})
		assert.NotContains(t, got, "max*)")
		assert.Contains(t, got, goldap.EscapeFilter("max*)(cn=*"))
	})

	t.Run("filters on the predicate field", func(t *testing.T) {
		got := objectFilter(directory.Predicate{
			Field: directory.ByUserPrincipalName,
			Value: "tom@contoso.com",
		})
		assert.Contains(t, got, "(userPrincipalName=tom@contoso.com)")
	})
}

func TestMostSpecificClass(t *testing.T) {
	assert.Equal(t, "user", mostSpecificClass([]string{"top", "person", "organizationalPerson", "user"}))
	assert.Equal(t, "", mostSpecificClass(nil))
}
