package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "adresolver/pkg/platform/audit"
)

func TestChannelEmit(t *testing.T) {
	outbox := make(chan audit.Event, 1)
	p := NewChannel(outbox)

	event := audit.NewEvent(audit.ActionDomainResolved)
	event.Domain = "contoso.com"
	require.NoError(t, p.Emit(context.Background(), event))

	got := <-outbox
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, "contoso.com", got.Domain)
}

func TestChannelEmitDropsWhenFull(t *testing.T) {
	outbox := make(chan audit.Event, 1)
	p := NewChannel(outbox)

	require.NoError(t, p.Emit(context.Background(), audit.NewEvent(audit.ActionDomainResolved)))
	// Second emit finds the buffer full and must not block.
	require.NoError(t, p.Emit(context.Background(), audit.NewEvent(audit.ActionDomainResolved)))
	assert.Len(t, outbox, 1)
}
