package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "adresolver/pkg/platform/audit"
	"adresolver/pkg/platform/audit/store/memory"
)

func TestWorkerPersistsEvents(t *testing.T) {
	store := memory.New()
	inbox := make(chan audit.Event, 4)
	w := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := audit.NewEvent(audit.ActionPrincipalResolved)
	first.Subject = "max@contoso.com"
	second := audit.NewEvent(audit.ActionRegistryCleared)
	inbox <- first
	inbox <- second

	require.Eventually(t, func() bool {
		events, err := store.List(context.Background())
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	events, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, audit.ActionPrincipalResolved, events[0].Action)
	assert.Equal(t, "max@contoso.com", events[0].Subject)
	assert.Equal(t, audit.ActionRegistryCleared, events[1].Action)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
