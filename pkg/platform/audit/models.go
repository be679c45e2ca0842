package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action classifies what a resolution audit event records.
type Action string

const (
	ActionDomainRegistered  Action = "domain_registered"
	ActionDomainResolved    Action = "domain_resolved"
	ActionPrincipalResolved Action = "principal_resolved"
	ActionRegistryCleared   Action = "registry_cleared"
)

// Event is emitted from resolver services to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Credentials and raw
// directory handles never appear here.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// Subject is the input identity as the caller supplied it.
	Subject string `json:"subject,omitempty"`
	// Domain is the FQDN of the domain the event concerns.
	Domain string `json:"domain,omitempty"`
	// Outcome is "hit", "miss", "registered", or an error class.
	Outcome string `json:"outcome,omitempty"`
	// RequestID is the correlation ID from the request context, if any.
	RequestID string `json:"request_id,omitempty"`
}

// NewEvent stamps an event with identity and time.
func NewEvent(action Action) Event {
	return Event{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Action:    action,
	}
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}
