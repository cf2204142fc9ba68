// Package domain holds the conversion engine's domain events.
package domain

import (
	"autohaul_crm_backend/platform/events"

	"github.com/google/uuid"
)

// Event names published on the in-memory bus after each conversion commits.
const (
	EventLeadConvertedToQuote     = "lead.converted_to_quote"
	EventQuoteConvertedToOrder    = "quote.converted_to_order"
	EventOrderConvertedToDispatch = "order.converted_to_dispatch"
)

// ConversionEvent is published after a conversion transaction commits. The
// idempotent fast path (existing derived row returned) does not publish.
type ConversionEvent struct {
	events.BaseEvent
	Name            string     `json:"name"`
	TenantID        uuid.UUID  `json:"tenantId"`
	LeadID          uuid.UUID  `json:"leadId"`
	EntityID        uuid.UUID  `json:"entityId"`
	PublicID        string     `json:"publicId"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId,omitempty"`
}

// EventName returns the event's unique identifier.
func (e ConversionEvent) EventName() string {
	return e.Name
}
