// Package workflow defines the lifecycle state machines for the shipping
// pipeline entities and enforces legal transitions. It is a pure package:
// no persistence, no transport.
package workflow

import (
	"fmt"

	"autohaul_crm_backend/platform/apperr"
)

// Entity type identifiers used to select a state machine.
const (
	EntityLead     = "lead"
	EntityQuote    = "quote"
	EntityOrder    = "order"
	EntityDispatch = "dispatch"
)

// Lead lifecycle states. A lead's state names the furthest pipeline entity
// derived from it.
const (
	LeadStateLead      = "lead"
	LeadStateQuote     = "quote"
	LeadStateOrder     = "order"
	LeadStateDispatch  = "dispatch"
	LeadStateCompleted = "completed"
	LeadStateCancelled = "cancelled"
)

// Quote lifecycle states. Expiry is evaluated lazily against valid_until at
// read time; "expired" still appears here so explicit marking is legal.
const (
	QuoteStateDraft     = "draft"
	QuoteStateSent      = "sent"
	QuoteStateAccepted  = "accepted"
	QuoteStateRejected  = "rejected"
	QuoteStateExpired   = "expired"
	QuoteStateCancelled = "cancelled"
)

// Order lifecycle states.
const (
	OrderStatePendingSignature = "pending_signature"
	OrderStateSigned           = "signed"
	OrderStateInProgress       = "in_progress"
	OrderStateChangeRequested  = "change_requested"
	OrderStateCancelled        = "cancelled"
)

// Dispatch lifecycle states.
const (
	DispatchStateAssigned  = "assigned"
	DispatchStateInTransit = "in_transit"
	DispatchStateDelivered = "delivered"
	DispatchStateCompleted = "completed"
)

// transitions is the explicit adjacency table per entity type. A move not
// present here is illegal; there are no implicit skips.
var transitions = map[string]map[string][]string{
	EntityLead: {
		LeadStateLead:      {LeadStateQuote, LeadStateCancelled},
		LeadStateQuote:     {LeadStateOrder, LeadStateCancelled},
		LeadStateOrder:     {LeadStateDispatch, LeadStateCancelled},
		LeadStateDispatch:  {LeadStateCompleted, LeadStateCancelled},
		LeadStateCompleted: {},
		LeadStateCancelled: {},
	},
	EntityQuote: {
		QuoteStateDraft:     {QuoteStateSent, QuoteStateCancelled},
		QuoteStateSent:      {QuoteStateAccepted, QuoteStateRejected, QuoteStateExpired, QuoteStateCancelled},
		QuoteStateAccepted:  {QuoteStateExpired},
		QuoteStateRejected:  {},
		QuoteStateExpired:   {},
		QuoteStateCancelled: {},
	},
	EntityOrder: {
		OrderStatePendingSignature: {OrderStateSigned, OrderStateChangeRequested, OrderStateCancelled},
		OrderStateSigned:           {OrderStateInProgress, OrderStateChangeRequested, OrderStateCancelled},
		OrderStateInProgress:       {OrderStateCancelled},
		OrderStateChangeRequested:  {OrderStateCancelled},
		OrderStateCancelled:        {},
	},
	EntityDispatch: {
		DispatchStateAssigned:  {DispatchStateInTransit},
		DispatchStateInTransit: {DispatchStateDelivered},
		DispatchStateDelivered: {DispatchStateCompleted},
		DispatchStateCompleted: {},
	},
}

// IsKnownState reports whether state exists in the entity's state machine.
func IsKnownState(entityType, state string) bool {
	states, ok := transitions[entityType]
	if !ok {
		return false
	}
	_, ok = states[state]
	return ok
}

// IsTerminal reports whether no further transitions are possible from state.
func IsTerminal(entityType, state string) bool {
	states, ok := transitions[entityType]
	if !ok {
		return false
	}
	next, ok := states[state]
	return ok && len(next) == 0
}

// CanTransition reports whether moving from one state to another is legal
// for the given entity type. Unknown entity types or states are never legal.
func CanTransition(entityType, from, to string) bool {
	states, ok := transitions[entityType]
	if !ok {
		return false
	}
	for _, next := range states[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a state move and returns a typed error when the state
// machine rejects it. Callers mutate state only after this succeeds.
func Transition(entityType, from, to string) error {
	if CanTransition(entityType, from, to) {
		return nil
	}
	return apperr.InvalidTransition(
		fmt.Sprintf("%s cannot move from %q to %q", entityType, from, to),
	)
}
