package workflow

import (
	"testing"

	"autohaul_crm_backend/platform/apperr"
)

func TestCanTransitionLeadHappyPath(t *testing.T) {
	steps := [][2]string{
		{LeadStateLead, LeadStateQuote},
		{LeadStateQuote, LeadStateOrder},
		{LeadStateOrder, LeadStateDispatch},
		{LeadStateDispatch, LeadStateCompleted},
	}
	for _, step := range steps {
		if !CanTransition(EntityLead, step[0], step[1]) {
			t.Fatalf("expected lead %s -> %s to be legal", step[0], step[1])
		}
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	cases := []struct {
		entity, from, to string
	}{
		{EntityLead, LeadStateQuote, LeadStateDispatch},
		{EntityLead, LeadStateLead, LeadStateOrder},
		{EntityQuote, QuoteStateDraft, QuoteStateAccepted},
		{EntityOrder, OrderStatePendingSignature, OrderStateInProgress},
		{EntityDispatch, DispatchStateAssigned, DispatchStateDelivered},
	}
	for _, tc := range cases {
		if CanTransition(tc.entity, tc.from, tc.to) {
			t.Fatalf("expected %s %s -> %s to be illegal", tc.entity, tc.from, tc.to)
		}
	}
}

func TestCancelledReachableFromNonTerminalLeadStates(t *testing.T) {
	for _, from := range []string{LeadStateLead, LeadStateQuote, LeadStateOrder, LeadStateDispatch} {
		if !CanTransition(EntityLead, from, LeadStateCancelled) {
			t.Fatalf("expected lead %s -> cancelled to be legal", from)
		}
	}
	if CanTransition(EntityLead, LeadStateCompleted, LeadStateCancelled) {
		t.Fatal("expected completed lead to be terminal")
	}
}

func TestTransitionReturnsTypedError(t *testing.T) {
	err := Transition(EntityLead, LeadStateLead, LeadStateDispatch)
	if err == nil {
		t.Fatal("expected illegal transition to error")
	}
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected KindInvalidTransition, got %v", apperr.GetKind(err))
	}

	if err := Transition(EntityLead, LeadStateLead, LeadStateQuote); err != nil {
		t.Fatalf("expected legal transition to succeed, got %v", err)
	}
}

func TestUnknownEntityAndState(t *testing.T) {
	if CanTransition("shipment", "a", "b") {
		t.Fatal("unknown entity type must never transition")
	}
	if CanTransition(EntityQuote, "unknown", QuoteStateSent) {
		t.Fatal("unknown state must never transition")
	}
	if IsKnownState(EntityOrder, "shipped") {
		t.Fatal("expected shipped to be unknown for orders")
	}
	if !IsKnownState(EntityOrder, OrderStateSigned) {
		t.Fatal("expected signed to be known for orders")
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(EntityQuote, QuoteStateRejected) {
		t.Fatal("expected rejected quote to be terminal")
	}
	if IsTerminal(EntityQuote, QuoteStateSent) {
		t.Fatal("expected sent quote to be non-terminal")
	}
	if !IsTerminal(EntityDispatch, DispatchStateCompleted) {
		t.Fatal("expected completed dispatch to be terminal")
	}
}
