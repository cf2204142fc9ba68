package service

import (
	"testing"
	"time"

	"autohaul_crm_backend/internal/quotes/repository"
	"autohaul_crm_backend/internal/quotes/transport"
	"autohaul_crm_backend/internal/workflow"
)

var reference = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func TestEffectiveStateLazyExpiry(t *testing.T) {
	past := reference.Add(-time.Hour)
	future := reference.Add(time.Hour)

	cases := []struct {
		name       string
		state      string
		validUntil *time.Time
		want       string
	}{
		{"sent past deadline expires", workflow.QuoteStateSent, &past, workflow.QuoteStateExpired},
		{"accepted past deadline expires", workflow.QuoteStateAccepted, &past, workflow.QuoteStateExpired},
		{"sent before deadline holds", workflow.QuoteStateSent, &future, workflow.QuoteStateSent},
		{"draft never lazily expires", workflow.QuoteStateDraft, &past, workflow.QuoteStateDraft},
		{"rejected never lazily expires", workflow.QuoteStateRejected, &past, workflow.QuoteStateRejected},
		{"no deadline holds", workflow.QuoteStateSent, nil, workflow.QuoteStateSent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote := &repository.Quote{State: tc.state, ValidUntil: tc.validUntil}
			if got := EffectiveState(quote, reference); got != tc.want {
				t.Fatalf("EffectiveState(%s, validUntil=%v) = %q, want %q", tc.state, tc.validUntil, got, tc.want)
			}
		})
	}
}

func TestApplySideMirrorsFirstContactIntoLegacyFields(t *testing.T) {
	quote := &repository.Quote{}
	ApplySide(quote, transport.SideDetails{
		Address: "401 Dock St",
		Zip:     "85001",
		Contacts: []transport.SideContact{
			{Name: "Morgan Lee", Phone: "+16025550133"},
			{Name: "Backup Desk", Phone: "+16025550199"},
		},
	}, true)

	if quote.PickupAddress != "401 Dock St" || quote.PickupZip != "85001" {
		t.Fatalf("unexpected pickup address block: %+v", quote)
	}
	if len(quote.PickupContacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(quote.PickupContacts))
	}
	if quote.PickupContactName != "Morgan Lee" || quote.PickupContactPhone != "+16025550133" {
		t.Fatalf("expected first contact mirrored into legacy fields, got %q / %q",
			quote.PickupContactName, quote.PickupContactPhone)
	}
}

func TestApplySideEmptyContactsClearsLegacyFields(t *testing.T) {
	quote := &repository.Quote{DropoffContactName: "stale", DropoffContactPhone: "stale"}
	ApplySide(quote, transport.SideDetails{Address: "9 Pier Rd"}, false)

	if quote.DropoffContactName != "" || quote.DropoffContactPhone != "" {
		t.Fatalf("expected legacy fields cleared, got %q / %q",
			quote.DropoffContactName, quote.DropoffContactPhone)
	}
}
