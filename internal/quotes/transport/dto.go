package transport

import (
	"time"

	"github.com/google/uuid"
)

// SideContact is one contact on the pickup or drop-off side. Sides carry an
// ordered contact list; the first entry is mirrored into the legacy singular
// name/phone fields for older API clients.
type SideContact struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Phone string `json:"phone" validate:"omitempty,max=40"`
	Email string `json:"email" validate:"omitempty,email,max=320"`
}

// SideDetails carries the address block for one side of the shipment.
type SideDetails struct {
	Address  string        `json:"address" validate:"omitempty,max=300"`
	Zip      string        `json:"zip" validate:"omitempty,max=20"`
	Contacts []SideContact `json:"contacts" validate:"omitempty,dive"`
}

// ── Requests ──────────────────────────────────────────────────────────────────

// UpdateQuoteRequest is the request body for partially updating a quote.
// Totals are recomputed server-side from the fee components.
type UpdateQuoteRequest struct {
	CarrierFee    *string      `json:"carrierFee"`
	BrokerFee     *string      `json:"brokerFee"`
	Pickup        *SideDetails `json:"pickup"`
	Dropoff       *SideDetails `json:"dropoff"`
	SpecialTerms  *string      `json:"specialTerms"`
	StandardTerms *string      `json:"standardTerms"`
	ValidUntil    *time.Time   `json:"validUntil"`
}

// UpdateQuoteStateRequest moves a quote through its workflow.
type UpdateQuoteStateRequest struct {
	State string `json:"state" validate:"required"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// QuoteResponse is the API representation of a quote. State reflects lazy
// expiry: a sent or accepted quote past its validity deadline reports
// "expired" without a stored transition.
type QuoteResponse struct {
	ID                 uuid.UUID     `json:"id"`
	TenantID           uuid.UUID     `json:"tenantId"`
	LeadID             uuid.UUID     `json:"leadId"`
	PublicID           string        `json:"publicId"`
	CarrierFee         string        `json:"carrierFee"`
	BrokerFee          string        `json:"brokerFee"`
	TotalTariff        string        `json:"totalTariff"`
	PickupAddress      string        `json:"pickupAddress,omitempty"`
	PickupZip          string        `json:"pickupZip,omitempty"`
	PickupContacts     []SideContact `json:"pickupContacts,omitempty"`
	PickupContactName  string        `json:"pickupContactName,omitempty"`
	PickupContactPhone string        `json:"pickupContactPhone,omitempty"`
	DropoffAddress     string        `json:"dropoffAddress,omitempty"`
	DropoffZip         string        `json:"dropoffZip,omitempty"`
	DropoffContacts    []SideContact `json:"dropoffContacts,omitempty"`
	DropoffContactName string        `json:"dropoffContactName,omitempty"`
	DropoffContactPhone string       `json:"dropoffContactPhone,omitempty"`
	SpecialTerms       *string       `json:"specialTerms,omitempty"`
	StandardTerms      *string       `json:"standardTerms,omitempty"`
	State              string        `json:"state"`
	ValidUntil         *time.Time    `json:"validUntil,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// ListQuotesResponse is the paginated quote listing.
type ListQuotesResponse struct {
	Items      []QuoteResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}
