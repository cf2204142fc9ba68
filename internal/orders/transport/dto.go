package transport

import (
	"time"

	"github.com/google/uuid"
)

// Contract types offered to customers.
const (
	ContractTypeStandard  = "standard"
	ContractTypeWithCC    = "with-cc"
	ContractTypeWithoutCC = "without-cc"
)

// ChangeOrder is one amendment requested against a signed contract.
type ChangeOrder struct {
	Description string    `json:"description" validate:"required,min=1,max=2000"`
	Date        time.Time `json:"date" validate:"required"`
}

// ── Requests ──────────────────────────────────────────────────────────────────

// UpdateOrderRequest partially updates an order's contract details.
type UpdateOrderRequest struct {
	ContractType *string `json:"contractType" validate:"omitempty,oneof=standard with-cc without-cc"`
}

// MarkContractSentRequest records that the contract went out to the customer.
// Timestamp defaults to now when omitted.
type MarkContractSentRequest struct {
	SentAt *time.Time `json:"sentAt"`
}

// SignContractRequest records the customer's signature.
type SignContractRequest struct {
	SignaturePayload string     `json:"signaturePayload" validate:"required"`
	SignedAt         *time.Time `json:"signedAt"`
}

// AddChangeOrderRequest appends a change order. Date defaults to now.
type AddChangeOrderRequest struct {
	Description string     `json:"description" validate:"required,min=1,max=2000"`
	Date        *time.Time `json:"date"`
}

// UpdateOrderStateRequest moves an order through its workflow.
type UpdateOrderStateRequest struct {
	State string `json:"state" validate:"required"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// OrderResponse is the API representation of an order.
type OrderResponse struct {
	ID               uuid.UUID     `json:"id"`
	TenantID         uuid.UUID     `json:"tenantId"`
	QuoteID          uuid.UUID     `json:"quoteId"`
	LeadID           uuid.UUID     `json:"leadId"`
	PublicID         string        `json:"publicId"`
	ContractType     string        `json:"contractType"`
	ContractSent     bool          `json:"contractSent"`
	ContractSentAt   *time.Time    `json:"contractSentAt,omitempty"`
	ContractSigned   bool          `json:"contractSigned"`
	ContractSignedAt *time.Time    `json:"contractSignedAt,omitempty"`
	SignaturePayload *string       `json:"signaturePayload,omitempty"`
	ChangeOrders     []ChangeOrder `json:"changeOrders"`
	State            string        `json:"state"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// ListOrdersResponse is the paginated order listing.
type ListOrdersResponse struct {
	Items      []OrderResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}
