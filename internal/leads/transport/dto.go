package transport

import (
	"time"

	"github.com/google/uuid"
)

// Lead priorities accepted on create/update.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// SourceManual marks a lead created through the CRM UI rather than an
// ingestion feed.
const SourceManual = "manual"

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateLeadRequest is the request body for creating a new lead.
type CreateLeadRequest struct {
	ContactName     string     `json:"contactName" validate:"required,min=1,max=200"`
	ContactEmail    string     `json:"contactEmail" validate:"omitempty,email,max=320"`
	ContactPhone    string     `json:"contactPhone" validate:"omitempty,max=40"`
	VehicleMake     string     `json:"vehicleMake" validate:"required,max=100"`
	VehicleModel    string     `json:"vehicleModel" validate:"required,max=100"`
	VehicleYear     int        `json:"vehicleYear" validate:"omitempty,min=1900,max=2100"`
	Origin          string     `json:"origin" validate:"required,max=300"`
	Destination     string     `json:"destination" validate:"required,max=300"`
	OriginZip       *string    `json:"originZip" validate:"omitempty,max=20"`
	DestinationZip  *string    `json:"destinationZip" validate:"omitempty,max=20"`
	PickupDate      *time.Time `json:"pickupDate"`
	DeliveryDate    *time.Time `json:"deliveryDate"`
	CarrierFee      string     `json:"carrierFee"`
	BrokerFee       string     `json:"brokerFee"`
	Priority        string     `json:"priority" validate:"omitempty,oneof=low normal high"`
	Notes           *string    `json:"notes"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId"`
}

// UpdateLeadRequest is the request body for partially updating a lead.
// The total tariff is always recomputed server-side from the fee components.
type UpdateLeadRequest struct {
	ContactName    *string    `json:"contactName" validate:"omitempty,min=1,max=200"`
	ContactEmail   *string    `json:"contactEmail" validate:"omitempty,email,max=320"`
	ContactPhone   *string    `json:"contactPhone" validate:"omitempty,max=40"`
	VehicleMake    *string    `json:"vehicleMake" validate:"omitempty,max=100"`
	VehicleModel   *string    `json:"vehicleModel" validate:"omitempty,max=100"`
	VehicleYear    *int       `json:"vehicleYear" validate:"omitempty,min=1900,max=2100"`
	Origin         *string    `json:"origin" validate:"omitempty,max=300"`
	Destination    *string    `json:"destination" validate:"omitempty,max=300"`
	OriginZip      *string    `json:"originZip" validate:"omitempty,max=20"`
	DestinationZip *string    `json:"destinationZip" validate:"omitempty,max=20"`
	PickupDate     *time.Time `json:"pickupDate"`
	DeliveryDate   *time.Time `json:"deliveryDate"`
	CarrierFee     *string    `json:"carrierFee"`
	BrokerFee      *string    `json:"brokerFee"`
	Priority       *string    `json:"priority" validate:"omitempty,oneof=low normal high"`
	Notes          *string    `json:"notes"`
}

// AssignLeadRequest assigns or unassigns an agent.
type AssignLeadRequest struct {
	AgentID *uuid.UUID `json:"agentId"`
}

// UpdateLeadStateRequest moves a lead through its workflow.
type UpdateLeadStateRequest struct {
	State string `json:"state" validate:"required"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenantId"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId,omitempty"`
	PublicID        string     `json:"publicId"`
	ContactName     string     `json:"contactName"`
	ContactEmail    string     `json:"contactEmail,omitempty"`
	ContactPhone    string     `json:"contactPhone,omitempty"`
	VehicleMake     string     `json:"vehicleMake"`
	VehicleModel    string     `json:"vehicleModel"`
	VehicleYear     int        `json:"vehicleYear,omitempty"`
	Origin          string     `json:"origin"`
	Destination     string     `json:"destination"`
	OriginZip       *string    `json:"originZip,omitempty"`
	DestinationZip  *string    `json:"destinationZip,omitempty"`
	PickupDate      *time.Time `json:"pickupDate,omitempty"`
	DeliveryDate    *time.Time `json:"deliveryDate,omitempty"`
	CarrierFee      string     `json:"carrierFee"`
	BrokerFee       string     `json:"brokerFee"`
	TotalTariff     string     `json:"totalTariff"`
	State           string     `json:"state"`
	Priority        string     `json:"priority"`
	Notes           *string    `json:"notes,omitempty"`
	Source          string     `json:"source"`
	ExternalID      *string    `json:"externalId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ListLeadsResponse is the paginated lead listing.
type ListLeadsResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}
