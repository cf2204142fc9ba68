package transport

import (
	"time"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// UpdateDispatchRequest partially updates a dispatch. Fee changes recompute
// the total server-side.
type UpdateDispatchRequest struct {
	CarrierName         *string    `json:"carrierName" validate:"omitempty,max=200"`
	CarrierPhone        *string    `json:"carrierPhone" validate:"omitempty,max=40"`
	CarrierEmail        *string    `json:"carrierEmail" validate:"omitempty,email,max=320"`
	DriverName          *string    `json:"driverName" validate:"omitempty,max=200"`
	DriverPhone         *string    `json:"driverPhone" validate:"omitempty,max=40"`
	VehicleDescription  *string    `json:"vehicleDescription" validate:"omitempty,max=500"`
	ScheduledPickupAt   *time.Time `json:"scheduledPickupAt"`
	ActualPickupAt      *time.Time `json:"actualPickupAt"`
	ScheduledDeliveryAt *time.Time `json:"scheduledDeliveryAt"`
	ActualDeliveryAt    *time.Time `json:"actualDeliveryAt"`
	CarrierFee          *string    `json:"carrierFee"`
	BrokerFee           *string    `json:"brokerFee"`
	Notes               *string    `json:"notes" validate:"omitempty,max=4000"`
}

// UpdateDispatchStateRequest moves a dispatch through its workflow.
type UpdateDispatchStateRequest struct {
	State string `json:"state" validate:"required"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// DispatchResponse is the API representation of a dispatch.
type DispatchResponse struct {
	ID                  uuid.UUID  `json:"id"`
	TenantID            uuid.UUID  `json:"tenantId"`
	OrderID             uuid.UUID  `json:"orderId"`
	LeadID              uuid.UUID  `json:"leadId"`
	PublicID            string     `json:"publicId"`
	CarrierName         string     `json:"carrierName,omitempty"`
	CarrierPhone        string     `json:"carrierPhone,omitempty"`
	CarrierEmail        string     `json:"carrierEmail,omitempty"`
	DriverName          string     `json:"driverName,omitempty"`
	DriverPhone         string     `json:"driverPhone,omitempty"`
	VehicleDescription  string     `json:"vehicleDescription,omitempty"`
	ScheduledPickupAt   *time.Time `json:"scheduledPickupAt,omitempty"`
	ActualPickupAt      *time.Time `json:"actualPickupAt,omitempty"`
	ScheduledDeliveryAt *time.Time `json:"scheduledDeliveryAt,omitempty"`
	ActualDeliveryAt    *time.Time `json:"actualDeliveryAt,omitempty"`
	CarrierFee          string     `json:"carrierFee"`
	BrokerFee           string     `json:"brokerFee"`
	TotalTariff         string     `json:"totalTariff"`
	State               string     `json:"state"`
	Notes               *string    `json:"notes,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// ListDispatchesResponse is the paginated dispatch listing.
type ListDispatchesResponse struct {
	Items      []DispatchResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}
