package transport

import (
	"time"

	quotetransport "autohaul_crm_backend/internal/quotes/transport"
)

// ConvertLeadToQuoteRequest carries the optional overrides for the
// lead-to-quote conversion. Absent fees default to "0"; absent side contacts
// default to the lead's contact fields.
type ConvertLeadToQuoteRequest struct {
	CarrierFee *string                     `json:"carrierFee"`
	BrokerFee  *string                     `json:"brokerFee"`
	Pickup     *quotetransport.SideDetails `json:"pickup" validate:"omitempty"`
	Dropoff    *quotetransport.SideDetails `json:"dropoff" validate:"omitempty"`
	ValidUntil *time.Time                  `json:"validUntil"`
}

// ConvertQuoteToOrderRequest carries the optional overrides for the
// quote-to-order conversion. Side and fee overrides are written back onto the
// quote; the conversion is the point where final negotiated numbers lock in.
type ConvertQuoteToOrderRequest struct {
	ContractType *string                     `json:"contractType" validate:"omitempty,oneof=standard with-cc without-cc"`
	CarrierFee   *string                     `json:"carrierFee"`
	BrokerFee    *string                     `json:"brokerFee"`
	Pickup       *quotetransport.SideDetails `json:"pickup" validate:"omitempty"`
	Dropoff      *quotetransport.SideDetails `json:"dropoff" validate:"omitempty"`
}

// ConvertOrderToDispatchRequest carries the optional overrides for the
// order-to-dispatch conversion. Absent fees are copied from the quote.
type ConvertOrderToDispatchRequest struct {
	CarrierName        *string    `json:"carrierName" validate:"omitempty,max=200"`
	CarrierPhone       *string    `json:"carrierPhone" validate:"omitempty,max=40"`
	CarrierEmail       *string    `json:"carrierEmail" validate:"omitempty,email,max=320"`
	DriverName         *string    `json:"driverName" validate:"omitempty,max=200"`
	DriverPhone        *string    `json:"driverPhone" validate:"omitempty,max=40"`
	VehicleDescription *string    `json:"vehicleDescription" validate:"omitempty,max=500"`
	ScheduledPickupAt  *time.Time `json:"scheduledPickupAt"`
	ScheduledDeliveryAt *time.Time `json:"scheduledDeliveryAt"`
	CarrierFee         *string    `json:"carrierFee"`
	BrokerFee          *string    `json:"brokerFee"`
}
