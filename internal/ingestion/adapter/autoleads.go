package adapter

import (
	"encoding/json"
	"fmt"
	"time"

	leadservice "autohaul_crm_backend/internal/leads/service"
	"autohaul_crm_backend/platform/apperr"
)

// SourceAutoleads serves feeds shaped as a flat JSON array of camelCase
// lead records.
const SourceAutoleads = "autoleads"

type autoleadsRecord struct {
	ExternalID     string  `json:"externalId"`
	ContactName    string  `json:"contactName"`
	ContactEmail   string  `json:"contactEmail"`
	ContactPhone   string  `json:"contactPhone"`
	VehicleMake    string  `json:"vehicleMake"`
	VehicleModel   string  `json:"vehicleModel"`
	VehicleYear    int     `json:"vehicleYear"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	OriginZip      *string `json:"originZip"`
	DestinationZip *string `json:"destinationZip"`
	PickupDate     *string `json:"pickupDate"`
	CarrierFee     string  `json:"carrierFee"`
	BrokerFee      string  `json:"brokerFee"`
}

// AutoleadsAdapter parses the flat-array feed shape.
type AutoleadsAdapter struct{}

// NewAutoleadsAdapter creates the flat-array adapter.
func NewAutoleadsAdapter() *AutoleadsAdapter {
	return &AutoleadsAdapter{}
}

// Name returns the source identifier.
func (a *AutoleadsAdapter) Name() string {
	return SourceAutoleads
}

// Parse decodes a flat JSON array of lead records. Anything else is
// rejected.
func (a *AutoleadsAdapter) Parse(payload []byte) ([]leadservice.InboundLead, error) {
	var records []autoleadsRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, apperr.BadRequest("autoleads payload is not a JSON array of lead records")
	}

	leads := make([]leadservice.InboundLead, 0, len(records))
	for i, rec := range records {
		if rec.ExternalID == "" {
			return nil, apperr.BadRequest(fmt.Sprintf("autoleads record %d is missing externalId", i))
		}
		lead := leadservice.InboundLead{
			ExternalID:     rec.ExternalID,
			Source:         SourceAutoleads,
			ContactName:    rec.ContactName,
			ContactEmail:   rec.ContactEmail,
			ContactPhone:   rec.ContactPhone,
			VehicleMake:    rec.VehicleMake,
			VehicleModel:   rec.VehicleModel,
			VehicleYear:    rec.VehicleYear,
			Origin:         rec.Origin,
			Destination:    rec.Destination,
			OriginZip:      rec.OriginZip,
			DestinationZip: rec.DestinationZip,
			CarrierFee:     rec.CarrierFee,
			BrokerFee:      rec.BrokerFee,
		}
		if rec.PickupDate != nil {
			pickup, err := parseDate(*rec.PickupDate)
			if err != nil {
				return nil, apperr.BadRequest(fmt.Sprintf("autoleads record %d has invalid pickupDate", i))
			}
			lead.PickupDate = &pickup
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
