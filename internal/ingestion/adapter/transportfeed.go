package adapter

import (
	"encoding/json"
	"fmt"

	leadservice "autohaul_crm_backend/internal/leads/service"
	"autohaul_crm_backend/platform/apperr"
)

// SourceTransportfeed serves feeds that wrap snake_case lead records in a
// {"data": [...]} envelope.
const SourceTransportfeed = "transportfeed"

type transportfeedEnvelope struct {
	Data *[]transportfeedRecord `json:"data"`
}

type transportfeedRecord struct {
	ExternalID     string  `json:"external_id"`
	ContactName    string  `json:"contact_name"`
	ContactEmail   string  `json:"contact_email"`
	ContactPhone   string  `json:"contact_phone"`
	VehicleMake    string  `json:"vehicle_make"`
	VehicleModel   string  `json:"vehicle_model"`
	VehicleYear    int     `json:"vehicle_year"`
	Origin         string  `json:"origin_city"`
	Destination    string  `json:"destination_city"`
	OriginZip      *string `json:"origin_zip"`
	DestinationZip *string `json:"destination_zip"`
	CarrierFee     string  `json:"carrier_fee"`
	BrokerFee      string  `json:"broker_fee"`
}

// TransportfeedAdapter parses the enveloped feed shape.
type TransportfeedAdapter struct{}

// NewTransportfeedAdapter creates the enveloped-feed adapter.
func NewTransportfeedAdapter() *TransportfeedAdapter {
	return &TransportfeedAdapter{}
}

// Name returns the source identifier.
func (a *TransportfeedAdapter) Name() string {
	return SourceTransportfeed
}

// Parse decodes a {"data": [...]} envelope of snake_case records. A missing
// or malformed data list is rejected.
func (a *TransportfeedAdapter) Parse(payload []byte) ([]leadservice.InboundLead, error) {
	var envelope transportfeedEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Data == nil {
		return nil, apperr.BadRequest("transportfeed payload is not a data envelope of lead records")
	}

	records := *envelope.Data
	leads := make([]leadservice.InboundLead, 0, len(records))
	for i, rec := range records {
		if rec.ExternalID == "" {
			return nil, apperr.BadRequest(fmt.Sprintf("transportfeed record %d is missing external_id", i))
		}
		leads = append(leads, leadservice.InboundLead{
			ExternalID:     rec.ExternalID,
			Source:         SourceTransportfeed,
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
		})
	}
	return leads, nil
}
