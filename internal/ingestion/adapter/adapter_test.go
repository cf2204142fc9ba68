package adapter

import (
	"testing"

	"autohaul_crm_backend/platform/apperr"
)

func TestAutoleadsParsesFlatArray(t *testing.T) {
	payload := []byte(`[
		{
			"externalId": "AL-9001",
			"contactName": "Riley Chen",
			"contactPhone": "+16025550142",
			"vehicleMake": "Honda",
			"vehicleModel": "Civic",
			"vehicleYear": 2021,
			"origin": "Phoenix, AZ",
			"destination": "Denver, CO",
			"pickupDate": "2025-06-15",
			"carrierFee": "400",
			"brokerFee": "150"
		},
		{"externalId": "AL-9002", "contactName": "Sam Field"}
	]`)

	leads, err := NewAutoleadsAdapter().Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	first := leads[0]
	if first.ExternalID != "AL-9001" || first.Source != SourceAutoleads {
		t.Fatalf("unexpected identity: %+v", first)
	}
	if first.CarrierFee != "400" || first.BrokerFee != "150" {
		t.Fatalf("unexpected fees: %s / %s", first.CarrierFee, first.BrokerFee)
	}
	if first.PickupDate == nil || first.PickupDate.Format("2006-01-02") != "2025-06-15" {
		t.Fatalf("pickup date not parsed: %v", first.PickupDate)
	}
}

func TestAutoleadsRejectsNonArrayPayload(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"envelope shape", `{"data": [{"externalId": "AL-1"}]}`},
		{"single object", `{"externalId": "AL-1"}`},
		{"not json", `hello`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAutoleadsAdapter().Parse([]byte(tc.payload))
			if apperr.GetKind(err) != apperr.KindBadRequest {
				t.Fatalf("expected bad request, got %v", err)
			}
		})
	}
}

func TestAutoleadsRejectsMissingExternalID(t *testing.T) {
	_, err := NewAutoleadsAdapter().Parse([]byte(`[{"contactName": "No ID"}]`))
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestTransportfeedParsesEnvelope(t *testing.T) {
	payload := []byte(`{
		"data": [
			{
				"external_id": "TF-17",
				"contact_name": "Ana Silva",
				"contact_phone": "+14805550160",
				"vehicle_make": "Ford",
				"vehicle_model": "F-150",
				"vehicle_year": 2019,
				"origin_city": "Tucson, AZ",
				"destination_city": "Austin, TX",
				"origin_zip": "85701",
				"carrier_fee": "650",
				"broker_fee": "200"
			}
		]
	}`)

	leads, err := NewTransportfeedAdapter().Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(leads))
	}
	lead := leads[0]
	if lead.ExternalID != "TF-17" || lead.Source != SourceTransportfeed {
		t.Fatalf("unexpected identity: %+v", lead)
	}
	if lead.Origin != "Tucson, AZ" || lead.Destination != "Austin, TX" {
		t.Fatalf("unexpected route: %s -> %s", lead.Origin, lead.Destination)
	}
	if lead.OriginZip == nil || *lead.OriginZip != "85701" {
		t.Fatalf("origin zip not mapped: %v", lead.OriginZip)
	}
}

func TestTransportfeedRejectsFlatArray(t *testing.T) {
	_, err := NewTransportfeedAdapter().Parse([]byte(`[{"external_id": "TF-1"}]`))
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestTransportfeedRejectsMissingExternalID(t *testing.T) {
	_, err := NewTransportfeedAdapter().Parse([]byte(`{"data": [{"contact_name": "No ID"}]}`))
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(NewAutoleadsAdapter(), NewTransportfeedAdapter())

	if _, ok := reg.Lookup(SourceAutoleads); !ok {
		t.Fatal("autoleads adapter not registered")
	}
	if _, ok := reg.Lookup("unknown"); ok {
		t.Fatal("unknown source should not resolve")
	}
}
