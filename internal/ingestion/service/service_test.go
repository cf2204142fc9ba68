package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"autohaul_crm_backend/internal/ingestion/adapter"
	leadservice "autohaul_crm_backend/internal/leads/service"
	leadtransport "autohaul_crm_backend/internal/leads/transport"
	"autohaul_crm_backend/platform/apperr"
	"autohaul_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeIngestor struct {
	seen map[string]bool
	got  []leadservice.InboundLead
}

func newFakeIngestor() *fakeIngestor {
	return &fakeIngestor{seen: make(map[string]bool)}
}

func (f *fakeIngestor) Ingest(_ context.Context, tenantID uuid.UUID, inbound leadservice.InboundLead) (*leadtransport.LeadResponse, bool, error) {
	f.got = append(f.got, inbound)
	created := !f.seen[inbound.ExternalID]
	f.seen[inbound.ExternalID] = true
	return &leadtransport.LeadResponse{ID: uuid.New(), TenantID: tenantID}, created, nil
}

type fakeConfig struct {
	feeds    map[string]string
	tenantID string
}

func (f *fakeConfig) GetIngestionFeeds() map[string]string { return f.feeds }
func (f *fakeConfig) GetIngestionTenantID() string         { return f.tenantID }

func newTestService(ingestor *fakeIngestor, cfg *fakeConfig) *Service {
	registry := adapter.NewRegistry(adapter.NewAutoleadsAdapter(), adapter.NewTransportfeedAdapter())
	return New(registry, ingestor, cfg, logger.New("development"))
}

func TestIngestPayloadCountsCreatedAndDuplicates(t *testing.T) {
	ingestor := newFakeIngestor()
	svc := newTestService(ingestor, &fakeConfig{})
	tenantID := uuid.New()

	payload := []byte(`[
		{"externalId": "AL-1", "contactName": "First"},
		{"externalId": "AL-2", "contactName": "Second"},
		{"externalId": "AL-1", "contactName": "Repeat"}
	]`)

	result, err := svc.IngestPayload(context.Background(), tenantID, "autoleads", payload)
	if err != nil {
		t.Fatalf("IngestPayload: %v", err)
	}
	if result.Received != 3 || result.Created != 2 || result.Duplicates != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(ingestor.got) != 3 {
		t.Fatalf("expected 3 ingest calls, got %d", len(ingestor.got))
	}
	if ingestor.got[0].Source != adapter.SourceAutoleads {
		t.Fatalf("source not stamped: %s", ingestor.got[0].Source)
	}
}

func TestIngestPayloadUnknownSource(t *testing.T) {
	svc := newTestService(newFakeIngestor(), &fakeConfig{})

	_, err := svc.IngestPayload(context.Background(), uuid.New(), "mystery", []byte(`[]`))
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIngestPayloadMalformedPayload(t *testing.T) {
	svc := newTestService(newFakeIngestor(), &fakeConfig{})

	_, err := svc.IngestPayload(context.Background(), uuid.New(), "autoleads", []byte(`{"nope": true}`))
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestPollFeedsFansOutOverConfiguredSources(t *testing.T) {
	autoleadsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"externalId": "AL-7", "contactName": "Feed Lead"}]`))
	}))
	defer autoleadsSrv.Close()

	transportfeedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data": [{"external_id": "TF-3", "contact_name": "Other Feed"}]}`))
	}))
	defer transportfeedSrv.Close()

	ingestor := newFakeIngestor()
	svc := newTestService(ingestor, &fakeConfig{
		feeds: map[string]string{
			"autoleads":     autoleadsSrv.URL,
			"transportfeed": transportfeedSrv.URL,
		},
		tenantID: uuid.NewString(),
	})

	if err := svc.PollFeeds(context.Background()); err != nil {
		t.Fatalf("PollFeeds: %v", err)
	}
	if len(ingestor.got) != 2 {
		t.Fatalf("expected 2 ingested leads, got %d", len(ingestor.got))
	}
	if !ingestor.seen["AL-7"] || !ingestor.seen["TF-3"] {
		t.Fatalf("missing feed leads: %+v", ingestor.seen)
	}
}

func TestPollFeedsSurfacesFailingFeed(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	svc := newTestService(newFakeIngestor(), &fakeConfig{
		feeds:    map[string]string{"autoleads": failing.URL},
		tenantID: uuid.NewString(),
	})

	if err := svc.PollFeeds(context.Background()); err == nil {
		t.Fatal("expected error from failing feed")
	}
}

func TestPollFeedsNoFeedsConfigured(t *testing.T) {
	svc := newTestService(newFakeIngestor(), &fakeConfig{})
	if err := svc.PollFeeds(context.Background()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
