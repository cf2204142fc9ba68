package service

import (
	"context"
	"testing"
	"time"

	"autohaul_crm_backend/internal/finance"
	"autohaul_crm_backend/internal/leads/repository"
	"autohaul_crm_backend/internal/leads/transport"
	"autohaul_crm_backend/internal/workflow"
	"autohaul_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for service tests. insertFailures lets
// tests simulate losing the public identifier race.
type fakeStore struct {
	leads          map[uuid.UUID]*repository.Lead
	insertFailures int
	inserts        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]*repository.Lead)}
}

func (f *fakeStore) Insert(_ context.Context, lead *repository.Lead) error {
	f.inserts++
	if f.insertFailures > 0 {
		f.insertFailures--
		return repository.ErrPublicIDTaken
	}
	copied := *lead
	f.leads[lead.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id, tenantID uuid.UUID) (*repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok || lead.TenantID != tenantID {
		return nil, apperr.NotFound("lead not found")
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeStore) FindByExternalID(_ context.Context, tenantID uuid.UUID, externalID string) (*repository.Lead, error) {
	for _, lead := range f.leads {
		if lead.TenantID == tenantID && lead.ExternalID != nil && *lead.ExternalID == externalID {
			copied := *lead
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) MaxPublicID(_ context.Context, tenantID uuid.UUID, prefix string) (string, error) {
	max := ""
	for _, lead := range f.leads {
		if lead.TenantID == tenantID && len(lead.PublicID) >= len(prefix) &&
			lead.PublicID[:len(prefix)] == prefix && lead.PublicID > max {
			max = lead.PublicID
		}
	}
	return max, nil
}

func (f *fakeStore) Update(_ context.Context, lead *repository.Lead) error {
	if _, ok := f.leads[lead.ID]; !ok {
		return apperr.NotFound("lead not found")
	}
	copied := *lead
	f.leads[lead.ID] = &copied
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id, _ uuid.UUID) error {
	delete(f.leads, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	var items []repository.Lead
	for _, lead := range f.leads {
		if lead.TenantID == params.TenantID {
			items = append(items, *lead)
		}
	}
	return &repository.ListResult{Items: items, Total: len(items), Page: 1, PageSize: 25, TotalPages: 1}, nil
}

func (f *fakeStore) ListStats(_ context.Context, tenantID uuid.UUID) ([]finance.LeadStat, error) {
	var stats []finance.LeadStat
	for _, lead := range f.leads {
		if lead.TenantID == tenantID {
			stats = append(stats, finance.LeadStat{
				AssignedAgentID: lead.AssignedAgentID,
				State:           lead.State,
				BrokerFee:       lead.BrokerFee,
			})
		}
	}
	return stats, nil
}

var fixedNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore) *Service {
	svc := New(store)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func createRequest() transport.CreateLeadRequest {
	return transport.CreateLeadRequest{
		ContactName:  "Dana Ruiz",
		VehicleMake:  "Honda",
		VehicleModel: "Civic",
		VehicleYear:  2021,
		Origin:       "Phoenix, AZ",
		Destination:  "Dallas, TX",
		CarrierFee:   "100",
		BrokerFee:    "50",
	}
}

func TestCreateAllocatesSequentialPublicIDs(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()

	first, err := svc.Create(context.Background(), tenantID, createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.PublicID != "2025060001" {
		t.Fatalf("expected 2025060001, got %q", first.PublicID)
	}
	if first.TotalTariff != "150" {
		t.Fatalf("expected total tariff 150, got %q", first.TotalTariff)
	}
	if first.State != workflow.LeadStateLead {
		t.Fatalf("expected state lead, got %q", first.State)
	}

	second, err := svc.Create(context.Background(), tenantID, createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.PublicID != "2025060002" {
		t.Fatalf("expected 2025060002, got %q", second.PublicID)
	}
}

func TestCreateRetriesOnPublicIDRace(t *testing.T) {
	store := newFakeStore()
	store.insertFailures = 2
	svc := newTestService(store)

	lead, err := svc.Create(context.Background(), uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if store.inserts != 3 {
		t.Fatalf("expected 3 insert attempts, got %d", store.inserts)
	}
	if lead.PublicID == "" {
		t.Fatal("expected a public identifier after retries")
	}
}

func TestCreateSurfacesAllocationConflictAfterRetries(t *testing.T) {
	store := newFakeStore()
	store.insertFailures = 3
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), uuid.New(), createRequest())
	if !apperr.Is(err, apperr.KindAllocationConflict) {
		t.Fatalf("expected KindAllocationConflict, got %v", err)
	}
}

func TestCreateRejectsNegativeFees(t *testing.T) {
	svc := newTestService(newFakeStore())
	req := createRequest()
	req.BrokerFee = "-10"

	if _, err := svc.Create(context.Background(), uuid.New(), req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIngestDeduplicatesOnExternalID(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()

	inbound := InboundLead{
		ExternalID:  "upstream-77",
		Source:      "loadboard",
		ContactName: "Pat Quinn",
		VehicleMake: "Ford",
		Origin:      "Reno, NV",
		Destination: "Boise, ID",
		BrokerFee:   "80",
	}

	first, created, err := svc.Ingest(context.Background(), tenantID, inbound)
	if err != nil || !created {
		t.Fatalf("expected first ingest to create, got created=%v err=%v", created, err)
	}

	second, created, err := svc.Ingest(context.Background(), tenantID, inbound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected second ingest to dedup, not create")
	}
	if second.ID != first.ID {
		t.Fatal("expected dedup to return the original lead")
	}
	if len(store.leads) != 1 {
		t.Fatalf("expected exactly one lead row, got %d", len(store.leads))
	}
}

func TestUpdateRecomputesTotalTariff(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()

	lead, err := svc.Create(context.Background(), tenantID, createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newCarrier := "200"
	updated, err := svc.Update(context.Background(), lead.ID, tenantID, transport.UpdateLeadRequest{CarrierFee: &newCarrier})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.TotalTariff != "250" {
		t.Fatalf("expected recomputed total 250, got %q", updated.TotalTariff)
	}
}

func TestUpdateStateRejectsSkip(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()

	lead, err := svc.Create(context.Background(), tenantID, createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.UpdateState(context.Background(), lead.ID, tenantID, workflow.LeadStateDispatch); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected KindInvalidTransition, got %v", err)
	}

	moved, err := svc.UpdateState(context.Background(), lead.ID, tenantID, workflow.LeadStateCancelled)
	if err != nil {
		t.Fatalf("expected cancel to succeed, got %v", err)
	}
	if moved.State != workflow.LeadStateCancelled {
		t.Fatalf("expected cancelled, got %q", moved.State)
	}
}
