package service

import (
	"context"
	"testing"
	"time"

	dispatchrepo "autohaul_crm_backend/internal/dispatches/repository"
	leadrepo "autohaul_crm_backend/internal/leads/repository"
	orderrepo "autohaul_crm_backend/internal/orders/repository"
	"autohaul_crm_backend/internal/pipeline/transport"
	quoterepo "autohaul_crm_backend/internal/quotes/repository"
	quotetransport "autohaul_crm_backend/internal/quotes/transport"
	"autohaul_crm_backend/internal/workflow"
	"autohaul_crm_backend/platform/apperr"
	"autohaul_crm_backend/platform/logger"

	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	leads      map[uuid.UUID]*leadrepo.Lead
	quotes     map[uuid.UUID]*quoterepo.Quote
	orders     map[uuid.UUID]*orderrepo.Order
	dispatches map[uuid.UUID]*dispatchrepo.Dispatch
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:      make(map[uuid.UUID]*leadrepo.Lead),
		quotes:     make(map[uuid.UUID]*quoterepo.Quote),
		orders:     make(map[uuid.UUID]*orderrepo.Order),
		dispatches: make(map[uuid.UUID]*dispatchrepo.Dispatch),
	}
}

func (f *fakeStore) GetLead(_ context.Context, leadID, tenantID uuid.UUID) (*leadrepo.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return nil, apperr.NotFound("lead not found")
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeStore) GetQuote(_ context.Context, quoteID, tenantID uuid.UUID) (*quoterepo.Quote, error) {
	quote, ok := f.quotes[quoteID]
	if !ok || quote.TenantID != tenantID {
		return nil, apperr.NotFound("quote not found")
	}
	copied := *quote
	return &copied, nil
}

func (f *fakeStore) GetOrder(_ context.Context, orderID, tenantID uuid.UUID) (*orderrepo.Order, error) {
	order, ok := f.orders[orderID]
	if !ok || order.TenantID != tenantID {
		return nil, apperr.NotFound("order not found")
	}
	copied := *order
	return &copied, nil
}

func (f *fakeStore) FindActiveQuoteByLeadID(_ context.Context, leadID, tenantID uuid.UUID) (*quoterepo.Quote, error) {
	for _, quote := range f.quotes {
		if quote.LeadID == leadID && quote.TenantID == tenantID && quote.State != workflow.QuoteStateCancelled {
			copied := *quote
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindOrderByQuoteID(_ context.Context, quoteID, tenantID uuid.UUID) (*orderrepo.Order, error) {
	for _, order := range f.orders {
		if order.QuoteID == quoteID && order.TenantID == tenantID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindDispatchByOrderID(_ context.Context, orderID, tenantID uuid.UUID) (*dispatchrepo.Dispatch, error) {
	for _, dispatch := range f.dispatches {
		if dispatch.OrderID == orderID && dispatch.TenantID == tenantID {
			copied := *dispatch
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateQuote(_ context.Context, quote *quoterepo.Quote, leadState string) error {
	copied := *quote
	f.quotes[quote.ID] = &copied
	f.leads[quote.LeadID].State = leadState
	return nil
}

func (f *fakeStore) CreateOrder(_ context.Context, order *orderrepo.Order, quote *quoterepo.Quote, leadState string) error {
	copiedOrder := *order
	f.orders[order.ID] = &copiedOrder
	copiedQuote := *quote
	f.quotes[quote.ID] = &copiedQuote
	f.leads[order.LeadID].State = leadState
	return nil
}

func (f *fakeStore) CreateDispatch(_ context.Context, dispatch *dispatchrepo.Dispatch, orderState, leadState string) error {
	copied := *dispatch
	f.dispatches[dispatch.ID] = &copied
	f.orders[dispatch.OrderID].State = orderState
	f.leads[dispatch.LeadID].State = leadState
	return nil
}

func (f *fakeStore) MarkQuoteAccepted(_ context.Context, quote *quoterepo.Quote) error {
	f.quotes[quote.ID].State = quote.State
	return nil
}

func newTestService(store Store) *Service {
	svc := New(store, nil, logger.New("development"))
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func seedLead(store *fakeStore, tenantID uuid.UUID) *leadrepo.Lead {
	lead := &leadrepo.Lead{
		ID:           uuid.New(),
		TenantID:     tenantID,
		PublicID:     "2025060001",
		ContactName:  "Dana Ortiz",
		ContactPhone: "+16025550111",
		ContactEmail: "dana@example.com",
		Origin:       "Phoenix, AZ",
		Destination:  "Dallas, TX",
		CarrierFee:   "100",
		BrokerFee:    "50",
		TotalTariff:  "150",
		State:        workflow.LeadStateLead,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	store.leads[lead.ID] = lead
	return lead
}

func TestPipelineEndToEnd(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	lead := seedLead(store, tenantID)
	ctx := context.Background()

	carrier, broker := "100", "50"
	quote, err := svc.ConvertLeadToQuote(ctx, tenantID, lead.ID, transport.ConvertLeadToQuoteRequest{
		CarrierFee: &carrier,
		BrokerFee:  &broker,
	})
	if err != nil {
		t.Fatalf("ConvertLeadToQuote: %v", err)
	}
	if quote.PublicID != "2025060001" {
		t.Fatalf("quote publicID = %q, want 2025060001", quote.PublicID)
	}
	if quote.TotalTariff != "150" {
		t.Fatalf("quote total = %q, want 150", quote.TotalTariff)
	}
	if store.leads[lead.ID].State != workflow.LeadStateQuote {
		t.Fatalf("lead state = %q, want quote", store.leads[lead.ID].State)
	}
	if quote.PickupContactName != "Dana Ortiz" || quote.PickupContactPhone != "+16025550111" {
		t.Fatalf("pickup contact not defaulted from lead: %q / %q",
			quote.PickupContactName, quote.PickupContactPhone)
	}

	// Re-converting returns the same quote, no duplicate.
	again, err := svc.ConvertLeadToQuote(ctx, tenantID, lead.ID, transport.ConvertLeadToQuoteRequest{})
	if err != nil {
		t.Fatalf("second ConvertLeadToQuote: %v", err)
	}
	if again.ID != quote.ID {
		t.Fatalf("idempotent re-conversion returned a different quote: %s vs %s", again.ID, quote.ID)
	}
	if len(store.quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(store.quotes))
	}

	order, err := svc.ConvertQuoteToOrder(ctx, tenantID, quote.ID, transport.ConvertQuoteToOrderRequest{})
	if err != nil {
		t.Fatalf("ConvertQuoteToOrder: %v", err)
	}
	if order.PublicID != "2025060001" {
		t.Fatalf("order publicID = %q, want 2025060001", order.PublicID)
	}
	if order.State != workflow.OrderStatePendingSignature {
		t.Fatalf("order state = %q, want pending_signature", order.State)
	}
	if store.quotes[quote.ID].State != workflow.QuoteStateAccepted {
		t.Fatalf("quote state = %q, want accepted", store.quotes[quote.ID].State)
	}
	if store.leads[lead.ID].State != workflow.LeadStateOrder {
		t.Fatalf("lead state = %q, want order", store.leads[lead.ID].State)
	}

	// Dispatch conversion requires a signed contract.
	if _, err := svc.ConvertOrderToDispatch(ctx, tenantID, order.ID, transport.ConvertOrderToDispatchRequest{}); err == nil {
		t.Fatal("expected unsigned order to be rejected")
	}

	stored := store.orders[order.ID]
	stored.ContractSigned = true
	signedAt := fixedNow
	stored.ContractSignedAt = &signedAt
	stored.State = workflow.OrderStateSigned

	dispatch, err := svc.ConvertOrderToDispatch(ctx, tenantID, order.ID, transport.ConvertOrderToDispatchRequest{})
	if err != nil {
		t.Fatalf("ConvertOrderToDispatch: %v", err)
	}
	if dispatch.PublicID != "2025060001" {
		t.Fatalf("dispatch publicID = %q, want 2025060001", dispatch.PublicID)
	}
	if dispatch.State != workflow.DispatchStateAssigned {
		t.Fatalf("dispatch state = %q, want assigned", dispatch.State)
	}
	if dispatch.CarrierFee != "100" || dispatch.BrokerFee != "50" || dispatch.TotalTariff != "150" {
		t.Fatalf("dispatch fees not copied from quote: %s/%s/%s",
			dispatch.CarrierFee, dispatch.BrokerFee, dispatch.TotalTariff)
	}
	if store.orders[order.ID].State != workflow.OrderStateInProgress {
		t.Fatalf("order state = %q, want in_progress", store.orders[order.ID].State)
	}
	if store.leads[lead.ID].State != workflow.LeadStateDispatch {
		t.Fatalf("lead state = %q, want dispatch", store.leads[lead.ID].State)
	}

	// Re-converting returns the same dispatch.
	sameDispatch, err := svc.ConvertOrderToDispatch(ctx, tenantID, order.ID, transport.ConvertOrderToDispatchRequest{})
	if err != nil {
		t.Fatalf("second ConvertOrderToDispatch: %v", err)
	}
	if sameDispatch.ID != dispatch.ID {
		t.Fatalf("idempotent re-conversion returned a different dispatch")
	}
}

func TestConvertLeadToQuoteDefaultsFeesToZero(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	lead := seedLead(store, tenantID)

	quote, err := svc.ConvertLeadToQuote(context.Background(), tenantID, lead.ID, transport.ConvertLeadToQuoteRequest{})
	if err != nil {
		t.Fatalf("ConvertLeadToQuote: %v", err)
	}
	if quote.CarrierFee != "0" || quote.BrokerFee != "0" || quote.TotalTariff != "0" {
		t.Fatalf("fees not defaulted to zero: %s/%s/%s", quote.CarrierFee, quote.BrokerFee, quote.TotalTariff)
	}
}

func TestConvertLeadToQuoteRejectsTerminalLead(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	lead := seedLead(store, tenantID)
	lead.State = workflow.LeadStateCancelled

	_, err := svc.ConvertLeadToQuote(context.Background(), tenantID, lead.ID, transport.ConvertLeadToQuoteRequest{})
	if apperr.GetKind(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if len(store.quotes) != 0 {
		t.Fatalf("expected no quote written, got %d", len(store.quotes))
	}
}

func TestConvertQuoteToOrderWritesOverridesBackOntoQuote(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	lead := seedLead(store, tenantID)
	ctx := context.Background()

	quote, err := svc.ConvertLeadToQuote(ctx, tenantID, lead.ID, transport.ConvertLeadToQuoteRequest{})
	if err != nil {
		t.Fatalf("ConvertLeadToQuote: %v", err)
	}

	carrier, broker := "300", "120"
	contractType := "with-cc"
	_, err = svc.ConvertQuoteToOrder(ctx, tenantID, quote.ID, transport.ConvertQuoteToOrderRequest{
		ContractType: &contractType,
		CarrierFee:   &carrier,
		BrokerFee:    &broker,
		Pickup: &quotetransport.SideDetails{
			Address: "800 Yard Way",
			Zip:     "85004",
			Contacts: []quotetransport.SideContact{
				{Name: "Gate Office", Phone: "+16025550177"},
			},
		},
	})
	if err != nil {
		t.Fatalf("ConvertQuoteToOrder: %v", err)
	}

	updated := store.quotes[quote.ID]
	if updated.CarrierFee != "300" || updated.BrokerFee != "120" || updated.TotalTariff != "420" {
		t.Fatalf("fee overrides not written back: %s/%s/%s",
			updated.CarrierFee, updated.BrokerFee, updated.TotalTariff)
	}
	if updated.PickupAddress != "800 Yard Way" || updated.PickupContactName != "Gate Office" {
		t.Fatalf("pickup override not written back: %q / %q",
			updated.PickupAddress, updated.PickupContactName)
	}
	if updated.State != workflow.QuoteStateAccepted {
		t.Fatalf("quote state = %q, want accepted", updated.State)
	}

	var order *orderrepo.Order
	for _, o := range store.orders {
		order = o
	}
	if order == nil || order.ContractType != "with-cc" {
		t.Fatalf("contract type override not applied: %+v", order)
	}
}

func TestConvertQuoteToOrderIdempotentReMarksAccepted(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	lead := seedLead(store, tenantID)
	ctx := context.Background()

	quote, err := svc.ConvertLeadToQuote(ctx, tenantID, lead.ID, transport.ConvertLeadToQuoteRequest{})
	if err != nil {
		t.Fatalf("ConvertLeadToQuote: %v", err)
	}
	first, err := svc.ConvertQuoteToOrder(ctx, tenantID, quote.ID, transport.ConvertQuoteToOrderRequest{})
	if err != nil {
		t.Fatalf("ConvertQuoteToOrder: %v", err)
	}

	// Drift the quote out of accepted; the idempotent path restores it.
	store.quotes[quote.ID].State = workflow.QuoteStateSent

	second, err := svc.ConvertQuoteToOrder(ctx, tenantID, quote.ID, transport.ConvertQuoteToOrderRequest{})
	if err != nil {
		t.Fatalf("second ConvertQuoteToOrder: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("idempotent re-conversion returned a different order")
	}
	if len(store.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(store.orders))
	}
	if store.quotes[quote.ID].State != workflow.QuoteStateAccepted {
		t.Fatalf("quote state = %q, want accepted", store.quotes[quote.ID].State)
	}
}

func TestConvertOrderToDispatchRequiresSignedState(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	lead := seedLead(store, tenantID)
	ctx := context.Background()

	quote, err := svc.ConvertLeadToQuote(ctx, tenantID, lead.ID, transport.ConvertLeadToQuoteRequest{})
	if err != nil {
		t.Fatalf("ConvertLeadToQuote: %v", err)
	}
	order, err := svc.ConvertQuoteToOrder(ctx, tenantID, quote.ID, transport.ConvertQuoteToOrderRequest{})
	if err != nil {
		t.Fatalf("ConvertQuoteToOrder: %v", err)
	}

	// Signed flag without the signed state still fails the workflow check.
	stored := store.orders[order.ID]
	stored.ContractSigned = true
	stored.State = workflow.OrderStateCancelled

	_, err = svc.ConvertOrderToDispatch(ctx, tenantID, order.ID, transport.ConvertOrderToDispatchRequest{})
	if apperr.GetKind(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if len(store.dispatches) != 0 {
		t.Fatalf("expected no dispatch written, got %d", len(store.dispatches))
	}
}
