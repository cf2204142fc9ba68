package service

import (
	"context"
	"errors"
	"time"

	dispatchrepo "autohaul_crm_backend/internal/dispatches/repository"
	dispatchservice "autohaul_crm_backend/internal/dispatches/service"
	dispatchtransport "autohaul_crm_backend/internal/dispatches/transport"
	"autohaul_crm_backend/internal/finance"
	leadrepo "autohaul_crm_backend/internal/leads/repository"
	orderrepo "autohaul_crm_backend/internal/orders/repository"
	orderservice "autohaul_crm_backend/internal/orders/service"
	ordertransport "autohaul_crm_backend/internal/orders/transport"
	"autohaul_crm_backend/internal/pipeline/domain"
	"autohaul_crm_backend/internal/pipeline/repository"
	"autohaul_crm_backend/internal/pipeline/transport"
	quoterepo "autohaul_crm_backend/internal/quotes/repository"
	quoteservice "autohaul_crm_backend/internal/quotes/service"
	quotetransport "autohaul_crm_backend/internal/quotes/transport"
	"autohaul_crm_backend/internal/workflow"
	"autohaul_crm_backend/platform/apperr"
	"autohaul_crm_backend/platform/events"
	"autohaul_crm_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultFee = "0"

// Store is the persistence port for the conversion engine. Each Create*
// method runs its writes in a single transaction.
type Store interface {
	GetLead(ctx context.Context, leadID, tenantID uuid.UUID) (*leadrepo.Lead, error)
	GetQuote(ctx context.Context, quoteID, tenantID uuid.UUID) (*quoterepo.Quote, error)
	GetOrder(ctx context.Context, orderID, tenantID uuid.UUID) (*orderrepo.Order, error)
	FindActiveQuoteByLeadID(ctx context.Context, leadID, tenantID uuid.UUID) (*quoterepo.Quote, error)
	FindOrderByQuoteID(ctx context.Context, quoteID, tenantID uuid.UUID) (*orderrepo.Order, error)
	FindDispatchByOrderID(ctx context.Context, orderID, tenantID uuid.UUID) (*dispatchrepo.Dispatch, error)

	CreateQuote(ctx context.Context, quote *quoterepo.Quote, leadState string) error
	CreateOrder(ctx context.Context, order *orderrepo.Order, quote *quoterepo.Quote, leadState string) error
	CreateDispatch(ctx context.Context, dispatch *dispatchrepo.Dispatch, orderState, leadState string) error
	MarkQuoteAccepted(ctx context.Context, quote *quoterepo.Quote) error
}

// Service performs the lead → quote → order → dispatch conversions.
type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// New creates a new pipeline service.
func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ConvertLeadToQuote derives a quote from the lead. Idempotent: when a
// non-cancelled quote already references the lead it is returned unchanged.
func (s *Service) ConvertLeadToQuote(ctx context.Context, tenantID, leadID uuid.UUID, req transport.ConvertLeadToQuoteRequest) (*quotetransport.QuoteResponse, error) {
	lead, err := s.store.GetLead(ctx, leadID, tenantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindActiveQuoteByLeadID(ctx, leadID, tenantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return quoteservice.NewResponse(existing, s.now()), nil
	}

	// A lead already in the quote stage without an active quote (its quote
	// was cancelled) may convert again.
	if lead.State != workflow.LeadStateQuote {
		if err := workflow.Transition(workflow.EntityLead, lead.State, workflow.LeadStateQuote); err != nil {
			return nil, err
		}
	}

	now := s.now()
	quote := &quoterepo.Quote{
		ID:         uuid.New(),
		TenantID:   tenantID,
		LeadID:     lead.ID,
		PublicID:   lead.PublicID,
		CarrierFee: orDefault(req.CarrierFee),
		BrokerFee:  orDefault(req.BrokerFee),
		State:      workflow.QuoteStateDraft,
		ValidUntil: req.ValidUntil,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	total, err := finance.TotalTariff(quote.CarrierFee, quote.BrokerFee)
	if err != nil {
		return nil, err
	}
	quote.TotalTariff = total

	applySideDefaults(quote, lead, req.Pickup, req.Dropoff)

	if err := s.store.CreateQuote(ctx, quote, workflow.LeadStateQuote); err != nil {
		if errors.Is(err, repository.ErrDuplicateQuote) {
			return s.resolveQuoteRace(ctx, leadID, tenantID)
		}
		return nil, err
	}

	s.log.Conversion("lead_to_quote", quote.PublicID, tenantID.String())
	s.publish(ctx, domain.EventLeadConvertedToQuote, lead, quote.ID, quote.PublicID)
	return quoteservice.NewResponse(quote, s.now()), nil
}

// ConvertQuoteToOrder derives an order from the quote. Idempotent: an
// existing order is returned unchanged regardless of quote state, and the
// quote is re-marked accepted to keep state consistent. Side and fee
// overrides are written back onto the quote, locking in the final numbers.
func (s *Service) ConvertQuoteToOrder(ctx context.Context, tenantID, quoteID uuid.UUID, req transport.ConvertQuoteToOrderRequest) (*ordertransport.OrderResponse, error) {
	quote, err := s.store.GetQuote(ctx, quoteID, tenantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindOrderByQuoteID(ctx, quoteID, tenantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if quote.State != workflow.QuoteStateAccepted {
			quote.State = workflow.QuoteStateAccepted
			quote.UpdatedAt = s.now()
			if err := s.store.MarkQuoteAccepted(ctx, quote); err != nil {
				return nil, err
			}
		}
		return orderservice.NewResponse(existing), nil
	}

	lead, err := s.store.GetLead(ctx, quote.LeadID, tenantID)
	if err != nil {
		return nil, err
	}
	if lead.State != workflow.LeadStateOrder {
		if err := workflow.Transition(workflow.EntityLead, lead.State, workflow.LeadStateOrder); err != nil {
			return nil, err
		}
	}

	if req.CarrierFee != nil {
		quote.CarrierFee = *req.CarrierFee
	}
	if req.BrokerFee != nil {
		quote.BrokerFee = *req.BrokerFee
	}
	total, err := finance.TotalTariff(quote.CarrierFee, quote.BrokerFee)
	if err != nil {
		return nil, err
	}
	quote.TotalTariff = total
	if req.Pickup != nil {
		quoteservice.ApplySide(quote, *req.Pickup, true)
	}
	if req.Dropoff != nil {
		quoteservice.ApplySide(quote, *req.Dropoff, false)
	}
	quote.State = workflow.QuoteStateAccepted

	now := s.now()
	quote.UpdatedAt = now
	order := &orderrepo.Order{
		ID:           uuid.New(),
		TenantID:     tenantID,
		QuoteID:      quote.ID,
		LeadID:       quote.LeadID,
		PublicID:     quote.PublicID,
		ContractType: ordertransport.ContractTypeStandard,
		State:        workflow.OrderStatePendingSignature,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.ContractType != nil {
		order.ContractType = *req.ContractType
	}

	if err := s.store.CreateOrder(ctx, order, quote, workflow.LeadStateOrder); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			return s.resolveOrderRace(ctx, quoteID, tenantID)
		}
		return nil, err
	}

	s.log.Conversion("quote_to_order", order.PublicID, tenantID.String())
	s.publish(ctx, domain.EventQuoteConvertedToOrder, lead, order.ID, order.PublicID)
	return orderservice.NewResponse(order), nil
}

// ConvertOrderToDispatch derives a dispatch from the order. Preconditions: a
// signed contract and the order in the signed state. Idempotent on an
// existing dispatch. Fees are copied from the quote unless overridden.
func (s *Service) ConvertOrderToDispatch(ctx context.Context, tenantID, orderID uuid.UUID, req transport.ConvertOrderToDispatchRequest) (*dispatchtransport.DispatchResponse, error) {
	order, err := s.store.GetOrder(ctx, orderID, tenantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindDispatchByOrderID(ctx, orderID, tenantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return dispatchservice.NewResponse(existing), nil
	}

	if !order.ContractSigned {
		return nil, apperr.Validation("order contract is not signed")
	}
	if err := workflow.Transition(workflow.EntityOrder, order.State, workflow.OrderStateInProgress); err != nil {
		return nil, err
	}

	lead, err := s.store.GetLead(ctx, order.LeadID, tenantID)
	if err != nil {
		return nil, err
	}
	if lead.State != workflow.LeadStateDispatch {
		if err := workflow.Transition(workflow.EntityLead, lead.State, workflow.LeadStateDispatch); err != nil {
			return nil, err
		}
	}

	quote, err := s.store.GetQuote(ctx, order.QuoteID, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dispatch := &dispatchrepo.Dispatch{
		ID:         uuid.New(),
		TenantID:   tenantID,
		OrderID:    order.ID,
		LeadID:     order.LeadID,
		PublicID:   order.PublicID,
		CarrierFee: quote.CarrierFee,
		BrokerFee:  quote.BrokerFee,
		State:      workflow.DispatchStateAssigned,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.CarrierFee != nil {
		dispatch.CarrierFee = *req.CarrierFee
	}
	if req.BrokerFee != nil {
		dispatch.BrokerFee = *req.BrokerFee
	}
	total, err := finance.TotalTariff(dispatch.CarrierFee, dispatch.BrokerFee)
	if err != nil {
		return nil, err
	}
	dispatch.TotalTariff = total

	if req.CarrierName != nil {
		dispatch.CarrierName = *req.CarrierName
	}
	if req.CarrierPhone != nil {
		dispatch.CarrierPhone = *req.CarrierPhone
	}
	if req.CarrierEmail != nil {
		dispatch.CarrierEmail = *req.CarrierEmail
	}
	if req.DriverName != nil {
		dispatch.DriverName = *req.DriverName
	}
	if req.DriverPhone != nil {
		dispatch.DriverPhone = *req.DriverPhone
	}
	if req.VehicleDescription != nil {
		dispatch.VehicleDescription = *req.VehicleDescription
	}
	dispatch.ScheduledPickupAt = req.ScheduledPickupAt
	dispatch.ScheduledDeliveryAt = req.ScheduledDeliveryAt

	if err := s.store.CreateDispatch(ctx, dispatch, workflow.OrderStateInProgress, workflow.LeadStateDispatch); err != nil {
		if errors.Is(err, repository.ErrDuplicateDispatch) {
			return s.resolveDispatchRace(ctx, orderID, tenantID)
		}
		return nil, err
	}

	s.log.Conversion("order_to_dispatch", dispatch.PublicID, tenantID.String())
	s.publish(ctx, domain.EventOrderConvertedToDispatch, lead, dispatch.ID, dispatch.PublicID)
	return dispatchservice.NewResponse(dispatch), nil
}

// ── Race resolution ───────────────────────────────────────────────────────────

// Two conversions racing past the idempotent read lose to the unique
// constraint. The loser returns the row that won; the signal is logged
// because it means a caller is double-submitting.

func (s *Service) resolveQuoteRace(ctx context.Context, leadID, tenantID uuid.UUID) (*quotetransport.QuoteResponse, error) {
	s.log.DataIntegrity("duplicate lead_to_quote conversion", "lead_id", leadID.String())
	existing, err := s.store.FindActiveQuoteByLeadID(ctx, leadID, tenantID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.Internal("quote insert conflicted but no existing quote found")
	}
	return quoteservice.NewResponse(existing, s.now()), nil
}

func (s *Service) resolveOrderRace(ctx context.Context, quoteID, tenantID uuid.UUID) (*ordertransport.OrderResponse, error) {
	s.log.DataIntegrity("duplicate quote_to_order conversion", "quote_id", quoteID.String())
	existing, err := s.store.FindOrderByQuoteID(ctx, quoteID, tenantID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.Internal("order insert conflicted but no existing order found")
	}
	return orderservice.NewResponse(existing), nil
}

func (s *Service) resolveDispatchRace(ctx context.Context, orderID, tenantID uuid.UUID) (*dispatchtransport.DispatchResponse, error) {
	s.log.DataIntegrity("duplicate order_to_dispatch conversion", "order_id", orderID.String())
	existing, err := s.store.FindDispatchByOrderID(ctx, orderID, tenantID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.Internal("dispatch insert conflicted but no existing dispatch found")
	}
	return dispatchservice.NewResponse(existing), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *Service) publish(ctx context.Context, name string, lead *leadrepo.Lead, entityID uuid.UUID, publicID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, domain.ConversionEvent{
		BaseEvent:       events.NewBaseEvent(),
		Name:            name,
		TenantID:        lead.TenantID,
		LeadID:          lead.ID,
		EntityID:        entityID,
		PublicID:        publicID,
		AssignedAgentID: lead.AssignedAgentID,
	})
}

func orDefault(fee *string) string {
	if fee == nil || *fee == "" {
		return defaultFee
	}
	return *fee
}

// applySideDefaults fills each side from the override when given, otherwise
// from the lead's contact fields.
func applySideDefaults(quote *quoterepo.Quote, lead *leadrepo.Lead, pickup, dropoff *quotetransport.SideDetails) {
	leadSide := quotetransport.SideDetails{
		Contacts: []quotetransport.SideContact{{
			Name:  lead.ContactName,
			Phone: lead.ContactPhone,
			Email: lead.ContactEmail,
		}},
	}

	if pickup == nil {
		side := leadSide
		side.Address = lead.Origin
		side.Zip = zipOrEmpty(lead.OriginZip)
		pickup = &side
	}
	if dropoff == nil {
		side := leadSide
		side.Address = lead.Destination
		side.Zip = zipOrEmpty(lead.DestinationZip)
		dropoff = &side
	}

	quoteservice.ApplySide(quote, *pickup, true)
	quoteservice.ApplySide(quote, *dropoff, false)
}

func zipOrEmpty(zip *string) string {
	if zip == nil {
		return ""
	}
	return *zip
}
