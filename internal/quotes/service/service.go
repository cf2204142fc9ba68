package service

import (
	"context"
	"time"

	"autohaul_crm_backend/internal/finance"
	"autohaul_crm_backend/internal/quotes/repository"
	"autohaul_crm_backend/internal/quotes/transport"
	"autohaul_crm_backend/internal/workflow"

	"github.com/google/uuid"
)

// Service provides business logic for quotes.
type Service struct {
	repo *repository.Repository
	now  func() time.Time
}

// New creates a new quotes service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// GetByID retrieves a single quote with lazy expiry applied.
func (s *Service) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*transport.QuoteResponse, error) {
	quote, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return NewResponse(quote, s.now()), nil
}

// List returns a page of quotes with lazy expiry applied.
func (s *Service) List(ctx context.Context, params repository.ListParams) (*transport.ListQuotesResponse, error) {
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]transport.QuoteResponse, len(result.Items))
	for i := range result.Items {
		items[i] = *NewResponse(&result.Items[i], now)
	}
	return &transport.ListQuotesResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Update applies a partial update: renegotiated fees (total recomputed),
// side details, terms, and validity deadline.
func (s *Service) Update(ctx context.Context, id, tenantID uuid.UUID, req transport.UpdateQuoteRequest) (*transport.QuoteResponse, error) {
	quote, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if req.CarrierFee != nil {
		quote.CarrierFee = *req.CarrierFee
	}
	if req.BrokerFee != nil {
		quote.BrokerFee = *req.BrokerFee
	}
	if req.Pickup != nil {
		ApplySide(quote, *req.Pickup, true)
	}
	if req.Dropoff != nil {
		ApplySide(quote, *req.Dropoff, false)
	}
	if req.SpecialTerms != nil {
		quote.SpecialTerms = req.SpecialTerms
	}
	if req.StandardTerms != nil {
		quote.StandardTerms = req.StandardTerms
	}
	if req.ValidUntil != nil {
		quote.ValidUntil = req.ValidUntil
	}

	total, err := finance.TotalTariff(quote.CarrierFee, quote.BrokerFee)
	if err != nil {
		return nil, err
	}
	quote.TotalTariff = total
	quote.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, quote); err != nil {
		return nil, err
	}
	return NewResponse(quote, s.now()), nil
}

// UpdateState moves the quote through its workflow. The stored state is
// used for validation even when the quote reads as lazily expired, so an
// operator can still explicitly mark a stale quote.
func (s *Service) UpdateState(ctx context.Context, id, tenantID uuid.UUID, target string) (*transport.QuoteResponse, error) {
	quote, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if err := workflow.Transition(workflow.EntityQuote, quote.State, target); err != nil {
		return nil, err
	}

	quote.State = target
	quote.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, quote); err != nil {
		return nil, err
	}
	return NewResponse(quote, s.now()), nil
}

// ApplySide writes one side's details onto the quote, mirroring the first
// contact into the legacy singular fields.
func ApplySide(quote *repository.Quote, side transport.SideDetails, pickup bool) {
	contacts := make([]repository.Contact, len(side.Contacts))
	for i, c := range side.Contacts {
		contacts[i] = repository.Contact{Name: c.Name, Phone: c.Phone, Email: c.Email}
	}

	legacyName, legacyPhone := "", ""
	if len(contacts) > 0 {
		legacyName = contacts[0].Name
		legacyPhone = contacts[0].Phone
	}

	if pickup {
		quote.PickupAddress = side.Address
		quote.PickupZip = side.Zip
		quote.PickupContacts = contacts
		quote.PickupContactName = legacyName
		quote.PickupContactPhone = legacyPhone
		return
	}
	quote.DropoffAddress = side.Address
	quote.DropoffZip = side.Zip
	quote.DropoffContacts = contacts
	quote.DropoffContactName = legacyName
	quote.DropoffContactPhone = legacyPhone
}

// EffectiveState reports the quote's state with lazy expiry: a sent or
// accepted quote past its validity deadline reads as expired without a
// stored transition.
func EffectiveState(quote *repository.Quote, now time.Time) string {
	if quote.ValidUntil == nil {
		return quote.State
	}
	if quote.State != workflow.QuoteStateSent && quote.State != workflow.QuoteStateAccepted {
		return quote.State
	}
	if quote.ValidUntil.Before(now) {
		return workflow.QuoteStateExpired
	}
	return quote.State
}

// NewResponse builds the API representation of a quote, applying lazy
// expiry. Exported for the pipeline service.
func NewResponse(q *repository.Quote, now time.Time) *transport.QuoteResponse {
	return &transport.QuoteResponse{
		ID:                  q.ID,
		TenantID:            q.TenantID,
		LeadID:              q.LeadID,
		PublicID:            q.PublicID,
		CarrierFee:          q.CarrierFee,
		BrokerFee:           q.BrokerFee,
		TotalTariff:         q.TotalTariff,
		PickupAddress:       q.PickupAddress,
		PickupZip:           q.PickupZip,
		PickupContacts:      toTransportContacts(q.PickupContacts),
		PickupContactName:   q.PickupContactName,
		PickupContactPhone:  q.PickupContactPhone,
		DropoffAddress:      q.DropoffAddress,
		DropoffZip:          q.DropoffZip,
		DropoffContacts:     toTransportContacts(q.DropoffContacts),
		DropoffContactName:  q.DropoffContactName,
		DropoffContactPhone: q.DropoffContactPhone,
		SpecialTerms:        q.SpecialTerms,
		StandardTerms:       q.StandardTerms,
		State:               EffectiveState(q, now),
		ValidUntil:          q.ValidUntil,
		CreatedAt:           q.CreatedAt,
		UpdatedAt:           q.UpdatedAt,
	}
}

func toTransportContacts(contacts []repository.Contact) []transport.SideContact {
	if len(contacts) == 0 {
		return nil
	}
	out := make([]transport.SideContact, len(contacts))
	for i, c := range contacts {
		out[i] = transport.SideContact{Name: c.Name, Phone: c.Phone, Email: c.Email}
	}
	return out
}
