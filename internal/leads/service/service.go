package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autohaul_crm_backend/internal/finance"
	"autohaul_crm_backend/internal/leads/domain"
	"autohaul_crm_backend/internal/leads/repository"
	"autohaul_crm_backend/internal/leads/transport"
	"autohaul_crm_backend/internal/workflow"
	"autohaul_crm_backend/platform/apperr"
	"autohaul_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// allocationAttempts bounds the read-max/insert retry loop when two lead
// creations race on the same period sequence. The unique constraint on
// (tenant_id, public_id) is the final arbiter.
const allocationAttempts = 3

// Store is the persistence interface the leads service needs. Implemented by
// *repository.Repository; test fakes implement it in-memory.
type Store interface {
	Insert(ctx context.Context, lead *repository.Lead) error
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (*repository.Lead, error)
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*repository.Lead, error)
	MaxPublicID(ctx context.Context, tenantID uuid.UUID, prefix string) (string, error)
	Update(ctx context.Context, lead *repository.Lead) error
	Delete(ctx context.Context, id, tenantID uuid.UUID) error
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
	ListStats(ctx context.Context, tenantID uuid.UUID) ([]finance.LeadStat, error)
}

// AgentDirectory is the narrow interface for resolving a tenant's agents for
// the stats rollup. Implemented by an adapter over the identity module.
type AgentDirectory interface {
	AgentRefs(ctx context.Context, tenantID uuid.UUID) ([]finance.AgentRef, error)
}

// Service provides business logic for leads.
type Service struct {
	store  Store
	agents AgentDirectory // optional — nil means stats report no agent rows
	now    func() time.Time
}

// New creates a new leads service.
func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// SetAgentDirectory injects the agent directory (set after construction to
// break circular deps).
func (s *Service) SetAgentDirectory(agents AgentDirectory) {
	s.agents = agents
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create creates a lead, allocating its public identifier for the creation
// period. On an identifier race it retries the read-max/insert cycle a
// bounded number of times before surfacing AllocationConflict.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateLeadRequest) (*transport.LeadResponse, error) {
	total, err := finance.TotalTariff(req.CarrierFee, req.BrokerFee)
	if err != nil {
		return nil, err
	}

	now := s.now()
	priority := req.Priority
	if priority == "" {
		priority = transport.PriorityNormal
	}

	lead := repository.Lead{
		ID:              uuid.New(),
		TenantID:        tenantID,
		AssignedAgentID: req.AssignedAgentID,
		ContactName:     req.ContactName,
		ContactEmail:    req.ContactEmail,
		ContactPhone:    phone.NormalizeE164(req.ContactPhone),
		VehicleMake:     req.VehicleMake,
		VehicleModel:    req.VehicleModel,
		VehicleYear:     req.VehicleYear,
		Origin:          req.Origin,
		Destination:     req.Destination,
		OriginZip:       req.OriginZip,
		DestinationZip:  req.DestinationZip,
		PickupDate:      req.PickupDate,
		DeliveryDate:    req.DeliveryDate,
		CarrierFee:      orZero(req.CarrierFee),
		BrokerFee:       orZero(req.BrokerFee),
		TotalTariff:     total,
		State:           workflow.LeadStateLead,
		Priority:        priority,
		Notes:           req.Notes,
		Source:          transport.SourceManual,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.insertWithAllocation(ctx, &lead); err != nil {
		return nil, err
	}
	return buildResponse(&lead), nil
}

// insertWithAllocation runs the allocate/insert retry loop for a fully
// populated lead missing only its public identifier.
func (s *Service) insertWithAllocation(ctx context.Context, lead *repository.Lead) error {
	for attempt := 1; attempt <= allocationAttempts; attempt++ {
		prefix := domain.PeriodPrefix(lead.CreatedAt)
		currentMax, err := s.store.MaxPublicID(ctx, lead.TenantID, prefix)
		if err != nil {
			return fmt.Errorf("read period max: %w", err)
		}

		publicID, err := domain.NextPublicID(lead.CreatedAt, currentMax)
		if err != nil {
			if errors.Is(err, domain.ErrSequenceExhausted) {
				return apperr.Wrap(apperr.KindConflict, "public identifier sequence exhausted for period", err)
			}
			return err
		}

		lead.PublicID = publicID
		err = s.store.Insert(ctx, lead)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrPublicIDTaken) {
			return err
		}
		// Lost the race; re-read the max and try the next sequence number.
	}

	return apperr.AllocationConflict("public identifier allocation lost concurrent race")
}

// Ingest records a lead arriving from an external feed, deduplicating on the
// upstream identifier. Re-ingesting a known external id returns the existing
// lead unchanged.
func (s *Service) Ingest(ctx context.Context, tenantID uuid.UUID, inbound InboundLead) (*transport.LeadResponse, bool, error) {
	if inbound.ExternalID != "" {
		existing, err := s.store.FindByExternalID(ctx, tenantID, inbound.ExternalID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return buildResponse(existing), false, nil
		}
	}

	total, err := finance.TotalTariff(inbound.CarrierFee, inbound.BrokerFee)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	lead := repository.Lead{
		ID:             uuid.New(),
		TenantID:       tenantID,
		ContactName:    inbound.ContactName,
		ContactEmail:   inbound.ContactEmail,
		ContactPhone:   phone.NormalizeE164(inbound.ContactPhone),
		VehicleMake:    inbound.VehicleMake,
		VehicleModel:   inbound.VehicleModel,
		VehicleYear:    inbound.VehicleYear,
		Origin:         inbound.Origin,
		Destination:    inbound.Destination,
		OriginZip:      inbound.OriginZip,
		DestinationZip: inbound.DestinationZip,
		PickupDate:     inbound.PickupDate,
		DeliveryDate:   inbound.DeliveryDate,
		CarrierFee:     orZero(inbound.CarrierFee),
		BrokerFee:      orZero(inbound.BrokerFee),
		TotalTariff:    total,
		State:          workflow.LeadStateLead,
		Priority:       transport.PriorityNormal,
		Source:         inbound.Source,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if inbound.ExternalID != "" {
		externalID := inbound.ExternalID
		lead.ExternalID = &externalID
	}

	if err := s.insertWithAllocation(ctx, &lead); err != nil {
		return nil, false, err
	}
	return buildResponse(&lead), true, nil
}

// InboundLead is a normalized lead from an ingestion source, already
// validated by the source adapter.
type InboundLead struct {
	ExternalID     string
	Source         string
	ContactName    string
	ContactEmail   string
	ContactPhone   string
	VehicleMake    string
	VehicleModel   string
	VehicleYear    int
	Origin         string
	Destination    string
	OriginZip      *string
	DestinationZip *string
	PickupDate     *time.Time
	DeliveryDate   *time.Time
	CarrierFee     string
	BrokerFee      string
}

// GetByID retrieves a single lead.
func (s *Service) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return buildResponse(lead), nil
}

// List returns a page of leads. Agents see only their own assignments;
// managers pass a nil agent filter to see everything.
func (s *Service) List(ctx context.Context, params repository.ListParams) (*transport.ListLeadsResponse, error) {
	result, err := s.store.List(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.LeadResponse, len(result.Items))
	for i := range result.Items {
		items[i] = *buildResponse(&result.Items[i])
	}
	return &transport.ListLeadsResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Update applies a partial update. Fee edits always recompute the total
// tariff; a client-supplied total is never trusted.
func (s *Service) Update(ctx context.Context, id, tenantID uuid.UUID, req transport.UpdateLeadRequest) (*transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if req.ContactName != nil {
		lead.ContactName = *req.ContactName
	}
	if req.ContactEmail != nil {
		lead.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		lead.ContactPhone = phone.NormalizeE164(*req.ContactPhone)
	}
	if req.VehicleMake != nil {
		lead.VehicleMake = *req.VehicleMake
	}
	if req.VehicleModel != nil {
		lead.VehicleModel = *req.VehicleModel
	}
	if req.VehicleYear != nil {
		lead.VehicleYear = *req.VehicleYear
	}
	if req.Origin != nil {
		lead.Origin = *req.Origin
	}
	if req.Destination != nil {
		lead.Destination = *req.Destination
	}
	if req.OriginZip != nil {
		lead.OriginZip = req.OriginZip
	}
	if req.DestinationZip != nil {
		lead.DestinationZip = req.DestinationZip
	}
	if req.PickupDate != nil {
		lead.PickupDate = req.PickupDate
	}
	if req.DeliveryDate != nil {
		lead.DeliveryDate = req.DeliveryDate
	}
	if req.CarrierFee != nil {
		lead.CarrierFee = orZero(*req.CarrierFee)
	}
	if req.BrokerFee != nil {
		lead.BrokerFee = orZero(*req.BrokerFee)
	}
	if req.Priority != nil {
		lead.Priority = *req.Priority
	}
	if req.Notes != nil {
		lead.Notes = req.Notes
	}

	total, err := finance.TotalTariff(lead.CarrierFee, lead.BrokerFee)
	if err != nil {
		return nil, err
	}
	lead.TotalTariff = total
	lead.UpdatedAt = s.now()

	if err := s.store.Update(ctx, lead); err != nil {
		return nil, err
	}
	return buildResponse(lead), nil
}

// Assign sets or clears the lead's assigned agent.
func (s *Service) Assign(ctx context.Context, id, tenantID uuid.UUID, agentID *uuid.UUID) (*transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	lead.AssignedAgentID = agentID
	lead.UpdatedAt = s.now()
	if err := s.store.Update(ctx, lead); err != nil {
		return nil, err
	}
	return buildResponse(lead), nil
}

// UpdateState moves the lead through its workflow, rejecting illegal moves.
func (s *Service) UpdateState(ctx context.Context, id, tenantID uuid.UUID, target string) (*transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if err := workflow.Transition(workflow.EntityLead, lead.State, target); err != nil {
		return nil, err
	}

	lead.State = target
	lead.UpdatedAt = s.now()
	if err := s.store.Update(ctx, lead); err != nil {
		return nil, err
	}
	return buildResponse(lead), nil
}

// Delete removes a lead and, via database cascade, everything derived from it.
func (s *Service) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	return s.store.Delete(ctx, id, tenantID)
}

// TenantStats recomputes the tenant's aggregate pipeline statistics from the
// full lead set.
func (s *Service) TenantStats(ctx context.Context, tenantID uuid.UUID) (*finance.TenantStats, error) {
	leadStats, err := s.store.ListStats(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var agents []finance.AgentRef
	if s.agents != nil {
		agents, err = s.agents.AgentRefs(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}

	stats := finance.ComputeTenantStats(leadStats, agents)
	return &stats, nil
}

func orZero(fee string) string {
	if fee == "" {
		return "0"
	}
	return fee
}

func buildResponse(l *repository.Lead) *transport.LeadResponse {
	return &transport.LeadResponse{
		ID:              l.ID,
		TenantID:        l.TenantID,
		AssignedAgentID: l.AssignedAgentID,
		PublicID:        l.PublicID,
		ContactName:     l.ContactName,
		ContactEmail:    l.ContactEmail,
		ContactPhone:    l.ContactPhone,
		VehicleMake:     l.VehicleMake,
		VehicleModel:    l.VehicleModel,
		VehicleYear:     l.VehicleYear,
		Origin:          l.Origin,
		Destination:     l.Destination,
		OriginZip:       l.OriginZip,
		DestinationZip:  l.DestinationZip,
		PickupDate:      l.PickupDate,
		DeliveryDate:    l.DeliveryDate,
		CarrierFee:      l.CarrierFee,
		BrokerFee:       l.BrokerFee,
		TotalTariff:     l.TotalTariff,
		State:           l.State,
		Priority:        l.Priority,
		Notes:           l.Notes,
		Source:          l.Source,
		ExternalID:      l.ExternalID,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}
