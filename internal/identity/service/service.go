package service

import (
	"context"
	"time"

	"autohaul_crm_backend/internal/finance"
	"autohaul_crm_backend/internal/identity/repository"
	"autohaul_crm_backend/internal/identity/transport"
	"autohaul_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// Service provides business logic for tenants and agents.
type Service struct {
	repo *repository.Repository
	now  func() time.Time
}

// New creates a new identity service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetTenant retrieves the tenant's profile.
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*transport.TenantResponse, error) {
	tenant, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	return tenantResponse(tenant), nil
}

// UpdateTenant applies a partial update to the tenant's profile.
func (s *Service) UpdateTenant(ctx context.Context, id uuid.UUID, req transport.UpdateTenantRequest) (*transport.TenantResponse, error) {
	tenant, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tenant.Name = *req.Name
	}
	if req.ContactEmail != nil {
		tenant.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		tenant.ContactPhone = phone.NormalizeE164(*req.ContactPhone)
	}
	tenant.UpdatedAt = s.now()

	if err := s.repo.UpdateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	return tenantResponse(tenant), nil
}

// DeleteTenant removes the tenant and, by cascade, everything under it.
func (s *Service) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTenant(ctx, id)
}

// CreateAgent adds an agent under the tenant.
func (s *Service) CreateAgent(ctx context.Context, tenantID uuid.UUID, req transport.CreateAgentRequest) (*transport.AgentResponse, error) {
	now := s.now()
	agent := &repository.Agent{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     phone.NormalizeE164(req.Phone),
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertAgent(ctx, agent); err != nil {
		return nil, err
	}
	return agentResponse(agent), nil
}

// GetAgent retrieves a single agent.
func (s *Service) GetAgent(ctx context.Context, id, tenantID uuid.UUID) (*transport.AgentResponse, error) {
	agent, err := s.repo.GetAgent(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return agentResponse(agent), nil
}

// UpdateAgent applies a partial update to an agent.
func (s *Service) UpdateAgent(ctx context.Context, id, tenantID uuid.UUID, req transport.UpdateAgentRequest) (*transport.AgentResponse, error) {
	agent, err := s.repo.GetAgent(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		agent.Name = *req.Name
	}
	if req.Email != nil {
		agent.Email = *req.Email
	}
	if req.Phone != nil {
		agent.Phone = phone.NormalizeE164(*req.Phone)
	}
	if req.Role != nil {
		agent.Role = *req.Role
	}
	agent.UpdatedAt = s.now()

	if err := s.repo.UpdateAgent(ctx, agent); err != nil {
		return nil, err
	}
	return agentResponse(agent), nil
}

// DeleteAgent removes an agent; their leads stay, unassigned.
func (s *Service) DeleteAgent(ctx context.Context, id, tenantID uuid.UUID) error {
	return s.repo.DeleteAgent(ctx, id, tenantID)
}

// ListAgents returns the tenant's agents.
func (s *Service) ListAgents(ctx context.Context, tenantID uuid.UUID) ([]transport.AgentResponse, error) {
	agents, err := s.repo.ListAgents(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.AgentResponse, len(agents))
	for i := range agents {
		out[i] = *agentResponse(&agents[i])
	}
	return out, nil
}

// AgentRefs exposes the minimal agent directory used by the stats rollup.
func (s *Service) AgentRefs(ctx context.Context, tenantID uuid.UUID) ([]finance.AgentRef, error) {
	return s.repo.AgentRefs(ctx, tenantID)
}

func tenantResponse(t *repository.Tenant) *transport.TenantResponse {
	return &transport.TenantResponse{
		ID:           t.ID,
		Name:         t.Name,
		ContactEmail: t.ContactEmail,
		ContactPhone: t.ContactPhone,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func agentResponse(a *repository.Agent) *transport.AgentResponse {
	return &transport.AgentResponse{
		ID:        a.ID,
		TenantID:  a.TenantID,
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
