package transport

import (
	"time"

	"github.com/google/uuid"
)

// Agent roles. Managers see the whole tenant; agents see their own
// assignments.
const (
	RoleManager = "manager"
	RoleAgent   = "agent"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// UpdateTenantRequest updates the current tenant's profile.
type UpdateTenantRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=200"`
	ContactEmail *string `json:"contactEmail" validate:"omitempty,email,max=320"`
	ContactPhone *string `json:"contactPhone" validate:"omitempty,max=40"`
}

// CreateAgentRequest creates an agent under the current tenant.
type CreateAgentRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Email string `json:"email" validate:"required,email,max=320"`
	Phone string `json:"phone" validate:"omitempty,max=40"`
	Role  string `json:"role" validate:"required,oneof=manager agent"`
}

// UpdateAgentRequest partially updates an agent.
type UpdateAgentRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=200"`
	Email *string `json:"email" validate:"omitempty,email,max=320"`
	Phone *string `json:"phone" validate:"omitempty,max=40"`
	Role  *string `json:"role" validate:"omitempty,oneof=manager agent"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// TenantResponse is the API representation of a tenant (customer brokerage).
type TenantResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AgentResponse is the API representation of an agent.
type AgentResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
