// Package adapters contains adapters that bridge different bounded contexts.
// These adapters implement interfaces defined by consuming domains while
// wrapping services from providing domains.
package adapters

import (
	"context"

	"autohaul_crm_backend/internal/finance"
	identityservice "autohaul_crm_backend/internal/identity/service"

	"github.com/google/uuid"
)

// IdentityAgentDirectory adapts the identity service to satisfy the leads
// domain's AgentDirectory interface, so the stats rollup can resolve agent
// names without knowing about identity internals.
type IdentityAgentDirectory struct {
	identitySvc *identityservice.Service
}

// NewIdentityAgentDirectory creates a new adapter wrapping the identity service.
func NewIdentityAgentDirectory(identitySvc *identityservice.Service) *IdentityAgentDirectory {
	return &IdentityAgentDirectory{identitySvc: identitySvc}
}

// AgentRefs returns the tenant's agents as lightweight references.
func (d *IdentityAgentDirectory) AgentRefs(ctx context.Context, tenantID uuid.UUID) ([]finance.AgentRef, error) {
	return d.identitySvc.AgentRefs(ctx, tenantID)
}
