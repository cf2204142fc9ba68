// Package identity provides the tenants and agents domain module.
package identity

import (
	apphttp "autohaul_crm_backend/internal/http"
	"autohaul_crm_backend/internal/identity/handler"
	"autohaul_crm_backend/internal/identity/repository"
	"autohaul_crm_backend/internal/identity/service"
	"autohaul_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the identity domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new identity module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "identity"
}

// Service returns the service layer for adapter wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterTenantRoutes(ctx.Protected.Group("/tenants"))
	m.handler.RegisterAgentRoutes(ctx.Protected.Group("/agents"))
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
