// Package dispatches provides the dispatches domain module.
package dispatches

import (
	apphttp "autohaul_crm_backend/internal/http"
	"autohaul_crm_backend/internal/dispatches/handler"
	"autohaul_crm_backend/internal/dispatches/repository"
	"autohaul_crm_backend/internal/dispatches/service"
	"autohaul_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the dispatches domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new dispatches module with all dependencies wired.
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
	return "dispatches"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/dispatches"))
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
