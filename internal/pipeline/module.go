// Package pipeline provides the conversion engine module: the staged
// lead → quote → order → dispatch progression.
package pipeline

import (
	apphttp "autohaul_crm_backend/internal/http"
	"autohaul_crm_backend/internal/pipeline/handler"
	"autohaul_crm_backend/internal/pipeline/repository"
	"autohaul_crm_backend/internal/pipeline/service"
	"autohaul_crm_backend/platform/events"
	"autohaul_crm_backend/platform/logger"
	"autohaul_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the pipeline conversion module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new pipeline module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "pipeline"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/pipeline"))
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
