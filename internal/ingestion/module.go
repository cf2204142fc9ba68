// Package ingestion provides the lead ingestion module: a per-source
// webhook endpoint plus the feed poller behind the scheduler.
package ingestion

import (
	apphttp "autohaul_crm_backend/internal/http"
	"autohaul_crm_backend/internal/ingestion/adapter"
	"autohaul_crm_backend/internal/ingestion/handler"
	"autohaul_crm_backend/internal/ingestion/service"
	"autohaul_crm_backend/platform/config"
	"autohaul_crm_backend/platform/logger"
)

// Module represents the ingestion module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new ingestion module with all source adapters
// registered.
func NewModule(leads service.LeadIngestor, cfg config.IngestionConfig, log *logger.Logger) *Module {
	registry := adapter.NewRegistry(
		adapter.NewAutoleadsAdapter(),
		adapter.NewTransportfeedAdapter(),
	)
	svc := service.New(registry, leads, cfg, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "ingestion"
}

// Service returns the service layer for the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/ingestion"))
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
