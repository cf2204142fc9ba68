package handler

import (
	"io"

	"autohaul_crm_backend/internal/ingestion/service"
	"autohaul_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 4 << 20

// Handler handles HTTP requests for lead ingestion.
type Handler struct {
	svc *service.Service
}

// New creates a new ingestion handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the ingestion routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:source", h.Ingest)
}

// Ingest accepts a raw upstream payload and routes it through the source's
// adapter. The body is passed through untouched; the adapter owns the shape.
func (h *Handler) Ingest(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		httpkit.Error(c, 400, "failed to read request body", nil)
		return
	}

	result, err := h.svc.IngestPayload(c.Request.Context(), tenantID, c.Param("source"), payload)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
