package handler

import (
	"autohaul_crm_backend/internal/identity/service"
	"autohaul_crm_backend/internal/identity/transport"
	"autohaul_crm_backend/platform/httpkit"
	"autohaul_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidAgentID   = "invalid agent id"
	msgManagerOnly      = "manager role required"
)

// Handler handles HTTP requests for tenants and agents.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new identity handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterTenantRoutes registers the current-tenant routes.
func (h *Handler) RegisterTenantRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.GetTenant)
	rg.PUT("/me", h.UpdateTenant)
	rg.DELETE("/me", h.DeleteTenant)
}

// RegisterAgentRoutes registers the agent routes.
func (h *Handler) RegisterAgentRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListAgents)
	rg.POST("", h.CreateAgent)
	rg.GET("/:id", h.GetAgent)
	rg.PUT("/:id", h.UpdateAgent)
	rg.DELETE("/:id", h.DeleteAgent)
}

func (h *Handler) GetTenant(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}

	tenant, err := h.svc.GetTenant(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, tenant)
}

func (h *Handler) UpdateTenant(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	if !requireManager(c) {
		return
	}

	var req transport.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	tenant, err := h.svc.UpdateTenant(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, tenant)
}

func (h *Handler) DeleteTenant(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	if !requireManager(c) {
		return
	}

	if err := h.svc.DeleteTenant(c.Request.Context(), tenantID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "deleted"})
}

func (h *Handler) ListAgents(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}

	agents, err := h.svc.ListAgents(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, agents)
}

func (h *Handler) CreateAgent(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	if !requireManager(c) {
		return
	}

	var req transport.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	agent, err := h.svc.CreateAgent(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, agent)
}

func (h *Handler) GetAgent(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidAgentID, nil)
		return
	}

	agent, err := h.svc.GetAgent(c.Request.Context(), id, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, agent)
}

func (h *Handler) UpdateAgent(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	if !requireManager(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidAgentID, nil)
		return
	}

	var req transport.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	agent, err := h.svc.UpdateAgent(c.Request.Context(), id, tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, agent)
}

func (h *Handler) DeleteAgent(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	if !requireManager(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidAgentID, nil)
		return
	}

	if err := h.svc.DeleteAgent(c.Request.Context(), id, tenantID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "deleted"})
}

func requireManager(c *gin.Context) bool {
	if httpkit.Role(c) != transport.RoleManager {
		httpkit.Error(c, 403, msgManagerOnly, nil)
		return false
	}
	return true
}
