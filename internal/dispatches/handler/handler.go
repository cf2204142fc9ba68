package handler

import (
	"strconv"

	"autohaul_crm_backend/internal/dispatches/repository"
	"autohaul_crm_backend/internal/dispatches/service"
	"autohaul_crm_backend/internal/dispatches/transport"
	"autohaul_crm_backend/platform/httpkit"
	"autohaul_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest    = "invalid request"
	msgValidationFailed  = "validation failed"
	msgInvalidDispatchID = "invalid dispatch id"
)

// Handler handles HTTP requests for dispatches.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new dispatches handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the dispatch routes. Dispatches are created
// through the pipeline conversion endpoint, never directly.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.PATCH("/:id/state", h.UpdateState)
}

func (h *Handler) List(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}

	params := repository.ListParams{
		TenantID: tenantID,
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 25),
	}
	if state := c.Query("state"); state != "" {
		params.State = &state
	}

	result, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidDispatchID, nil)
		return
	}

	dispatch, err := h.svc.GetByID(c.Request.Context(), id, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, dispatch)
}

func (h *Handler) Update(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidDispatchID, nil)
		return
	}

	var req transport.UpdateDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	dispatch, err := h.svc.Update(c.Request.Context(), id, tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, dispatch)
}

func (h *Handler) UpdateState(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidDispatchID, nil)
		return
	}

	var req transport.UpdateDispatchStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	dispatch, err := h.svc.UpdateState(c.Request.Context(), id, tenantID, req.State)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, dispatch)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}
