package handler

import (
	"autohaul_crm_backend/internal/pipeline/service"
	"autohaul_crm_backend/internal/pipeline/transport"
	"autohaul_crm_backend/platform/httpkit"
	"autohaul_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for pipeline conversions.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new pipeline handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the conversion routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads/:id/convert-to-quote", h.ConvertLeadToQuote)
	rg.POST("/quotes/:id/convert-to-order", h.ConvertQuoteToOrder)
	rg.POST("/orders/:id/convert-to-dispatch", h.ConvertOrderToDispatch)
}

func (h *Handler) ConvertLeadToQuote(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, "invalid lead id", nil)
		return
	}

	var req transport.ConvertLeadToQuoteRequest
	if err := bindOptionalBody(c, &req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	quote, err := h.svc.ConvertLeadToQuote(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, quote)
}

func (h *Handler) ConvertQuoteToOrder(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, "invalid quote id", nil)
		return
	}

	var req transport.ConvertQuoteToOrderRequest
	if err := bindOptionalBody(c, &req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	order, err := h.svc.ConvertQuoteToOrder(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, order)
}

func (h *Handler) ConvertOrderToDispatch(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, "invalid order id", nil)
		return
	}

	var req transport.ConvertOrderToDispatchRequest
	if err := bindOptionalBody(c, &req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}

	dispatch, err := h.svc.ConvertOrderToDispatch(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, dispatch)
}

// bindOptionalBody decodes the JSON body when one is present. Conversions
// accept an empty body; every override has a default.
func bindOptionalBody(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}
