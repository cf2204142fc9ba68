package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantID extracts the authenticated tenant ID from the gin context.
// Writes a 401 response and returns false when the claim is absent or invalid.
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(ContextTenantIDKey)
	if !exists {
		Error(c, http.StatusUnauthorized, "missing tenant context", nil)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw.(string))
	if err != nil {
		Error(c, http.StatusUnauthorized, "invalid tenant context", nil)
		return uuid.Nil, false
	}
	return id, true
}

// AgentID extracts the authenticated agent ID from the gin context.
func AgentID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(ContextAgentIDKey)
	if !exists {
		Error(c, http.StatusUnauthorized, "missing agent context", nil)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw.(string))
	if err != nil {
		Error(c, http.StatusUnauthorized, "invalid agent context", nil)
		return uuid.Nil, false
	}
	return id, true
}

// Role returns the authenticated agent's role, empty when unset.
func Role(c *gin.Context) string {
	if raw, exists := c.Get(ContextRoleKey); exists {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}
