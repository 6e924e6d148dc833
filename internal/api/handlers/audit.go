package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/plant-health/internal/api/middleware"
	"github.com/agrosense/plant-health/internal/api/response"
	"github.com/agrosense/plant-health/internal/reports"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	log *reports.AuditLog
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(log *reports.AuditLog) *AuditHandler {
	return &AuditHandler{log: log}
}

// HandleList handles GET /api/v1/audit-logs.
func (h *AuditHandler) HandleList(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	page, pageSize := pageParams(c)
	entries, pagination, err := h.log.List(c.Request.Context(), p, page, pageSize)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, reports.ErrForbidden) {
			response.Forbidden(c, "administrator access required")
			return
		}
		response.InternalError(c, "failed to list audit logs")
		return
	}
	response.Page(c, entries, pagination)
}
