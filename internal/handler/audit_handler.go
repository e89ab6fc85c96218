package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolleave/internal/middleware"
	"schoolleave/internal/model"
	"schoolleave/internal/repository"
	"schoolleave/internal/service"
	"schoolleave/pkg/pagination"
	"schoolleave/pkg/response"
)

type AuditHandler struct {
	auditService service.AuditService
	authz        *middleware.Authorizer
}

func NewAuditHandler(auditService service.AuditService, authz *middleware.Authorizer) *AuditHandler {
	return &AuditHandler{auditService: auditService, authz: authz}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs")
	group.Use(h.authz.RequireRole(model.RoleAdmin))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves paginated audit records, newest first
// @Summary      Get audit logs
// @Description  Retrieves the audit trail of leave decisions and account changes
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Param        action     query     string  false  "Action name"
// @Param        entity_id  query     string  false  "Entity ID"
// @Param        user_id    query     int     false  "Acting user ID"
// @Success      200        {object}  response.Response{data=object}
// @Failure      400        {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.AuditFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.APIError(http.StatusBadRequest, model.NewValidationError("invalid user_id")))
			return
		}
		uid := uint(id)
		filter.UserID = &uid
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err, "audit logs", true)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}
