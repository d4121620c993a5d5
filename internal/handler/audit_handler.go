package handler

import (
	"net/http"

	"salesledger/internal/middleware"
	"salesledger/internal/repository"
	"salesledger/internal/service"
	"salesledger/pkg/pagination"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(middleware.RequirePrivileged())
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves audit entries newest first
// @Summary      Get audit logs
// @Description  Lists who changed what, optionally narrowed to one action or entity
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action     query     string  false  "Action, e.g. SHIP_ORDER"
// @Param        entity_id  query     string  false  "Entity ID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), repository.AuditFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, p.Meta(total)))
}
