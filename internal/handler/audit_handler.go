package handler

import (
	"net/http"

	"handyhub/internal/service"
	"handyhub/pkg/pagination"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RegisterRoutes binds to the admin group; the caller applies the role check
func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs", h.GetAuditLogs)
}

// GetAuditLogs retrieves paginated moderation history, newest first
// @Summary      Get audit logs
// @Description  Lists moderation actions with the acting user's name
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        action query     string  false  "Action filter, e.g. APPROVE_WORKER"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.PaginatedResponse{data=[]service.AuditLogResponse}
// @Router       /admin/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), c.Query("action"), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(logs, pagination.NewMeta(p, total)))
}
