package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/casegraph-backend/internal/http/response"
	"github.com/yungbote/casegraph-backend/internal/services"
)

type AuditHandler struct {
	audit services.AuditService
}

func NewAuditHandler(audit services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// GET /api/audit/logs?caseId=&action=&limit=
func (h *AuditHandler) ListLogs(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	logs, err := h.audit.ListLogs(c.Request.Context(), p, c.Query("caseId"), c.Query("action"), limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, logs)
}

// GET /api/audit/ledger?caseId=&limit=
func (h *AuditHandler) ListLedger(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	entries, err := h.audit.ListLedger(c.Request.Context(), p, c.Query("caseId"), limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, entries)
}
