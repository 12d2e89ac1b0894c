package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/http/response"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
	"github.com/yungbote/casegraph-backend/internal/services"
)

type EntityHandler struct {
	log    *logger.Logger
	query  services.QueryService
	merge  services.MergeService
	entity services.EntityService
}

func NewEntityHandler(log *logger.Logger, query services.QueryService, merge services.MergeService, entity services.EntityService) *EntityHandler {
	return &EntityHandler{
		log:    log.With("handler", "EntityHandler"),
		query:  query,
		merge:  merge,
		entity: entity,
	}
}

// GET /api/entities/search?q=&caseId=&limit=
func (h *EntityHandler) Search(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	results, err := h.query.SearchEntities(c.Request.Context(), c.Query("q"), p.TenantID, strings.TrimSpace(c.Query("caseId")), limit, p)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": results})
}

// GET /api/entities/:id
func (h *EntityHandler) Get(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	n, err := h.query.GetEntity(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, n)
}

// DELETE /api/entities/:id
func (h *EntityHandler) Delete(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if err := h.entity.DeleteEntity(c.Request.Context(), c.Param("id"), p); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type mergeRequest struct {
	PrimaryID   string `json:"primaryId"`
	DuplicateID string `json:"duplicateId"`
}

// POST /api/entities/merge
func (h *EntityHandler) Merge(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	// Both sides must be visible to the caller before anything is touched.
	for _, id := range []string{req.PrimaryID, req.DuplicateID} {
		if id == "" {
			response.RespondDomainError(c, types.NewValidationError("primaryId/duplicateId", "required"))
			return
		}
		if _, err := h.query.GetEntity(c.Request.Context(), id, p); err != nil {
			response.RespondDomainError(c, err)
			return
		}
	}
	merged, err := h.merge.MergePerson(c.Request.Context(), req.PrimaryID, req.DuplicateID, p.UserID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": merged.ID, "entity": merged})
}
