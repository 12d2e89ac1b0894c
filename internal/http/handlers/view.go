package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/http/response"
	"github.com/yungbote/casegraph-backend/internal/services"
)

type ViewHandler struct {
	query services.QueryService
}

func NewViewHandler(query services.QueryService) *ViewHandler {
	return &ViewHandler{query: query}
}

// GET /api/views/tripane?entityId=&maxHops=&labels=
func (h *ViewHandler) TriPane(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	entityID := c.Query("entityId")
	if entityID == "" {
		response.RespondDomainError(c, types.NewValidationError("entityId", "required"))
		return
	}
	maxHops, err := queryInt(c, "maxHops")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	labels, err := types.ParseKinds(c.QueryArray("labels"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	tp, err := h.query.NeighborsGraph(c.Request.Context(), entityID, maxHops, labels, p)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, tp)
}
