package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/http/response"
	"github.com/yungbote/casegraph-backend/internal/ingestion/mapping"
	"github.com/yungbote/casegraph-backend/internal/ingestion/rows"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
	"github.com/yungbote/casegraph-backend/internal/services"
)

type IngestHandler struct {
	log    *logger.Logger
	ingest services.IngestService
}

func NewIngestHandler(log *logger.Logger, ingest services.IngestService) *IngestHandler {
	return &IngestHandler{log: log.With("handler", "IngestHandler"), ingest: ingest}
}

type ingestRequest struct {
	TenantID   string           `json:"tenantId"`
	CaseID     string           `json:"caseId"`
	Source     string           `json:"source"`
	Mapping    json.RawMessage  `json:"mapping"`
	Provenance types.Provenance `json:"provenance"`
	Policy     types.Policy     `json:"policy"`
	Rows       []map[string]any `json:"rows"`
	CSV        string           `json:"csv"`
}

// POST /api/ingest
func (h *IngestHandler) Ingest(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.TenantID != "" && req.TenantID != p.TenantID {
		response.RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("tenant %q not permitted", req.TenantID))
		return
	}
	if len(req.Mapping) == 0 {
		response.RespondError(c, http.StatusBadRequest, "validation_error", types.NewValidationError("mapping", "required"))
		return
	}
	m, err := mapping.Parse(req.Mapping)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	input, err := rows.FromObjects(req.Rows)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}

	ireq := services.IngestRequest{
		CaseID:     req.CaseID,
		Source:     req.Source,
		Mapping:    m,
		Provenance: req.Provenance,
		Policy:     req.Policy,
		Rows:       input,
	}
	if req.CSV != "" {
		ireq.Raw = []byte(req.CSV)
		ireq.Format = "csv"
	}

	res, err := h.ingest.Ingest(c.Request.Context(), p, ireq)
	var partial *types.PartialIngestionError
	switch {
	case errors.As(err, &partial):
		response.RespondOK(c, gin.H{
			"status":   "partial",
			"ingested": res.Ingested,
			"failed":   res.Failed,
			"errors":   partial.Errors,
			"nodeIds":  res.NodeIDs,
		})
	case err != nil:
		response.RespondDomainError(c, err)
	default:
		response.RespondOK(c, gin.H{
			"status":   "ok",
			"ingested": res.Ingested,
			"nodeIds":  res.NodeIDs,
		})
	}
}
