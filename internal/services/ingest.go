package services

import (
	"context"
	"errors"

	"github.com/yungbote/casegraph-backend/internal/data/repos/audit"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/ingestion/mapping"
	"github.com/yungbote/casegraph-backend/internal/ingestion/pipeline"
	"github.com/yungbote/casegraph-backend/internal/ingestion/rows"
	"github.com/yungbote/casegraph-backend/internal/platform/dbctx"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

// IngestRequest is a decoded ingestion call. Exactly one of Rows or Raw
// should be set; Raw is parsed according to Format.
type IngestRequest struct {
	CaseID     string
	Source     string
	Mapping    mapping.Mapping
	Provenance types.Provenance
	Policy     types.Policy
	Rows       []rows.Row
	Raw        []byte
	Format     string
}

type IngestService interface {
	Ingest(ctx context.Context, principal types.Principal, req IngestRequest) (*pipeline.Result, error)
}

type ingestService struct {
	pipeline *pipeline.Pipeline
	audit    audit.AuditLogRepo
	log      *logger.Logger
}

func NewIngestService(p *pipeline.Pipeline, auditRepo audit.AuditLogRepo, log *logger.Logger) IngestService {
	return &ingestService{pipeline: p, audit: auditRepo, log: log.With("service", "IngestService")}
}

// Ingest runs the batch in the principal's tenant. A partial failure returns
// both the result and a *types.PartialIngestionError.
func (s *ingestService) Ingest(ctx context.Context, principal types.Principal, req IngestRequest) (*pipeline.Result, error) {
	ctx, span := tracer.Start(ctx, "ingest.Ingest")
	defer span.End()

	if principal.TenantID == "" {
		return nil, types.NewValidationError("tenantId", "required")
	}
	input := req.Rows
	if len(req.Raw) > 0 {
		parsed, err := rows.Read(req.Format, req.Raw)
		if err != nil {
			return nil, err
		}
		input = append(input, parsed...)
	}

	res, err := s.pipeline.Run(ctx, pipeline.Batch{
		TenantID:   principal.TenantID,
		CaseID:     req.CaseID,
		Actor:      principal.UserID,
		Source:     req.Source,
		Mapping:    req.Mapping,
		Provenance: req.Provenance,
		Policy:     req.Policy,
		Rows:       input,
	})
	var partial *types.PartialIngestionError
	if err != nil && !errors.As(err, &partial) {
		return nil, err
	}
	s.record(ctx, principal, req, res)
	return res, err
}

func (s *ingestService) record(ctx context.Context, principal types.Principal, req IngestRequest, res *pipeline.Result) {
	if s.audit == nil || res == nil || res.Ingested == 0 {
		return
	}
	entry, err := newAuditLog(principal.UserID, types.AuditActionIngest, principal.TenantID, req.CaseID, res.NodeIDs, req.Policy, map[string]any{
		"ingested":    res.Ingested,
		"failed":      res.Failed,
		"mappingHash": req.Mapping.Hash(),
		"source":      req.Source,
	})
	if err != nil {
		s.log.Error("audit encode failed", "action", types.AuditActionIngest, "error", err)
		return
	}
	if _, err := s.audit.Create(dbctx.Of(ctx), entry); err != nil {
		s.log.Error("audit write failed", "action", types.AuditActionIngest, "error", err)
	}
}
