package services

import (
	"context"
	"fmt"

	"github.com/yungbote/casegraph-backend/internal/data/repos/audit"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/dbctx"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

type AuditService interface {
	ListLogs(ctx context.Context, principal types.Principal, caseID, action string, limit int) ([]*types.AuditLog, error)
	ListLedger(ctx context.Context, principal types.Principal, caseID string, limit int) ([]*types.ProvenanceLedgerEntry, error)
}

type auditService struct {
	repo   audit.AuditLogRepo
	ledger audit.LedgerRepo
	log    *logger.Logger
}

// NewAuditService builds the read side of the audit trail; ledger may be nil.
func NewAuditService(repo audit.AuditLogRepo, ledger audit.LedgerRepo, log *logger.Logger) AuditService {
	return &auditService{repo: repo, ledger: ledger, log: log.With("service", "AuditService")}
}

// ListLogs is always scoped to the principal's tenant.
func (s *auditService) ListLogs(ctx context.Context, principal types.Principal, caseID, action string, limit int) ([]*types.AuditLog, error) {
	if principal.TenantID == "" {
		return nil, types.NewValidationError("tenantId", "required")
	}
	return s.repo.List(dbctx.Of(ctx), audit.ListFilter{
		TenantID: principal.TenantID,
		CaseID:   caseID,
		Action:   action,
		Limit:    limit,
	})
}

func (s *auditService) ListLedger(ctx context.Context, principal types.Principal, caseID string, limit int) ([]*types.ProvenanceLedgerEntry, error) {
	if principal.TenantID == "" {
		return nil, types.NewValidationError("tenantId", "required")
	}
	if caseID == "" {
		return nil, types.NewValidationError("caseId", "required")
	}
	if s.ledger == nil {
		return nil, fmt.Errorf("provenance ledger: %w", types.ErrUnsupportedOperation)
	}
	return s.ledger.ListByCase(dbctx.Of(ctx), principal.TenantID, caseID, limit)
}

// newAuditLog encodes the JSON columns of an audit row. detail may be nil.
func newAuditLog(actor, action, tenantID, caseID string, targets []string, policy types.Policy, detail map[string]any) (*types.AuditLog, error) {
	t, err := audit.JSON(targets)
	if err != nil {
		return nil, fmt.Errorf("encode targets: %w", err)
	}
	snapshot, err := audit.JSON(policy.Normalized())
	if err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}
	entry := &types.AuditLog{
		Actor:          actor,
		Action:         action,
		TenantID:       tenantID,
		CaseID:         caseID,
		TargetIDs:      t,
		PolicySnapshot: snapshot,
	}
	if detail != nil {
		if entry.Detail, err = audit.JSON(detail); err != nil {
			return nil, fmt.Errorf("encode detail: %w", err)
		}
	}
	return entry, nil
}
