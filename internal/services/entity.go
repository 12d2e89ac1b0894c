package services

import (
	"context"
	"fmt"

	"github.com/yungbote/casegraph-backend/internal/data/graph"
	"github.com/yungbote/casegraph-backend/internal/data/repos/audit"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/dbctx"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

type EntityService interface {
	DeleteEntity(ctx context.Context, id string, principal types.Principal) error
}

type entityService struct {
	store graph.Store
	audit audit.AuditLogRepo
	log   *logger.Logger
}

func NewEntityService(store graph.Store, auditRepo audit.AuditLogRepo, log *logger.Logger) EntityService {
	return &entityService{store: store, audit: auditRepo, log: log.With("service", "EntityService")}
}

// DeleteEntity removes a node and its incident edges. Nodes the principal
// cannot see are reported as missing.
func (s *entityService) DeleteEntity(ctx context.Context, id string, principal types.Principal) error {
	ctx, span := tracer.Start(ctx, "entity.DeleteEntity")
	defer span.End()

	n, err := s.store.GetNodeByID(ctx, id)
	if err != nil {
		return err
	}
	if (principal.TenantID != "" && principal.TenantID != n.TenantID) || !principal.CanSee(n.Policy) {
		return fmt.Errorf("node %s: %w", id, types.ErrNotFound)
	}
	if err := s.store.DeleteNode(ctx, id); err != nil {
		return err
	}

	if s.audit != nil {
		entry, err := newAuditLog(principal.UserID, types.AuditActionDelete, n.TenantID, n.CaseID, []string{id}, n.Policy,
			map[string]any{"kind": n.Kind, "label": n.Label()})
		if err != nil {
			s.log.Error("audit encode failed", "action", types.AuditActionDelete, "error", err)
		} else if _, err := s.audit.Create(dbctx.Of(ctx), entry); err != nil {
			s.log.Error("audit write failed", "action", types.AuditActionDelete, "error", err)
		}
	}
	s.log.Info("deleted entity", "id", id, "actor", principal.UserID)
	return nil
}
