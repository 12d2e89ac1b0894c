package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/casegraph-backend/internal/data/graph"
	"github.com/yungbote/casegraph-backend/internal/data/repos/audit"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/dbctx"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
	"github.com/yungbote/casegraph-backend/internal/platform/redislease"
)

type MergeService interface {
	MergePerson(ctx context.Context, primaryID, duplicateID, actor string) (*types.Node, error)
}

type mergeService struct {
	store     graph.Store
	repointer graph.EdgeRepointer
	audit     audit.AuditLogRepo
	lease     redislease.Manager
	leaseTTL  time.Duration
	log       *logger.Logger
}

// NewMergeService reads the store's capabilities once. auditRepo and lease
// may be nil.
func NewMergeService(store graph.Store, auditRepo audit.AuditLogRepo, lease redislease.Manager, leaseTTL time.Duration, log *logger.Logger) MergeService {
	return &mergeService{
		store:     store,
		repointer: store.Capabilities().Repointer,
		audit:     auditRepo,
		lease:     lease,
		leaseTTL:  leaseTTL,
		log:       log.With("service", "MergeService"),
	}
}

// MergePerson folds duplicateID into primaryID: attributes are merged with
// the primary's scalars winning, every edge of the duplicate is repointed,
// and the duplicate is deleted. Nothing is written unless both nodes exist
// and are compatible.
func (s *mergeService) MergePerson(ctx context.Context, primaryID, duplicateID, actor string) (*types.Node, error) {
	ctx, span := tracer.Start(ctx, "merge.MergePerson")
	defer span.End()
	span.SetAttributes(attribute.String("primary_id", primaryID), attribute.String("duplicate_id", duplicateID))

	if primaryID == "" || duplicateID == "" {
		return nil, types.NewValidationError("primaryId/duplicateId", "required")
	}
	if primaryID == duplicateID {
		return nil, types.NewValidationError("duplicateId", "cannot merge an entity into itself")
	}
	if s.repointer == nil {
		return nil, fmt.Errorf("merge: backend cannot repoint edges: %w", types.ErrUnsupportedOperation)
	}

	release, err := s.acquire(ctx, primaryID, duplicateID)
	if err != nil {
		return nil, err
	}
	defer release()

	primary, err := s.store.GetNodeByID(ctx, primaryID)
	if err != nil {
		return nil, fmt.Errorf("merge: load primary: %w", err)
	}
	dup, err := s.store.GetNodeByID(ctx, duplicateID)
	if err != nil {
		return nil, fmt.Errorf("merge: load duplicate: %w", err)
	}
	if primary.Kind != dup.Kind {
		return nil, types.NewValidationError("kind", fmt.Sprintf("cannot merge %s into %s", dup.Kind, primary.Kind))
	}
	if !primary.SameScope(dup.TenantID, dup.CaseID) {
		return nil, types.NewValidationError("tenantId/caseId", "entities belong to different cases")
	}

	merged, err := mergeNodes(primary, dup)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.UpsertNode(ctx, merged); err != nil {
		return nil, fmt.Errorf("merge: update primary: %w", err)
	}
	if err := s.repointer.ReplaceEdgeEndpoints(ctx, duplicateID, primaryID); err != nil {
		return nil, fmt.Errorf("merge: repoint edges: %w", err)
	}

	// An ingest may have touched the duplicate since it was loaded; fold in
	// whatever it holds now before it disappears.
	latest, err := s.store.GetNodeByID(ctx, duplicateID)
	switch {
	case errors.Is(err, types.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("merge: reload duplicate: %w", err)
	default:
		if merged, err = mergeNodes(merged, latest); err != nil {
			return nil, err
		}
		if _, err := s.store.UpsertNode(ctx, merged); err != nil {
			return nil, fmt.Errorf("merge: update primary: %w", err)
		}
		if err := s.store.DeleteNode(ctx, duplicateID); err != nil && !errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("merge: delete duplicate: %w", err)
		}
	}

	s.record(ctx, actor, merged, primaryID, duplicateID)
	s.log.Info("merged entities", "primary_id", primaryID, "duplicate_id", duplicateID, "actor", actor)

	out, err := s.store.GetNodeByID(ctx, primaryID)
	if err != nil {
		return nil, fmt.Errorf("merge: reload primary: %w", err)
	}
	return out, nil
}

func mergeNodes(primary, dup *types.Node) (*types.Node, error) {
	attrs, err := types.MergeAttrs(primary.Attrs, dup.Attrs)
	if err != nil {
		return nil, err
	}
	policy, err := types.MergePolicies(primary.Policy, dup.Policy)
	if err != nil {
		return nil, err
	}
	out := primary.Clone()
	out.Attrs = attrs
	out.Policy = policy
	out.Provenance = types.MergeProvenance(primary.Provenance, dup.Provenance, "merge:"+dup.ID)
	return out, nil
}

// acquire takes leases on both IDs in a fixed order.
func (s *mergeService) acquire(ctx context.Context, ids ...string) (func(), error) {
	if s.lease == nil {
		return func() {}, nil
	}
	keys := append([]string(nil), ids...)
	sort.Strings(keys)

	var held []*redislease.Lease
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := s.lease.Release(context.Background(), held[i]); err != nil {
				s.log.Warn("lease release failed", "key", held[i].Key, "error", err)
			}
		}
	}
	for _, k := range keys {
		l, err := s.lease.Acquire(ctx, "merge:"+k, s.leaseTTL)
		if err != nil {
			release()
			if errors.Is(err, redislease.ErrLeaseConflict) {
				return nil, fmt.Errorf("merge: %s is being merged: %w", k, types.ErrConflict)
			}
			return nil, fmt.Errorf("merge: acquire lease: %w", err)
		}
		held = append(held, l)
	}
	return release, nil
}

func (s *mergeService) record(ctx context.Context, actor string, merged *types.Node, primaryID, duplicateID string) {
	if s.audit == nil {
		return
	}
	entry, err := newAuditLog(actor, types.AuditActionMerge, merged.TenantID, merged.CaseID, []string{primaryID, duplicateID}, merged.Policy, nil)
	if err != nil {
		s.log.Error("audit encode failed", "action", types.AuditActionMerge, "error", err)
		return
	}
	if _, err := s.audit.Create(dbctx.Of(ctx), entry); err != nil {
		s.log.Error("audit write failed", "action", types.AuditActionMerge, "error", err)
	}
}
