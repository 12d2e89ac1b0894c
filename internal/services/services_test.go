package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/casegraph-backend/internal/data/graph"
	"github.com/yungbote/casegraph-backend/internal/data/identity"
	"github.com/yungbote/casegraph-backend/internal/data/repos/audit"
	"github.com/yungbote/casegraph-backend/internal/data/repos/testutil"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/dbctx"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

const (
	tenant = "t1"
	caseID = "c1"
)

func newStore() *graph.MemoryStore { return graph.NewMemoryStore(logger.NewNop()) }

func person(name, email string, clearance ...string) *types.Node {
	return &types.Node{
		ID:       identity.Derive("person", tenant, caseID, email),
		TenantID: tenant,
		CaseID:   caseID,
		Kind:     types.KindPerson,
		Attrs:    types.PersonAttrs{Name: name, Emails: []string{email}},
		Policy:   types.Policy{Clearance: clearance},
	}
}

func org(name string, clearance ...string) *types.Node {
	return &types.Node{
		ID:       identity.Derive("org", tenant, caseID, name),
		TenantID: tenant,
		CaseID:   caseID,
		Kind:     types.KindOrg,
		Attrs:    types.OrgAttrs{Name: name},
		Policy:   types.Policy{Clearance: clearance},
	}
}

func put(t *testing.T, s graph.Store, nodes ...*types.Node) {
	t.Helper()
	for _, n := range nodes {
		if _, err := s.UpsertNode(context.Background(), n); err != nil {
			t.Fatalf("UpsertNode(%s): %v", n.ID, err)
		}
	}
}

func link(t *testing.T, s graph.Store, src, tgt string, typ types.EdgeType) string {
	t.Helper()
	id, err := s.UpsertEdge(context.Background(), &types.Edge{
		TenantID: tenant, CaseID: caseID, SourceID: src, TargetID: tgt, Type: typ,
	})
	if err != nil {
		t.Fatalf("UpsertEdge: %v", err)
	}
	return id
}

func isNotFound(err error) bool { return errors.Is(err, types.ErrNotFound) }

func newAuditRepo(t *testing.T) audit.AuditLogRepo {
	t.Helper()
	return audit.NewAuditLogRepo(testutil.DB(t), testutil.Logger(t))
}

func auditLogs(t *testing.T, repo audit.AuditLogRepo, action string) []*types.AuditLog {
	t.Helper()
	out, err := repo.List(dbctx.Of(context.Background()), audit.ListFilter{TenantID: tenant, Action: action})
	if err != nil {
		t.Fatalf("List audit: %v", err)
	}
	return out
}
