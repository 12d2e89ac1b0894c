package services

import (
	"context"
	"encoding/json"
	"testing"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

func TestDeleteEntityAudited(t *testing.T) {
	store := newStore()
	a, o := person("Jane Doe", "jane@x.com"), org("Acme")
	put(t, store, a, o)
	link(t, store, a.ID, o.ID, types.EdgeAffiliatedWith)

	repo := newAuditRepo(t)
	svc := NewEntityService(store, repo, logger.NewNop())
	p := types.Principal{UserID: "analyst", TenantID: tenant}
	if err := svc.DeleteEntity(context.Background(), o.ID, p); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}
	sg, err := store.Neighbors(context.Background(), a.ID, 1, nil)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(sg.Edges) != 0 {
		t.Fatalf("incident edge survived delete: %+v", sg.Edges)
	}

	logs := auditLogs(t, repo, types.AuditActionDelete)
	if len(logs) != 1 {
		t.Fatalf("expected one delete audit, got %d", len(logs))
	}
	var detail map[string]any
	if err := json.Unmarshal(logs[0].Detail, &detail); err != nil || detail["label"] != "Acme" {
		t.Fatalf("detail = %v %v", detail, err)
	}

	if err := svc.DeleteEntity(context.Background(), o.ID, p); !isNotFound(err) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestDeleteEntityHiddenIsNotFound(t *testing.T) {
	store := newStore()
	secret := person("Secret Sam", "sam@x.com", "TS")
	put(t, store, secret)
	svc := NewEntityService(store, nil, logger.NewNop())

	for _, p := range []types.Principal{
		{UserID: "u1", TenantID: tenant, Clearances: []string{"S"}},
		{UserID: "u2", TenantID: "t2", Clearances: []string{"TS"}},
	} {
		if err := svc.DeleteEntity(context.Background(), secret.ID, p); !isNotFound(err) {
			t.Fatalf("principal %s: expected not found, got %v", p.UserID, err)
		}
	}
	if _, err := store.GetNodeByID(context.Background(), secret.ID); err != nil {
		t.Fatalf("hidden node deleted: %v", err)
	}
}
