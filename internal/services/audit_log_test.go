package services

import (
	"encoding/json"
	"testing"

	types "github.com/yungbote/casegraph-backend/internal/domain"
)

func TestNewAuditLogEncodesColumns(t *testing.T) {
	entry, err := newAuditLog("analyst", types.AuditActionDelete, tenant, caseID, []string{"org:1"},
		types.Policy{Clearance: []string{"TS", "S"}}, map[string]any{"label": "Acme"})
	if err != nil {
		t.Fatalf("newAuditLog: %v", err)
	}
	var targets []string
	if err := json.Unmarshal(entry.TargetIDs, &targets); err != nil || len(targets) != 1 || targets[0] != "org:1" {
		t.Fatalf("targets = %s (%v)", entry.TargetIDs, err)
	}
	var detail map[string]string
	if err := json.Unmarshal(entry.Detail, &detail); err != nil || detail["label"] != "Acme" {
		t.Fatalf("detail = %s (%v)", entry.Detail, err)
	}

	noDetail, err := newAuditLog("analyst", types.AuditActionMerge, tenant, caseID, []string{"a", "b"}, types.Policy{}, nil)
	if err != nil {
		t.Fatalf("newAuditLog without detail: %v", err)
	}
	if noDetail.Detail != nil {
		t.Fatalf("detail should be empty, got %s", noDetail.Detail)
	}
}

func TestNewAuditLogReportsEncodeFailure(t *testing.T) {
	_, err := newAuditLog("analyst", types.AuditActionIngest, tenant, caseID, nil, types.Policy{},
		map[string]any{"bad": make(chan int)})
	if err == nil {
		t.Fatalf("expected encode error for unsupported detail value")
	}
}
