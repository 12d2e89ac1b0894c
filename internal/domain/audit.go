package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AuditActionMerge  = "merge"
	AuditActionDelete = "delete"
	AuditActionIngest = "ingest"
)

// AuditLog is an append-only record of a graph mutation performed on behalf of an actor.
type AuditLog struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Actor          string         `gorm:"column:actor;not null;index" json:"actor"`
	Action         string         `gorm:"column:action;not null;index" json:"action"`
	TenantID       string         `gorm:"column:tenant_id;index" json:"tenantId,omitempty"`
	CaseID         string         `gorm:"column:case_id;index" json:"caseId,omitempty"`
	TargetIDs      datatypes.JSON `gorm:"column:target_ids" json:"targetIds"`
	PolicySnapshot datatypes.JSON `gorm:"column:policy_snapshot" json:"policySnapshot"`
	Detail         datatypes.JSON `gorm:"column:detail" json:"detail,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"createdAt"`
}

func (AuditLog) TableName() string { return "audit_log" }

// ProvenanceLedgerEntry records the content hash of one ingested row so that
// later re-ingestion can be checked for drift.
type ProvenanceLedgerEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    string         `gorm:"column:tenant_id;not null;index:idx_ledger_scope_hash" json:"tenantId"`
	CaseID      string         `gorm:"column:case_id;not null;index:idx_ledger_scope_hash" json:"caseId"`
	RowHash     string         `gorm:"column:row_hash;not null;index:idx_ledger_scope_hash" json:"rowHash"`
	MappingHash string         `gorm:"column:mapping_hash;not null" json:"mappingHash"`
	Actor       string         `gorm:"column:actor;not null;index" json:"actor"`
	Source      string         `gorm:"column:source" json:"source,omitempty"`
	NodeIDs     datatypes.JSON `gorm:"column:node_ids" json:"nodeIds"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"createdAt"`
}

func (ProvenanceLedgerEntry) TableName() string { return "provenance_ledger" }
