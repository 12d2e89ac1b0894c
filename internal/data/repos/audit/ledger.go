package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/dbctx"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

// LedgerRepo stores one provenance entry per ingested row.
type LedgerRepo interface {
	Record(dbc dbctx.Context, entry *types.ProvenanceLedgerEntry) (*types.ProvenanceLedgerEntry, error)
	FindByRowHash(dbc dbctx.Context, tenantID, caseID, rowHash string) (*types.ProvenanceLedgerEntry, error)
	ListByCase(dbc dbctx.Context, tenantID, caseID string, limit int) ([]*types.ProvenanceLedgerEntry, error)
}

type ledgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	repoLog := baseLog.With("repo", "LedgerRepo")
	return &ledgerRepo{db: db, log: repoLog}
}

func (r *ledgerRepo) Record(dbc dbctx.Context, entry *types.ProvenanceLedgerEntry) (*types.ProvenanceLedgerEntry, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if entry == nil || entry.TenantID == "" || entry.CaseID == "" || entry.RowHash == "" {
		return nil, types.NewValidationError("ledger", "tenant, case and row hash required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(entry.NodeIDs) == 0 {
		entry.NodeIDs = datatypes.JSON("[]")
	}
	if err := txx.WithContext(dbc.Ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// FindByRowHash returns the most recent entry for a row hash, or nil.
func (r *ledgerRepo) FindByRowHash(dbc dbctx.Context, tenantID, caseID, rowHash string) (*types.ProvenanceLedgerEntry, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.ProvenanceLedgerEntry
	err := txx.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND case_id = ? AND row_hash = ?", tenantID, caseID, rowHash).
		Order("created_at DESC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ledgerRepo) ListByCase(dbc dbctx.Context, tenantID, caseID string, limit int) ([]*types.ProvenanceLedgerEntry, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	var results []*types.ProvenanceLedgerEntry
	if err := txx.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND case_id = ?", tenantID, caseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if results == nil {
		results = []*types.ProvenanceLedgerEntry{}
	}
	return results, nil
}
