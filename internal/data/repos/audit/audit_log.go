package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/dbctx"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type AuditLogRepo interface {
	Create(dbc dbctx.Context, entry *types.AuditLog) (*types.AuditLog, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*types.AuditLog, error)
}

type ListFilter struct {
	TenantID string
	CaseID   string
	Action   string
	Limit    int
}

type auditLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	repoLog := baseLog.With("repo", "AuditLogRepo")
	return &auditLogRepo{db: db, log: repoLog}
}

func (r *auditLogRepo) Create(dbc dbctx.Context, entry *types.AuditLog) (*types.AuditLog, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if entry == nil {
		return nil, fmt.Errorf("audit: nil entry")
	}
	if entry.Actor == "" || entry.Action == "" {
		return nil, types.NewValidationError("audit", "actor and action required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(entry.TargetIDs) == 0 {
		entry.TargetIDs = datatypes.JSON("[]")
	}
	if len(entry.PolicySnapshot) == 0 {
		entry.PolicySnapshot = datatypes.JSON("{}")
	}
	if err := txx.WithContext(dbc.Ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns the newest entries first.
func (r *auditLogRepo) List(dbc dbctx.Context, filter ListFilter) ([]*types.AuditLog, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	q := txx.WithContext(dbc.Ctx).Model(&types.AuditLog{})
	if filter.TenantID != "" {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.CaseID != "" {
		q = q.Where("case_id = ?", filter.CaseID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	var results []*types.AuditLog
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	if results == nil {
		results = []*types.AuditLog{}
	}
	return results, nil
}

// JSON encodes v for a datatypes.JSON column.
func JSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
