package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/casegraph-backend/internal/data/repos/audit"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

type Repos struct {
	AuditLog audit.AuditLogRepo
	Ledger   audit.LedgerRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		AuditLog: audit.NewAuditLogRepo(db, log),
		Ledger:   audit.NewLedgerRepo(db, log),
	}
}
