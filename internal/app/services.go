package app

import (
	"github.com/yungbote/casegraph-backend/internal/ingestion/pipeline"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
	"github.com/yungbote/casegraph-backend/internal/services"
)

type Services struct {
	Query  services.QueryService
	Merge  services.MergeService
	Entity services.EntityService
	Ingest services.IngestService
	Audit  services.AuditService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, repos Repos) Services {
	log.Info("Wiring services...")
	p := pipeline.New(clients.Graph, repos.Ledger, log, pipeline.Config{
		AllowRandomIDs: cfg.IngestAllowRandomIDs,
		LedgerEnabled:  cfg.IngestLedgerEnabled,
	})
	return Services{
		Query:  services.NewQueryService(clients.Graph, log, cfg.Query),
		Merge:  services.NewMergeService(clients.Graph, repos.AuditLog, clients.Lease, cfg.MergeLeaseTTL, log),
		Entity: services.NewEntityService(clients.Graph, repos.AuditLog, log),
		Ingest: services.NewIngestService(p, repos.AuditLog, log),
		Audit:  services.NewAuditService(repos.AuditLog, repos.Ledger, log),
	}
}
