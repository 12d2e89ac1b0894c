package app

import (
	casehttp "github.com/yungbote/casegraph-backend/internal/http"
	httpH "github.com/yungbote/casegraph-backend/internal/http/handlers"
	httpMW "github.com/yungbote/casegraph-backend/internal/http/middleware"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Ingest *httpH.IngestHandler
	Entity *httpH.EntityHandler
	View   *httpH.ViewHandler
	Audit  *httpH.AuditHandler
}

func wireHandlers(log *logger.Logger, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(map[string]httpH.Pinger{"graph": clients.Graph, "db": clients.DB}),
		Ingest: httpH.NewIngestHandler(log, services.Ingest),
		Entity: httpH.NewEntityHandler(log, services.Query, services.Merge, services.Entity),
		View:   httpH.NewViewHandler(services.Query),
		Audit:  httpH.NewAuditHandler(services.Audit),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.AuthMode, cfg.JWTSecretKey),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *casehttp.Server {
	return casehttp.NewServer(cfg.HTTPAddr, casehttp.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: middleware.Auth,
		IngestHandler:  handlers.Ingest,
		EntityHandler:  handlers.Entity,
		ViewHandler:    handlers.View,
		AuditHandler:   handlers.Audit,
		HealthHandler:  handlers.Health,
	})
}
