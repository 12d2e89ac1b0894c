package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/casegraph-backend/internal/http/handlers"
	httpMW "github.com/yungbote/casegraph-backend/internal/http/middleware"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	IngestHandler *httpH.IngestHandler
	EntityHandler *httpH.EntityHandler
	ViewHandler   *httpH.ViewHandler
	AuditHandler  *httpH.AuditHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Ingestion
		if cfg.IngestHandler != nil {
			api.POST("/ingest", cfg.IngestHandler.Ingest)
		}

		// Entities
		if cfg.EntityHandler != nil {
			api.GET("/entities/search", cfg.EntityHandler.Search)
			api.POST("/entities/merge", cfg.EntityHandler.Merge)
			api.GET("/entities/:id", cfg.EntityHandler.Get)
			api.DELETE("/entities/:id", cfg.EntityHandler.Delete)
		}

		// Views
		if cfg.ViewHandler != nil {
			api.GET("/views/tripane", cfg.ViewHandler.TriPane)
		}

		// Audit
		if cfg.AuditHandler != nil {
			api.GET("/audit/logs", cfg.AuditHandler.ListLogs)
			api.GET("/audit/ledger", cfg.AuditHandler.ListLedger)
		}
	}

	return r
}
