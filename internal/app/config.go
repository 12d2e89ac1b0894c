package app

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/casegraph-backend/internal/data/db"
	"github.com/yungbote/casegraph-backend/internal/platform/envutil"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
	"github.com/yungbote/casegraph-backend/internal/platform/neo4jdb"
	"github.com/yungbote/casegraph-backend/internal/services"
)

const (
	GraphBackendMemory = "memory"
	GraphBackendNeo4j  = "neo4j"
)

type Config struct {
	HTTPAddr     string
	ServiceName  string
	Environment  string
	GraphBackend string
	Neo4j        neo4jdb.Config
	DB           db.Config

	RedisAddr     string
	RedisPrefix   string
	MergeLeaseTTL time.Duration

	AuthMode     string
	JWTSecretKey string
	CORSOrigins  []string

	Query                services.QueryConfig
	IngestAllowRandomIDs bool
	IngestLedgerEnabled  bool
	ShutdownTimeout      time.Duration
}

// LoadDotEnv preloads a .env file when one exists; real environment variables win.
func LoadDotEnv(log *logger.Logger) {
	if err := godotenv.Load(); err != nil && log != nil {
		log.Debug("no .env file found, using process environment")
	}
}

func LoadConfig(log *logger.Logger) Config {
	LoadDotEnv(log)
	def := services.DefaultQueryConfig()
	cfg := Config{
		HTTPAddr:     envutil.String("HTTP_ADDR", ":8080"),
		ServiceName:  envutil.String("OTEL_SERVICE_NAME", "casegraph"),
		Environment:  envutil.String("APP_ENV", "development"),
		GraphBackend: envutil.String("GRAPH_BACKEND", GraphBackendMemory),
		Neo4j:        neo4jdb.ConfigFromEnv(),
		DB:           db.ConfigFromEnv(),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPrefix:   envutil.String("REDIS_LEASE_PREFIX", "casegraph:lease:"),
		MergeLeaseTTL: envutil.Duration("MERGE_LEASE_TTL", 30*time.Second),

		AuthMode:     envutil.String("AUTH_MODE", "jwt"),
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		CORSOrigins:  envutil.List("CORS_ALLOW_ORIGINS", nil),

		Query: services.QueryConfig{
			SearchLimitDefault: envutil.Int("SEARCH_LIMIT_DEFAULT", def.SearchLimitDefault),
			SearchLimitMax:     envutil.Int("SEARCH_LIMIT_MAX", def.SearchLimitMax),
			MaxHopsDefault:     envutil.Int("MAX_HOPS_DEFAULT", def.MaxHopsDefault),
			MaxHopsLimit:       envutil.Int("MAX_HOPS_LIMIT", def.MaxHopsLimit),
		},
		IngestAllowRandomIDs: envutil.Bool("INGEST_ALLOW_RANDOM_IDS", false),
		IngestLedgerEnabled:  envutil.Bool("INGEST_LEDGER_ENABLED", true),
		ShutdownTimeout:      envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
	if cfg.AuthMode == "jwt" && cfg.JWTSecretKey == "" && log != nil {
		log.Warn("JWT_SECRET_KEY is empty; every token will be rejected")
	}
	return cfg
}
