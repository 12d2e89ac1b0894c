package app

import (
	"context"
	"fmt"

	"github.com/yungbote/casegraph-backend/internal/data/db"
	"github.com/yungbote/casegraph-backend/internal/data/graph"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
	"github.com/yungbote/casegraph-backend/internal/platform/neo4jdb"
	"github.com/yungbote/casegraph-backend/internal/platform/redislease"
)

type Clients struct {
	Graph graph.Store
	DB    *db.Service
	Lease redislease.Manager

	neo4j *neo4jdb.Client
	redis *redislease.RedisManager
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	switch cfg.GraphBackend {
	case GraphBackendNeo4j:
		client, err := neo4jdb.New(ctx, cfg.Neo4j, log)
		if err != nil {
			return out, fmt.Errorf("init neo4j: %w", err)
		}
		store, err := graph.NewNeo4jStore(ctx, client, log)
		if err != nil {
			_ = client.Close(ctx)
			return out, fmt.Errorf("init neo4j store: %w", err)
		}
		out.neo4j, out.Graph = client, store
	case GraphBackendMemory, "":
		log.Warn("using in-memory graph backend; data is lost on restart")
		out.Graph = graph.NewMemoryStore(log)
	default:
		return out, fmt.Errorf("unknown GRAPH_BACKEND %q", cfg.GraphBackend)
	}

	dbs, err := db.NewService(cfg.DB, log)
	if err != nil {
		out.close(ctx, log)
		return out, fmt.Errorf("init audit db: %w", err)
	}
	out.DB = dbs

	if cfg.RedisAddr != "" {
		rm, err := redislease.Dial(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			out.close(ctx, log)
			return out, fmt.Errorf("init redis lease: %w", err)
		}
		out.redis, out.Lease = rm, rm
	} else {
		out.Lease = redislease.NewMemoryManager()
	}
	return out, nil
}

func (c Clients) close(ctx context.Context, log *logger.Logger) {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Warn("audit db close failed", "error", err)
		}
	}
	if c.Graph != nil {
		if err := c.Graph.Close(ctx); err != nil {
			log.Warn("graph close failed", "error", err)
		}
	}
}
