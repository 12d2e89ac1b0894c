package graph_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/casegraph-backend/internal/data/graph"
	"github.com/yungbote/casegraph-backend/internal/data/graph/graphtest"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
	"github.com/yungbote/casegraph-backend/internal/platform/neo4jdb"
)

// TestNeo4jStoreContract runs against a live database when TEST_NEO4J_URI is
// set. Each subtest writes under a fresh tenant, so the database is not wiped.
func TestNeo4jStoreContract(t *testing.T) {
	uri := os.Getenv("TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("TEST_NEO4J_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := neo4jdb.New(ctx, neo4jdb.Config{
		URI:      uri,
		User:     envOr("TEST_NEO4J_USER", "neo4j"),
		Password: os.Getenv("TEST_NEO4J_PASSWORD"),
		Database: os.Getenv("TEST_NEO4J_DATABASE"),
		Timeout:  10 * time.Second,
		MaxPool:  10,
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("connect neo4j: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	var (
		once  sync.Once
		store *graph.Neo4jStore
	)
	graphtest.Run(t, func(t *testing.T) graph.Store {
		once.Do(func() {
			store, err = graph.NewNeo4jStore(ctx, client, logger.NewNop())
		})
		if err != nil {
			t.Fatalf("NewNeo4jStore: %v", err)
		}
		return store
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
