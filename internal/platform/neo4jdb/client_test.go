package neo4jdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{URI: "bolt://localhost:7687", User: "neo4j", Timeout: time.Second, MaxPool: 5}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	missing := valid
	missing.URI = " "
	if err := missing.Validate(); !errors.Is(err, ErrMissingURI) {
		t.Fatalf("expected ErrMissingURI, got %v", err)
	}

	noUser := valid
	noUser.User = ""
	if err := noUser.Validate(); err == nil {
		t.Fatalf("expected error for empty user")
	}

	noPool := valid
	noPool.MaxPool = 0
	if err := noPool.Validate(); err == nil {
		t.Fatalf("expected error for zero pool")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("NEO4J_URI", "neo4j://graph:7687")
	t.Setenv("NEO4J_TIMEOUT_SECONDS", "3")
	t.Setenv("NEO4J_USER", "")
	cfg := ConfigFromEnv()
	if cfg.URI != "neo4j://graph:7687" || cfg.Timeout != 3*time.Second || cfg.User != "neo4j" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestNewRequiresURI(t *testing.T) {
	_, err := New(context.Background(), Config{User: "neo4j", Timeout: time.Second, MaxPool: 1}, logger.NewNop())
	if !errors.Is(err, ErrMissingURI) {
		t.Fatalf("expected ErrMissingURI, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("Ping on nil should fail")
	}
}
