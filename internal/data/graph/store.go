// Package graph holds the storage contract for the entity graph and its two
// backends: an in-process reference store for tests and local development,
// and a Neo4j adapter for production. Stores are policy-agnostic; clearance
// filtering happens in the query service.
package graph

import (
	"context"

	types "github.com/yungbote/casegraph-backend/internal/domain"
)

const (
	DefaultMaxHops     = 2
	DefaultSearchLimit = 25
)

// Store is the backend-independent graph contract. Every method except the
// ID-only lookups is scoped to a (tenant, case) pair.
type Store interface {
	UpsertNode(ctx context.Context, n *types.Node) (string, error)
	UpsertEdge(ctx context.Context, e *types.Edge) (string, error)
	GetNodeByID(ctx context.Context, id string) (*types.Node, error)
	SearchNodes(ctx context.Context, query, tenantID, caseID string, limit int) ([]types.NodeSummary, error)
	// Neighbors walks up to maxHops edges from nodeID in either direction.
	// maxHops <= 0 means DefaultMaxHops, not "seed only".
	Neighbors(ctx context.Context, nodeID string, maxHops int, labelFilter []types.Kind) (*types.Subgraph, error)
	GetNodesByKind(ctx context.Context, kind types.Kind, tenantID, caseID string) ([]*types.Node, error)
	FindPersonByContact(ctx context.Context, contact types.Contact, tenantID, caseID string) (*types.Node, error)
	DeleteNode(ctx context.Context, id string) error

	// Capabilities declares optional operations; callers read it once at
	// construction instead of probing the concrete type.
	Capabilities() Capabilities

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// EdgeRepointer rewrites every edge referencing oldID to reference newID.
// Only backends that address nodes by a stable, caller-visible ID can offer it.
type EdgeRepointer interface {
	ReplaceEdgeEndpoints(ctx context.Context, oldID, newID string) error
}

type Capabilities struct {
	Repointer EdgeRepointer
}

// clampHops maps an unset (zero or negative) hop count to DefaultMaxHops.
func clampHops(maxHops int) int {
	if maxHops <= 0 {
		return DefaultMaxHops
	}
	return maxHops
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}

func kindSet(filter []types.Kind) map[types.Kind]struct{} {
	if len(filter) == 0 {
		return nil
	}
	out := make(map[types.Kind]struct{}, len(filter))
	for _, k := range filter {
		out[k] = struct{}{}
	}
	return out
}

func admits(filter map[types.Kind]struct{}, k types.Kind) bool {
	if filter == nil {
		return true
	}
	_, ok := filter[k]
	return ok
}

func normalizeEmail(s string) string { return types.NormalizeEmail(s) }

func normalizePhone(s string) string { return types.NormalizePhone(s) }
