package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/casegraph-backend/internal/data/graph"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

var tracer = otel.Tracer("casegraph/services")

type QueryConfig struct {
	SearchLimitDefault int
	SearchLimitMax     int
	MaxHopsDefault     int
	MaxHopsLimit       int
}

func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		SearchLimitDefault: graph.DefaultSearchLimit,
		SearchLimitMax:     200,
		MaxHopsDefault:     graph.DefaultMaxHops,
		MaxHopsLimit:       4,
	}
}

// TriPane is the timeline/map/graph projection of a neighbourhood.
type TriPane struct {
	Timeline []*types.Node `json:"timeline"`
	Map      []*types.Node `json:"map"`
	Graph    types.Subgraph `json:"graph"`
}

func emptyTriPane() *TriPane {
	return &TriPane{
		Timeline: []*types.Node{},
		Map:      []*types.Node{},
		Graph:    types.Subgraph{Nodes: []*types.Node{}, Edges: []*types.Edge{}},
	}
}

type QueryService interface {
	SearchEntities(ctx context.Context, query, tenantID, caseID string, limit int, principal types.Principal) ([]types.NodeSummary, error)
	NeighborsGraph(ctx context.Context, entityID string, maxHops int, labelFilter []types.Kind, principal types.Principal) (*TriPane, error)
	GetEntity(ctx context.Context, id string, principal types.Principal) (*types.Node, error)
}

type queryService struct {
	store graph.Store
	log   *logger.Logger
	cfg   QueryConfig
}

func NewQueryService(store graph.Store, log *logger.Logger, cfg QueryConfig) QueryService {
	def := DefaultQueryConfig()
	if cfg.SearchLimitDefault <= 0 {
		cfg.SearchLimitDefault = def.SearchLimitDefault
	}
	if cfg.SearchLimitMax <= 0 {
		cfg.SearchLimitMax = def.SearchLimitMax
	}
	if cfg.MaxHopsDefault <= 0 {
		cfg.MaxHopsDefault = def.MaxHopsDefault
	}
	if cfg.MaxHopsLimit <= 0 {
		cfg.MaxHopsLimit = def.MaxHopsLimit
	}
	return &queryService{
		store: store,
		log:   log.With("service", "QueryService"),
		cfg:   cfg,
	}
}

func (s *queryService) SearchEntities(ctx context.Context, query, tenantID, caseID string, limit int, principal types.Principal) ([]types.NodeSummary, error) {
	ctx, span := tracer.Start(ctx, "query.SearchEntities")
	defer span.End()

	if tenantID == "" || caseID == "" {
		return nil, types.NewValidationError("tenantId/caseId", "required")
	}
	if principal.TenantID != "" && principal.TenantID != tenantID {
		return []types.NodeSummary{}, nil
	}
	limit = bound(limit, s.cfg.SearchLimitDefault, s.cfg.SearchLimitMax)
	span.SetAttributes(attribute.Int("limit", limit))

	found, err := s.store.SearchNodes(ctx, query, tenantID, caseID, limit)
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}
	out := make([]types.NodeSummary, 0, len(found))
	for _, r := range found {
		if principal.CanSee(r.Policy) {
			out = append(out, r)
		}
	}
	return out, nil
}

// NeighborsGraph returns empty projections, not an error, when the seed is
// missing, belongs to another tenant or is hidden from the principal.
// maxHops <= 0 selects the configured default. Visibility is applied after
// traversal: a hidden node still connects the nodes around it but neither it
// nor its edges are returned.
func (s *queryService) NeighborsGraph(ctx context.Context, entityID string, maxHops int, labelFilter []types.Kind, principal types.Principal) (*TriPane, error) {
	ctx, span := tracer.Start(ctx, "query.NeighborsGraph")
	defer span.End()

	maxHops = bound(maxHops, s.cfg.MaxHopsDefault, s.cfg.MaxHopsLimit)
	span.SetAttributes(attribute.Int("max_hops", maxHops))

	sg, err := s.store.Neighbors(ctx, entityID, maxHops, labelFilter)
	if errors.Is(err, types.ErrNotFound) {
		return emptyTriPane(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}
	if len(sg.Nodes) == 0 {
		return emptyTriPane(), nil
	}

	var seed *types.Node
	for _, n := range sg.Nodes {
		if n.ID == entityID {
			seed = n
			break
		}
	}
	if seed == nil || !s.visible(seed, principal, seed.TenantID, seed.CaseID) {
		return emptyTriPane(), nil
	}

	out := emptyTriPane()
	kept := make(map[string]struct{}, len(sg.Nodes))
	for _, n := range sg.Nodes {
		if !s.visible(n, principal, seed.TenantID, seed.CaseID) {
			continue
		}
		kept[n.ID] = struct{}{}
		out.Graph.Nodes = append(out.Graph.Nodes, n)
		switch a := n.Attrs.(type) {
		case types.EventAttrs:
			out.Timeline = append(out.Timeline, n)
		case types.LocationAttrs:
			if a.HasCoordinates() {
				out.Map = append(out.Map, n)
			}
		}
	}
	for _, e := range sg.Edges {
		_, okSrc := kept[e.SourceID]
		_, okTgt := kept[e.TargetID]
		if okSrc && okTgt && principal.CanSee(e.Policy) {
			out.Graph.Edges = append(out.Graph.Edges, e)
		}
	}
	sortTimeline(out.Timeline)
	sort.Slice(out.Map, func(i, j int) bool { return out.Map[i].ID < out.Map[j].ID })
	return out, nil
}

func (s *queryService) GetEntity(ctx context.Context, id string, principal types.Principal) (*types.Node, error) {
	ctx, span := tracer.Start(ctx, "query.GetEntity")
	defer span.End()

	n, err := s.store.GetNodeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(n, principal, n.TenantID, n.CaseID) {
		return nil, fmt.Errorf("node %s: %w", id, types.ErrNotFound)
	}
	return n, nil
}

func (s *queryService) visible(n *types.Node, principal types.Principal, tenantID, caseID string) bool {
	if !n.SameScope(tenantID, caseID) {
		return false
	}
	if principal.TenantID != "" && principal.TenantID != n.TenantID {
		return false
	}
	return principal.CanSee(n.Policy)
}

// sortTimeline orders events by OccurredAt; undated events go last and ties
// break on ID.
func sortTimeline(events []*types.Node) {
	sort.SliceStable(events, func(i, j int) bool {
		a := events[i].Attrs.(types.EventAttrs).OccurredAt
		b := events[j].Attrs.(types.EventAttrs).OccurredAt
		switch {
		case a == nil && b == nil:
			return events[i].ID < events[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return events[i].ID < events[j].ID
		}
	})
}

func bound(v, def, max int) int {
	if v <= 0 {
		v = def
	}
	if max > 0 && v > max {
		v = max
	}
	return v
}
