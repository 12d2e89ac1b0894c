package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/yungbote/casegraph-backend/internal/data/identity"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

// MemoryStore is the in-process reference backend: nodes keyed kind -> id,
// edges in a flat slice with a key index for idempotent upserts. It does not
// require edge endpoints to exist.
type MemoryStore struct {
	mu      sync.RWMutex
	nodes   map[types.Kind]map[string]*types.Node
	edges   []*types.Edge
	edgeIdx map[string]int
	now     func() time.Time
	log     *logger.Logger
}

func NewMemoryStore(log *logger.Logger) *MemoryStore {
	nodes := make(map[types.Kind]map[string]*types.Node, len(types.AllKinds))
	for _, k := range types.AllKinds {
		nodes[k] = make(map[string]*types.Node)
	}
	return &MemoryStore{
		nodes:   nodes,
		edgeIdx: make(map[string]int),
		now:     func() time.Time { return time.Now().UTC() },
		log:     log.With("store", "MemoryStore"),
	}
}

func (s *MemoryStore) Capabilities() Capabilities { return Capabilities{Repointer: s} }

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

func (s *MemoryStore) UpsertNode(ctx context.Context, n *types.Node) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.lookupLocked(n.ID)
	if existing == nil {
		stored := n.Clone()
		stored.Policy = stored.Policy.Normalized()
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = s.now()
		}
		s.nodes[n.Kind][n.ID] = stored
		return n.ID, nil
	}
	if !existing.SameScope(n.TenantID, n.CaseID) {
		return "", types.NewValidationError("tenantId/caseId", fmt.Sprintf("node %s belongs to another scope", n.ID))
	}
	if existing.Kind != n.Kind {
		return "", types.NewValidationError("kind", fmt.Sprintf("node %s already exists as %s", n.ID, existing.Kind))
	}
	attrs, err := types.UpsertAttrs(existing.Attrs, n.Attrs)
	if err != nil {
		return "", err
	}
	existing.Attrs = attrs
	existing.Provenance = n.Provenance.Clone()
	existing.Policy = n.Policy.Normalized()
	return n.ID, nil
}

func (s *MemoryStore) UpsertEdge(ctx context.Context, e *types.Edge) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertEdgeLocked(e)
}

func (s *MemoryStore) upsertEdgeLocked(e *types.Edge) (string, error) {
	id := e.ID
	if id == "" {
		id = identity.DeriveEdge(e.TenantID, e.CaseID, e.SourceID, string(e.Type), e.TargetID)
	}
	if i, ok := s.edgeIdx[id]; ok {
		cur := s.edges[i]
		if cur.TenantID != e.TenantID || cur.CaseID != e.CaseID {
			return "", types.NewValidationError("tenantId/caseId", fmt.Sprintf("edge %s belongs to another scope", id))
		}
		cur.Provenance = e.Provenance.Clone()
		cur.Policy = e.Policy.Normalized()
		if e.Role != "" {
			cur.Role = e.Role
		}
		return id, nil
	}
	stored := e.Clone()
	stored.ID = id
	stored.Policy = stored.Policy.Normalized()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.edgeIdx[id] = len(s.edges)
	s.edges = append(s.edges, stored)
	return id, nil
}

func (s *MemoryStore) GetNodeByID(ctx context.Context, id string) (*types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.lookupLocked(id)
	if n == nil {
		return nil, fmt.Errorf("node %s: %w", id, types.ErrNotFound)
	}
	return n.Clone(), nil
}

func (s *MemoryStore) lookupLocked(id string) *types.Node {
	for _, k := range types.AllKinds {
		if n, ok := s.nodes[k][id]; ok {
			return n
		}
	}
	return nil
}

// SearchNodes is a linear case-insensitive substring scan over labels.
func (s *MemoryStore) SearchNodes(ctx context.Context, query, tenantID, caseID string, limit int) ([]types.NodeSummary, error) {
	limit = clampLimit(limit)
	needle := cases.Fold().String(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.NodeSummary
	for _, k := range types.AllKinds {
		for _, n := range s.nodes[k] {
			if !n.SameScope(tenantID, caseID) {
				continue
			}
			if !strings.Contains(cases.Fold().String(n.Label()), needle) {
				continue
			}
			out = append(out, n.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Neighbors runs a breadth-first traversal from nodeID over edges in either
// direction. The visited set makes cycles terminate; a node is only expanded
// while its hop count is below maxHops. Non-seed nodes outside labelFilter are
// neither returned nor traversed through.
func (s *MemoryStore) Neighbors(ctx context.Context, nodeID string, maxHops int, labelFilter []types.Kind) (*types.Subgraph, error) {
	maxHops = clampHops(maxHops)
	filter := kindSet(labelFilter)

	s.mu.RLock()
	defer s.mu.RUnlock()

	seed := s.lookupLocked(nodeID)
	if seed == nil {
		return nil, fmt.Errorf("node %s: %w", nodeID, types.ErrNotFound)
	}

	adj := s.adjacencyLocked()
	out := &types.Subgraph{Nodes: []*types.Node{seed.Clone()}, Edges: []*types.Edge{}}
	visited := map[string]struct{}{seed.ID: {}}
	seenEdges := make(map[string]struct{})

	var q hopQueue
	q.Push(hopItem{id: seed.ID, hops: 0})
	for q.Len() > 0 {
		cur, _ := q.Pop()
		if cur.hops >= maxHops {
			continue
		}
		for _, e := range adj[cur.id] {
			other := s.lookupLocked(e.Other(cur.id))
			if other == nil || !admits(filter, other.Kind) {
				continue
			}
			if _, ok := seenEdges[e.ID]; !ok {
				seenEdges[e.ID] = struct{}{}
				out.Edges = append(out.Edges, e.Clone())
			}
			if _, ok := visited[other.ID]; ok {
				continue
			}
			visited[other.ID] = struct{}{}
			out.Nodes = append(out.Nodes, other.Clone())
			q.Push(hopItem{id: other.ID, hops: cur.hops + 1})
		}
	}
	return out, nil
}

func (s *MemoryStore) adjacencyLocked() map[string][]*types.Edge {
	adj := make(map[string][]*types.Edge, len(s.edges))
	for _, e := range s.edges {
		adj[e.SourceID] = append(adj[e.SourceID], e)
		if e.TargetID != e.SourceID {
			adj[e.TargetID] = append(adj[e.TargetID], e)
		}
	}
	return adj
}

func (s *MemoryStore) GetNodesByKind(ctx context.Context, kind types.Kind, tenantID, caseID string) ([]*types.Node, error) {
	if !kind.Valid() {
		return nil, types.NewValidationError("kind", fmt.Sprintf("unknown kind %q", kind))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Node, 0)
	for _, n := range s.nodes[kind] {
		if n.SameScope(tenantID, caseID) {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) FindPersonByContact(ctx context.Context, contact types.Contact, tenantID, caseID string) (*types.Node, error) {
	email := normalizeEmail(contact.Email)
	phone := normalizePhone(contact.Phone)
	if email == "" && phone == "" {
		return nil, types.NewValidationError("contact", "email or phone required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *types.Node
	for _, n := range s.nodes[types.KindPerson] {
		if !n.SameScope(tenantID, caseID) {
			continue
		}
		p, ok := n.Attrs.(types.PersonAttrs)
		if !ok {
			continue
		}
		if (email != "" && containsNormalized(p.Emails, email, normalizeEmail)) ||
			(phone != "" && containsNormalized(p.Phones, phone, normalizePhone)) {
			// Lowest ID wins so repeated lookups are deterministic.
			if match == nil || n.ID < match.ID {
				match = n
			}
		}
	}
	if match == nil {
		return nil, nil
	}
	return match.Clone(), nil
}

func (s *MemoryStore) DeleteNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookupLocked(id)
	if n == nil {
		return fmt.Errorf("node %s: %w", id, types.ErrNotFound)
	}
	delete(s.nodes[n.Kind], id)

	kept := s.edges[:0]
	for _, e := range s.edges {
		if !e.Touches(id) {
			kept = append(kept, e)
		}
	}
	s.edges = kept
	s.reindexLocked()
	return nil
}

// ReplaceEdgeEndpoints repoints every edge touching oldID at newID. Edges that
// would become self-loops or collide with an existing (source, type, target)
// key are dropped; edges with an explicit ID keep it.
func (s *MemoryStore) ReplaceEdgeEndpoints(ctx context.Context, oldID, newID string) error {
	if oldID == "" || newID == "" {
		return types.NewValidationError("id", "old and new IDs are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*types.Edge, 0, len(s.edges))
	var moved []*types.Edge
	for _, e := range s.edges {
		if e.Touches(oldID) {
			moved = append(moved, e)
			continue
		}
		kept = append(kept, e)
	}
	s.edges = kept
	s.reindexLocked()

	for _, e := range moved {
		derived := identity.DeriveEdge(e.TenantID, e.CaseID, e.SourceID, string(e.Type), e.TargetID)
		if e.SourceID == oldID {
			e.SourceID = newID
		}
		if e.TargetID == oldID {
			e.TargetID = newID
		}
		if e.SourceID == e.TargetID {
			continue
		}
		if e.ID == derived {
			e.ID = identity.DeriveEdge(e.TenantID, e.CaseID, e.SourceID, string(e.Type), e.TargetID)
		}
		if _, dup := s.edgeIdx[e.ID]; dup || s.hasKeyLocked(e) {
			continue
		}
		s.edgeIdx[e.ID] = len(s.edges)
		s.edges = append(s.edges, e)
	}
	return nil
}

func (s *MemoryStore) hasKeyLocked(e *types.Edge) bool {
	for _, cur := range s.edges {
		if cur.SourceID == e.SourceID && cur.TargetID == e.TargetID && cur.Type == e.Type {
			return true
		}
	}
	return false
}

func (s *MemoryStore) reindexLocked() {
	s.edgeIdx = make(map[string]int, len(s.edges))
	for i, e := range s.edges {
		s.edgeIdx[e.ID] = i
	}
}

func containsNormalized(set []string, v string, normalize func(string) string) bool {
	for _, s := range set {
		if normalize(s) == v {
			return true
		}
	}
	return false
}
