package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/casegraph-backend/internal/data/identity"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
	"github.com/yungbote/casegraph-backend/internal/platform/neo4jdb"
)

const fulltextIndex = "entity_label_fulltext"

// Neo4jStore persists entities as (:Entity:<Kind>) nodes and edges as typed
// relationships. Timestamps are RFC3339Nano strings; provenance and policy
// are stored as JSON blobs.
type Neo4jStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewNeo4jStore(ctx context.Context, client *neo4jdb.Client, log *logger.Logger) (*Neo4jStore, error) {
	if client == nil || client.Driver == nil {
		return nil, fmt.Errorf("neo4j store: client required")
	}
	s := &Neo4jStore{client: client, log: log.With("store", "Neo4jStore")}
	s.ensureSchema(ctx)
	return s, nil
}

func (s *Neo4jStore) Capabilities() Capabilities { return Capabilities{Repointer: s} }

func (s *Neo4jStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return fmt.Errorf("neo4j ping: %w: %w", types.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *Neo4jStore) Close(ctx context.Context) error { return s.client.Close(ctx) }

// Best-effort schema init.
func (s *Neo4jStore) ensureSchema(ctx context.Context) {
	stmts := []string{
		`CREATE INDEX entity_id_idx IF NOT EXISTS FOR (n:Entity) ON (n.id)`,
		`CREATE INDEX entity_scope_idx IF NOT EXISTS FOR (n:Entity) ON (n.tenant_id, n.case_id)`,
		`CREATE FULLTEXT INDEX ` + fulltextIndex + ` IF NOT EXISTS FOR (n:Entity) ON EACH [n.label]`,
	}
	for _, k := range types.AllKinds {
		stmts = append(stmts, fmt.Sprintf(
			`CREATE CONSTRAINT %s_id_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE`,
			k.Prefix(), k,
		))
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)
	for _, q := range stmts {
		if res, err := session.Run(ctx, q, nil); err != nil {
			s.log.Warn("neo4j schema init failed (continuing)", "error", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}
}

func (s *Neo4jStore) UpsertNode(ctx context.Context, n *types.Node) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	params, err := nodeParams(n)
	if err != nil {
		return "", err
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:Entity {id: $id})
RETURN n.tenant_id AS tenant_id, n.case_id AS case_id, n.kind AS kind
`, map[string]any{"id": n.ID})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if str(rec, "tenant_id") != n.TenantID || str(rec, "case_id") != n.CaseID {
				return nil, types.NewValidationError("tenantId/caseId", fmt.Sprintf("node %s belongs to another scope", n.ID))
			}
			if str(rec, "kind") != string(n.Kind) {
				return nil, types.NewValidationError("kind", fmt.Sprintf("node %s already exists as %s", n.ID, str(rec, "kind")))
			}
		}

		q := fmt.Sprintf(`
MERGE (n:Entity:%s {id: $id})
ON CREATE SET n.tenant_id = $tenant_id,
              n.case_id = $case_id,
              n.kind = $kind,
              n.created_by = $created_by,
              n.created_at = $created_at
SET n += $props,
    n.provenance_json = $provenance_json,
    n.policy_json = $policy_json
`, n.Kind)
		if n.Kind == types.KindPerson {
			q += `
SET n.emails = reduce(acc = coalesce(n.emails, []), x IN $emails | CASE WHEN x IN acc THEN acc ELSE acc + x END),
    n.phones = reduce(acc = coalesce(n.phones, []), x IN $phones | CASE WHEN x IN acc THEN acc ELSE acc + x END)
`
		}
		res, err = tx.Run(ctx, q, params)
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return "", s.wrap("upsert node", err)
	}
	return n.ID, nil
}

func (s *Neo4jStore) UpsertEdge(ctx context.Context, e *types.Edge) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	id := e.ID
	if id == "" {
		id = identity.DeriveEdge(e.TenantID, e.CaseID, e.SourceID, string(e.Type), e.TargetID)
	}
	params, err := edgeParams(e, id)
	if err != nil {
		return "", err
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	// e.Type has passed Validate, so it is safe to interpolate.
	q := fmt.Sprintf(`
MATCH (a:Entity {id: $source_id})
MATCH (b:Entity {id: $target_id})
MERGE (a)-[r:%s {id: $id}]->(b)
ON CREATE SET r.tenant_id = $tenant_id,
              r.case_id = $case_id,
              r.source_id = $source_id,
              r.target_id = $target_id,
              r.type = $type,
              r.created_by = $created_by,
              r.created_at = $created_at
SET r.provenance_json = $provenance_json,
    r.policy_json = $policy_json,
    r.role = CASE WHEN $role <> '' THEN $role ELSE r.role END
RETURN r.tenant_id AS tenant_id, r.case_id AS case_id
`, e.Type)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, q, params)
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("edge endpoints %s -> %s: %w", e.SourceID, e.TargetID, types.ErrNotFound)
		}
		if str(recs[0], "tenant_id") != e.TenantID || str(recs[0], "case_id") != e.CaseID {
			return nil, types.NewValidationError("tenantId/caseId", fmt.Sprintf("edge %s belongs to another scope", id))
		}
		return nil, nil
	})
	if err != nil {
		return "", s.wrap("upsert edge", err)
	}
	return id, nil
}

func (s *Neo4jStore) GetNodeByID(ctx context.Context, id string) (*types.Node, error) {
	nodes, err := s.readNodes(ctx, `MATCH (n:Entity {id: $id}) RETURN n LIMIT 1`, map[string]any{"id": id})
	if err != nil {
		return nil, s.wrap("get node", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("node %s: %w", id, types.ErrNotFound)
	}
	return nodes[0], nil
}

// SearchNodes prefers the full-text index and falls back to a CONTAINS scan
// in a fresh read transaction when the index is missing or the query is empty.
func (s *Neo4jStore) SearchNodes(ctx context.Context, query, tenantID, caseID string, limit int) ([]types.NodeSummary, error) {
	limit = clampLimit(limit)
	query = strings.TrimSpace(query)
	params := map[string]any{
		"tenant_id": tenantID,
		"case_id":   caseID,
		"limit":     int64(limit),
	}

	if query != "" {
		params["q"] = luceneQuery(query)
		nodes, err := s.readNodes(ctx, `
CALL db.index.fulltext.queryNodes($index, $q) YIELD node, score
WHERE node.tenant_id = $tenant_id AND node.case_id = $case_id
RETURN node AS n
ORDER BY score DESC, node.id
LIMIT $limit
`, withParam(params, "index", fulltextIndex))
		if err == nil {
			return summaries(nodes), nil
		}
		if neo4j.IsConnectivityError(err) {
			return nil, s.wrap("search", err)
		}
		s.log.Warn("fulltext search failed, falling back to scan", "error", err)
	}

	params["q"] = query
	nodes, err := s.readNodes(ctx, `
MATCH (n:Entity)
WHERE n.tenant_id = $tenant_id AND n.case_id = $case_id
  AND toLower(coalesce(n.label, '')) CONTAINS toLower($q)
RETURN n
ORDER BY n.label, n.id
LIMIT $limit
`, params)
	if err != nil {
		return nil, s.wrap("search", err)
	}
	return summaries(nodes), nil
}

func (s *Neo4jStore) Neighbors(ctx context.Context, nodeID string, maxHops int, labelFilter []types.Kind) (*types.Subgraph, error) {
	maxHops = clampHops(maxHops)
	kinds := make([]string, 0, len(labelFilter))
	for _, k := range labelFilter {
		kinds = append(kinds, string(k))
	}

	q := fmt.Sprintf(`
MATCH (seed:Entity {id: $id})
OPTIONAL MATCH p = (seed)-[*1..%d]-(m:Entity)
WHERE size($kinds) = 0 OR all(x IN nodes(p)[1..] WHERE x.kind IN $kinds)
RETURN seed, nodes(p) AS ns, relationships(p) AS rs
`, maxHops)

	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, q, map[string]any{"id": nodeID, "kinds": kinds})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("node %s: %w", nodeID, types.ErrNotFound)
		}
		return collectSubgraph(recs)
	})
	if err != nil {
		return nil, s.wrap("neighbors", err)
	}
	return out.(*types.Subgraph), nil
}

func collectSubgraph(recs []*neo4j.Record) (*types.Subgraph, error) {
	sg := &types.Subgraph{Nodes: []*types.Node{}, Edges: []*types.Edge{}}
	seenNodes := map[string]struct{}{}
	seenEdges := map[string]struct{}{}

	addNode := func(raw any) error {
		nn, ok := raw.(neo4j.Node)
		if !ok {
			return nil
		}
		n, err := nodeFromNeo4j(nn)
		if err != nil {
			return err
		}
		if _, ok := seenNodes[n.ID]; ok {
			return nil
		}
		seenNodes[n.ID] = struct{}{}
		sg.Nodes = append(sg.Nodes, n)
		return nil
	}

	for _, rec := range recs {
		seed, _ := rec.Get("seed")
		if err := addNode(seed); err != nil {
			return nil, err
		}
		ns, _ := rec.Get("ns")
		if list, ok := ns.([]any); ok {
			for _, raw := range list {
				if err := addNode(raw); err != nil {
					return nil, err
				}
			}
		}
		rs, _ := rec.Get("rs")
		if list, ok := rs.([]any); ok {
			for _, raw := range list {
				rel, ok := raw.(neo4j.Relationship)
				if !ok {
					continue
				}
				e, err := edgeFromNeo4j(rel)
				if err != nil {
					return nil, err
				}
				if _, ok := seenEdges[e.ID]; ok {
					continue
				}
				seenEdges[e.ID] = struct{}{}
				sg.Edges = append(sg.Edges, e)
			}
		}
	}
	return sg, nil
}

func (s *Neo4jStore) GetNodesByKind(ctx context.Context, kind types.Kind, tenantID, caseID string) ([]*types.Node, error) {
	if !kind.Valid() {
		return nil, types.NewValidationError("kind", fmt.Sprintf("unknown kind %q", kind))
	}
	nodes, err := s.readNodes(ctx, fmt.Sprintf(`
MATCH (n:Entity:%s)
WHERE n.tenant_id = $tenant_id AND n.case_id = $case_id
RETURN n
ORDER BY n.id
`, kind), map[string]any{"tenant_id": tenantID, "case_id": caseID})
	if err != nil {
		return nil, s.wrap("nodes by kind", err)
	}
	if nodes == nil {
		nodes = []*types.Node{}
	}
	return nodes, nil
}

func (s *Neo4jStore) FindPersonByContact(ctx context.Context, contact types.Contact, tenantID, caseID string) (*types.Node, error) {
	email := normalizeEmail(contact.Email)
	phone := normalizePhone(contact.Phone)
	if email == "" && phone == "" {
		return nil, types.NewValidationError("contact", "email or phone required")
	}
	nodes, err := s.readNodes(ctx, `
MATCH (n:Entity:Person)
WHERE n.tenant_id = $tenant_id AND n.case_id = $case_id
  AND (($email <> '' AND $email IN coalesce(n.emails, []))
    OR ($phone <> '' AND $phone IN coalesce(n.phones, [])))
RETURN n
ORDER BY n.id
LIMIT 1
`, map[string]any{"tenant_id": tenantID, "case_id": caseID, "email": email, "phone": phone})
	if err != nil {
		return nil, s.wrap("find person", err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

func (s *Neo4jStore) DeleteNode(ctx context.Context, id string) error {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:Entity {id: $id})
WITH n, n.id AS id
DETACH DELETE n
RETURN count(id) AS deleted
`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if n, _ := rec.Get("deleted"); n == int64(0) {
			return nil, fmt.Errorf("node %s: %w", id, types.ErrNotFound)
		}
		return nil, nil
	})
	return s.wrap("delete node", err)
}

type incidentRel struct {
	elementID string
	id        string
	typ       types.EdgeType
	sourceID  string
	targetID  string
	tenantID  string
	caseID    string
}

// ReplaceEdgeEndpoints moves every relationship touching oldID onto newID in a
// single write transaction. Moves that would create a self-loop or duplicate
// an existing (source, type, target) key are deleted instead.
func (s *Neo4jStore) ReplaceEdgeEndpoints(ctx context.Context, oldID, newID string) error {
	if oldID == "" || newID == "" {
		return types.NewValidationError("id", "old and new IDs are required")
	}
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (o:Entity {id: $old})
MATCH (n:Entity {id: $new})
RETURN o.id AS old_id, n.id AS new_id
`, map[string]any{"old": oldID, "new": newID})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("repoint %s -> %s: %w", oldID, newID, types.ErrNotFound)
		}

		moving, err := incidentRels(ctx, tx, oldID)
		if err != nil {
			return nil, err
		}
		existing, err := incidentRels(ctx, tx, newID)
		if err != nil {
			return nil, err
		}
		keys := make(map[string]struct{}, len(existing))
		for _, r := range existing {
			if r.sourceID == oldID || r.targetID == oldID {
				continue
			}
			keys[edgeKey(r.sourceID, r.typ, r.targetID)] = struct{}{}
		}

		for _, r := range moving {
			src, tgt := r.sourceID, r.targetID
			if src == oldID {
				src = newID
			}
			if tgt == oldID {
				tgt = newID
			}
			key := edgeKey(src, r.typ, tgt)
			_, dup := keys[key]
			if src == tgt || dup || !r.typ.Valid() {
				if err := run(ctx, tx, `MATCH ()-[r]->() WHERE elementId(r) = $eid DELETE r`,
					map[string]any{"eid": r.elementID}); err != nil {
					return nil, err
				}
				continue
			}
			keys[key] = struct{}{}

			id := r.id
			if id == identity.DeriveEdge(r.tenantID, r.caseID, r.sourceID, string(r.typ), r.targetID) {
				id = identity.DeriveEdge(r.tenantID, r.caseID, src, string(r.typ), tgt)
			}
			if err := run(ctx, tx, fmt.Sprintf(`
MATCH (s:Entity {id: $source_id})
MATCH (t:Entity {id: $target_id})
MATCH ()-[r]->() WHERE elementId(r) = $eid
CREATE (s)-[nr:%s]->(t)
SET nr = properties(r),
    nr.id = $id,
    nr.source_id = $source_id,
    nr.target_id = $target_id
DELETE r
`, r.typ), map[string]any{
				"eid":       r.elementID,
				"id":        id,
				"source_id": src,
				"target_id": tgt,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return s.wrap("repoint edges", err)
}

func incidentRels(ctx context.Context, tx neo4j.ManagedTransaction, id string) ([]incidentRel, error) {
	res, err := tx.Run(ctx, `
MATCH (x:Entity {id: $id})-[r]-(:Entity)
RETURN DISTINCT elementId(r) AS eid,
       coalesce(r.id, elementId(r)) AS id,
       type(r) AS type,
       startNode(r).id AS source_id,
       endNode(r).id AS target_id,
       r.tenant_id AS tenant_id,
       r.case_id AS case_id
ORDER BY eid
`, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	recs, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]incidentRel, 0, len(recs))
	for _, rec := range recs {
		out = append(out, incidentRel{
			elementID: str(rec, "eid"),
			id:        str(rec, "id"),
			typ:       types.EdgeType(str(rec, "type")),
			sourceID:  str(rec, "source_id"),
			targetID:  str(rec, "target_id"),
			tenantID:  str(rec, "tenant_id"),
			caseID:    str(rec, "case_id"),
		})
	}
	return out, nil
}

func edgeKey(src string, typ types.EdgeType, tgt string) string {
	return src + "|" + string(typ) + "|" + tgt
}

func (s *Neo4jStore) readNodes(ctx context.Context, q string, params map[string]any) ([]*types.Node, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, q, params)
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		nodes := make([]*types.Node, 0, len(recs))
		for _, rec := range recs {
			raw, ok := rec.Get("n")
			if !ok {
				continue
			}
			nn, ok := raw.(neo4j.Node)
			if !ok {
				continue
			}
			n, err := nodeFromNeo4j(nn)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
		return nodes, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]*types.Node), nil
}

// wrap tags driver connectivity failures as ErrBackendUnavailable and leaves
// domain errors untouched.
func (s *Neo4jStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrBackendUnavailable):
		return err
	case neo4j.IsConnectivityError(err):
		return fmt.Errorf("neo4j %s: %w: %w", op, types.ErrBackendUnavailable, err)
	default:
		return fmt.Errorf("neo4j %s: %w", op, err)
	}
}

func run(ctx context.Context, tx neo4j.ManagedTransaction, q string, params map[string]any) error {
	res, err := tx.Run(ctx, q, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func str(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func summaries(nodes []*types.Node) []types.NodeSummary {
	out := make([]types.NodeSummary, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Summary())
	}
	return out
}

func withParam(params map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(params)+1)
	for pk, pv := range params {
		out[pk] = pv
	}
	out[k] = v
	return out
}
