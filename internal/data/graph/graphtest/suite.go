// Package graphtest holds the behavioural contract every graph.Store backend
// must satisfy. Backends call Run from their own tests.
package graphtest

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/casegraph-backend/internal/data/graph"
	"github.com/yungbote/casegraph-backend/internal/data/identity"
	types "github.com/yungbote/casegraph-backend/internal/domain"
)

// Factory returns a store for one subtest. Stores may be shared across
// subtests; each subtest works in its own random tenant.
type Factory func(t *testing.T) graph.Store

type scope struct {
	tenant string
	caseID string
}

func newScope() scope {
	return scope{tenant: "t-" + uuid.NewString(), caseID: "case-1"}
}

func (sc scope) person(name string, emails, phones []string) *types.Node {
	key := name
	if len(emails) > 0 {
		key = emails[0]
	}
	return &types.Node{
		ID:         identity.Derive(types.KindPerson.Prefix(), sc.tenant, sc.caseID, key),
		TenantID:   sc.tenant,
		CaseID:     sc.caseID,
		Kind:       types.KindPerson,
		Attrs:      types.PersonAttrs{Name: name, Emails: emails, Phones: phones},
		Provenance: types.Provenance{Source: "test"},
		Policy:     types.Policy{Sensitivity: "low"},
		CreatedBy:  "tester",
	}
}

func (sc scope) org(name string) *types.Node {
	return &types.Node{
		ID:         identity.Derive(types.KindOrg.Prefix(), sc.tenant, sc.caseID, name),
		TenantID:   sc.tenant,
		CaseID:     sc.caseID,
		Kind:       types.KindOrg,
		Attrs:      types.OrgAttrs{Name: name},
		Provenance: types.Provenance{Source: "test"},
		CreatedBy:  "tester",
	}
}

func (sc scope) location(name string) *types.Node {
	return &types.Node{
		ID:         identity.Derive(types.KindLocation.Prefix(), sc.tenant, sc.caseID, name),
		TenantID:   sc.tenant,
		CaseID:     sc.caseID,
		Kind:       types.KindLocation,
		Attrs:      types.LocationAttrs{Name: name},
		Provenance: types.Provenance{Source: "test"},
		CreatedBy:  "tester",
	}
}

func (sc scope) edge(src, tgt string, typ types.EdgeType) *types.Edge {
	return &types.Edge{
		TenantID:   sc.tenant,
		CaseID:     sc.caseID,
		SourceID:   src,
		TargetID:   tgt,
		Type:       typ,
		Provenance: types.Provenance{Source: "test"},
		CreatedBy:  "tester",
	}
}

// Run executes the full contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("UpsertNodeIdempotent", func(t *testing.T) { testUpsertNodeIdempotent(t, newStore(t)) })
	t.Run("PersonContactsUnion", func(t *testing.T) { testPersonContactsUnion(t, newStore(t)) })
	t.Run("PersonContactsNormalized", func(t *testing.T) { testPersonContactsNormalized(t, newStore(t)) })
	t.Run("ScopeImmutable", func(t *testing.T) { testScopeImmutable(t, newStore(t)) })
	t.Run("KindImmutable", func(t *testing.T) { testKindImmutable(t, newStore(t)) })
	t.Run("UpsertEdgeIdempotent", func(t *testing.T) { testUpsertEdgeIdempotent(t, newStore(t)) })
	t.Run("GetNodeByIDNotFound", func(t *testing.T) { testGetNodeNotFound(t, newStore(t)) })
	t.Run("SearchScoped", func(t *testing.T) { testSearchScoped(t, newStore(t)) })
	t.Run("NeighborsBounded", func(t *testing.T) { testNeighborsBounded(t, newStore(t)) })
	t.Run("NeighborsLabelFilter", func(t *testing.T) { testNeighborsLabelFilter(t, newStore(t)) })
	t.Run("NeighborsCycle", func(t *testing.T) { testNeighborsCycle(t, newStore(t)) })
	t.Run("GetNodesByKind", func(t *testing.T) { testGetNodesByKind(t, newStore(t)) })
	t.Run("FindPersonByContact", func(t *testing.T) { testFindPersonByContact(t, newStore(t)) })
	t.Run("DeleteNodeCascades", func(t *testing.T) { testDeleteCascades(t, newStore(t)) })
	t.Run("ReplaceEdgeEndpoints", func(t *testing.T) { testReplaceEdgeEndpoints(t, newStore(t)) })
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return c
}

func mustNode(t *testing.T, s graph.Store, n *types.Node) string {
	t.Helper()
	id, err := s.UpsertNode(ctx(t), n)
	if err != nil {
		t.Fatalf("UpsertNode(%s): %v", n.ID, err)
	}
	return id
}

func mustEdge(t *testing.T, s graph.Store, e *types.Edge) string {
	t.Helper()
	id, err := s.UpsertEdge(ctx(t), e)
	if err != nil {
		t.Fatalf("UpsertEdge(%s->%s): %v", e.SourceID, e.TargetID, err)
	}
	return id
}

func nodeIDs(nodes []*types.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	sort.Strings(out)
	return out
}

func sameIDs(got []string, want ...string) bool {
	sort.Strings(want)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func testUpsertNodeIdempotent(t *testing.T, s graph.Store) {
	sc := newScope()
	n := sc.org("Acme Corp")
	id1 := mustNode(t, s, n)
	id2 := mustNode(t, s, n)
	if id1 != id2 {
		t.Fatalf("ids differ: %s vs %s", id1, id2)
	}
	nodes, err := s.GetNodesByKind(ctx(t), types.KindOrg, sc.tenant, sc.caseID)
	if err != nil {
		t.Fatalf("GetNodesByKind: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 org, got %d", len(nodes))
	}

	// An empty incoming scalar leaves the stored value alone.
	blank := n.Clone()
	blank.Attrs = types.OrgAttrs{Domain: "acme.test"}
	mustNode(t, s, blank)
	got, err := s.GetNodeByID(ctx(t), id1)
	if err != nil {
		t.Fatalf("GetNodeByID: %v", err)
	}
	a := got.Attrs.(types.OrgAttrs)
	if a.Name != "Acme Corp" || a.Domain != "acme.test" {
		t.Fatalf("unexpected attrs after partial upsert: %+v", a)
	}
}

func testPersonContactsUnion(t *testing.T, s graph.Store) {
	sc := newScope()
	first := sc.person("Jane Doe", []string{"jane@example.com"}, []string{"+15550001"})
	mustNode(t, s, first)

	second := first.Clone()
	second.Attrs = types.PersonAttrs{Name: "Jane Doe", Emails: []string{"jane@work.example"}, Phones: []string{"+15550001"}}
	mustNode(t, s, second)

	got, err := s.GetNodeByID(ctx(t), first.ID)
	if err != nil {
		t.Fatalf("GetNodeByID: %v", err)
	}
	p := got.Attrs.(types.PersonAttrs)
	if !sameIDs(append([]string(nil), p.Emails...), "jane@example.com", "jane@work.example") {
		t.Fatalf("emails not unioned: %v", p.Emails)
	}
	if len(p.Phones) != 1 || p.Phones[0] != "+15550001" {
		t.Fatalf("phones: %v", p.Phones)
	}
}

func testPersonContactsNormalized(t *testing.T, s graph.Store) {
	sc := newScope()
	first := sc.person("Jane Doe", []string{"Jane@X.com"}, []string{"+1 555 0001"})
	mustNode(t, s, first)

	second := first.Clone()
	second.Attrs = types.PersonAttrs{Name: "Jane Doe", Emails: []string{" jane@x.com"}, Phones: []string{"+1 (555) 0001"}}
	mustNode(t, s, second)

	got, err := s.GetNodeByID(ctx(t), first.ID)
	if err != nil {
		t.Fatalf("GetNodeByID: %v", err)
	}
	p := got.Attrs.(types.PersonAttrs)
	if len(p.Emails) != 1 || p.Emails[0] != "jane@x.com" {
		t.Fatalf("emails = %v", p.Emails)
	}
	if len(p.Phones) != 1 || p.Phones[0] != "+15550001" {
		t.Fatalf("phones = %v", p.Phones)
	}
}

func testKindImmutable(t *testing.T, s graph.Store) {
	sc := newScope()
	p := sc.person("Jane Doe", []string{"jane@example.com"}, nil)
	mustNode(t, s, p)

	o := sc.org("Acme")
	o.ID = p.ID
	if _, err := s.UpsertNode(ctx(t), o); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	orgs, err := s.GetNodesByKind(ctx(t), types.KindOrg, sc.tenant, sc.caseID)
	if err != nil {
		t.Fatalf("GetNodesByKind: %v", err)
	}
	if len(orgs) != 0 {
		t.Fatalf("org written under a person's id: %v", orgs)
	}
	got, err := s.GetNodeByID(ctx(t), p.ID)
	if err != nil {
		t.Fatalf("GetNodeByID: %v", err)
	}
	if got.Kind != types.KindPerson {
		t.Fatalf("kind = %s", got.Kind)
	}
}

func testScopeImmutable(t *testing.T, s graph.Store) {
	sc := newScope()
	n := sc.org("Scoped Org")
	mustNode(t, s, n)

	moved := n.Clone()
	moved.CaseID = "case-other"
	_, err := s.UpsertNode(ctx(t), moved)
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func testUpsertEdgeIdempotent(t *testing.T, s graph.Store) {
	sc := newScope()
	p := sc.person("Jane Doe", []string{"jane@example.com"}, nil)
	o := sc.org("Acme")
	mustNode(t, s, p)
	mustNode(t, s, o)

	id1 := mustEdge(t, s, sc.edge(p.ID, o.ID, types.EdgeAffiliatedWith))
	id2 := mustEdge(t, s, sc.edge(p.ID, o.ID, types.EdgeAffiliatedWith))
	if id1 != id2 {
		t.Fatalf("edge ids differ: %s vs %s", id1, id2)
	}
	want := identity.DeriveEdge(sc.tenant, sc.caseID, p.ID, string(types.EdgeAffiliatedWith), o.ID)
	if id1 != want {
		t.Fatalf("edge id = %s, want %s", id1, want)
	}
	sg, err := s.Neighbors(ctx(t), p.ID, 1, nil)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(sg.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(sg.Edges))
	}
}

func testGetNodeNotFound(t *testing.T, s graph.Store) {
	_, err := s.GetNodeByID(ctx(t), "person:"+uuid.NewString())
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testSearchScoped(t *testing.T, s graph.Store) {
	sc := newScope()
	other := scope{tenant: sc.tenant, caseID: "case-2"}
	mustNode(t, s, sc.person("Jane Doe", []string{"jane@example.com"}, nil))
	mustNode(t, s, sc.person("John Roe", []string{"john@example.com"}, nil))
	mustNode(t, s, other.person("Jane Doe", []string{"jane@example.com"}, nil))

	got, err := s.SearchNodes(ctx(t), "jane", sc.tenant, sc.caseID, 10)
	if err != nil {
		t.Fatalf("SearchNodes: %v", err)
	}
	if len(got) != 1 || got[0].Label != "Jane Doe" || got[0].Kind != types.KindPerson {
		t.Fatalf("unexpected search results: %+v", got)
	}
	if got[0].CaseID != sc.caseID {
		t.Fatalf("result leaked from case %s", got[0].CaseID)
	}

	limited, err := s.SearchNodes(ctx(t), "", sc.tenant, sc.caseID, 1)
	if err != nil {
		t.Fatalf("SearchNodes empty query: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d results", len(limited))
	}
}

// chain builds a - b - c - d of orgs and returns their IDs.
func chain(t *testing.T, s graph.Store, sc scope) []string {
	names := []string{"A", "B", "C", "D"}
	ids := make([]string, len(names))
	for i, n := range names {
		ids[i] = mustNode(t, s, sc.org("Org "+n))
	}
	for i := 0; i+1 < len(ids); i++ {
		mustEdge(t, s, sc.edge(ids[i], ids[i+1], types.EdgeAffiliatedWith))
	}
	return ids
}

func testNeighborsBounded(t *testing.T, s graph.Store) {
	sc := newScope()
	ids := chain(t, s, sc)

	sg, err := s.Neighbors(ctx(t), ids[0], 2, nil)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if !sameIDs(nodeIDs(sg.Nodes), ids[0], ids[1], ids[2]) {
		t.Fatalf("2 hops from A: %v", nodeIDs(sg.Nodes))
	}
	if len(sg.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(sg.Edges))
	}

	sg, err = s.Neighbors(ctx(t), ids[1], 1, nil)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if !sameIDs(nodeIDs(sg.Nodes), ids[0], ids[1], ids[2]) {
		t.Fatalf("1 hop from B traverses both directions: %v", nodeIDs(sg.Nodes))
	}

	sg, err = s.Neighbors(ctx(t), ids[0], 0, nil)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if !sameIDs(nodeIDs(sg.Nodes), ids[0], ids[1], ids[2]) {
		t.Fatalf("0 hops should use the default of %d: %v", graph.DefaultMaxHops, nodeIDs(sg.Nodes))
	}

	if _, err := s.Neighbors(ctx(t), "org:"+uuid.NewString(), 1, nil); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing seed, got %v", err)
	}
}

func testNeighborsLabelFilter(t *testing.T, s graph.Store) {
	sc := newScope()
	p := sc.person("Jane Doe", []string{"jane@example.com"}, nil)
	o := sc.org("Acme")
	l := sc.location("Berlin")
	mustNode(t, s, p)
	mustNode(t, s, o)
	mustNode(t, s, l)
	mustEdge(t, s, sc.edge(p.ID, o.ID, types.EdgeAffiliatedWith))
	mustEdge(t, s, sc.edge(p.ID, l.ID, types.EdgePresentAt))

	sg, err := s.Neighbors(ctx(t), p.ID, 2, []types.Kind{types.KindOrg})
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if !sameIDs(nodeIDs(sg.Nodes), p.ID, o.ID) {
		t.Fatalf("label filter not applied: %v", nodeIDs(sg.Nodes))
	}
	for _, e := range sg.Edges {
		if e.Type != types.EdgeAffiliatedWith {
			t.Fatalf("edge to filtered node returned: %+v", e)
		}
	}
}

func testNeighborsCycle(t *testing.T, s graph.Store) {
	sc := newScope()
	ids := chain(t, s, sc)
	mustEdge(t, s, sc.edge(ids[3], ids[0], types.EdgeAffiliatedWith))

	sg, err := s.Neighbors(ctx(t), ids[0], 4, nil)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(sg.Nodes) != 4 {
		t.Fatalf("expected each node once, got %v", nodeIDs(sg.Nodes))
	}
	if len(sg.Edges) != 4 {
		t.Fatalf("expected each edge once, got %d", len(sg.Edges))
	}
}

func testGetNodesByKind(t *testing.T, s graph.Store) {
	sc := newScope()
	a := mustNode(t, s, sc.org("Alpha"))
	b := mustNode(t, s, sc.org("Beta"))
	mustNode(t, s, sc.location("Paris"))

	nodes, err := s.GetNodesByKind(ctx(t), types.KindOrg, sc.tenant, sc.caseID)
	if err != nil {
		t.Fatalf("GetNodesByKind: %v", err)
	}
	if !sameIDs(nodeIDs(nodes), a, b) {
		t.Fatalf("unexpected orgs: %v", nodeIDs(nodes))
	}

	empty, err := s.GetNodesByKind(ctx(t), types.KindEvent, sc.tenant, sc.caseID)
	if err != nil {
		t.Fatalf("GetNodesByKind: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", empty)
	}

	if _, err := s.GetNodesByKind(ctx(t), types.Kind("Vehicle"), sc.tenant, sc.caseID); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
}

func testFindPersonByContact(t *testing.T, s graph.Store) {
	sc := newScope()
	p := sc.person("Jane Doe", []string{"jane@example.com"}, []string{"+15550001"})
	mustNode(t, s, p)

	got, err := s.FindPersonByContact(ctx(t), types.Contact{Email: "  JANE@example.com "}, sc.tenant, sc.caseID)
	if err != nil {
		t.Fatalf("FindPersonByContact: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Fatalf("email lookup: got %+v", got)
	}

	got, err = s.FindPersonByContact(ctx(t), types.Contact{Phone: "+1 (555) 0001"}, sc.tenant, sc.caseID)
	if err != nil {
		t.Fatalf("FindPersonByContact: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Fatalf("phone lookup: got %+v", got)
	}

	got, err = s.FindPersonByContact(ctx(t), types.Contact{Email: "jane@example.com"}, sc.tenant, "case-2")
	if err != nil {
		t.Fatalf("FindPersonByContact: %v", err)
	}
	if got != nil {
		t.Fatalf("lookup crossed case boundary: %+v", got)
	}

	if _, err := s.FindPersonByContact(ctx(t), types.Contact{}, sc.tenant, sc.caseID); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func testDeleteCascades(t *testing.T, s graph.Store) {
	sc := newScope()
	ids := chain(t, s, sc)

	if err := s.DeleteNode(ctx(t), ids[1]); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if _, err := s.GetNodeByID(ctx(t), ids[1]); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("deleted node still readable: %v", err)
	}
	sg, err := s.Neighbors(ctx(t), ids[0], 3, nil)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(sg.Nodes) != 1 || len(sg.Edges) != 0 {
		t.Fatalf("incident edges survived delete: nodes=%v edges=%d", nodeIDs(sg.Nodes), len(sg.Edges))
	}
	if err := s.DeleteNode(ctx(t), ids[1]); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func testReplaceEdgeEndpoints(t *testing.T, s graph.Store) {
	rp := s.Capabilities().Repointer
	if rp == nil {
		t.Skip("backend does not repoint edges")
	}
	sc := newScope()
	primary := sc.person("Jane Doe", []string{"jane@example.com"}, nil)
	dup := sc.person("J. Doe", []string{"jdoe@example.com"}, nil)
	acme := sc.org("Acme")
	berlin := sc.location("Berlin")
	for _, n := range []*types.Node{primary, dup, acme, berlin} {
		mustNode(t, s, n)
	}
	mustEdge(t, s, sc.edge(primary.ID, acme.ID, types.EdgeAffiliatedWith))
	mustEdge(t, s, sc.edge(dup.ID, acme.ID, types.EdgeAffiliatedWith))
	mustEdge(t, s, sc.edge(dup.ID, berlin.ID, types.EdgePresentAt))
	mustEdge(t, s, sc.edge(dup.ID, primary.ID, types.EdgeMentions))

	if err := rp.ReplaceEdgeEndpoints(ctx(t), dup.ID, primary.ID); err != nil {
		t.Fatalf("ReplaceEdgeEndpoints: %v", err)
	}

	sg, err := s.Neighbors(ctx(t), dup.ID, 1, nil)
	if err != nil {
		t.Fatalf("Neighbors(dup): %v", err)
	}
	if len(sg.Edges) != 0 {
		t.Fatalf("duplicate still has %d edges", len(sg.Edges))
	}

	sg, err = s.Neighbors(ctx(t), primary.ID, 1, nil)
	if err != nil {
		t.Fatalf("Neighbors(primary): %v", err)
	}
	if !sameIDs(nodeIDs(sg.Nodes), primary.ID, acme.ID, berlin.ID) {
		t.Fatalf("primary neighbours: %v", nodeIDs(sg.Nodes))
	}
	if len(sg.Edges) != 2 {
		t.Fatalf("expected collapsed AFFILIATED_WITH and moved PRESENT_AT, got %d edges", len(sg.Edges))
	}
	wantPresent := identity.DeriveEdge(sc.tenant, sc.caseID, primary.ID, string(types.EdgePresentAt), berlin.ID)
	found := false
	for _, e := range sg.Edges {
		if e.SourceID == e.TargetID {
			t.Fatalf("self-loop created: %+v", e)
		}
		if e.ID == wantPresent && e.SourceID == primary.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("moved edge not re-keyed onto primary")
	}
}
