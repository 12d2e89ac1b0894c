package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

func TestHopQueueFIFO(t *testing.T) {
	var q hopQueue
	for i := 0; i < 3; i++ {
		q.Push(hopItem{id: string(rune('a' + i)), hops: i})
	}
	for i := 0; i < 3; i++ {
		it, ok := q.Pop()
		if !ok || it.hops != i {
			t.Fatalf("pop %d: got %+v ok=%v", i, it, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("pop on empty queue succeeded")
	}
	if q.Len() != 0 {
		t.Fatalf("len = %d", q.Len())
	}
}

func TestClampDefaults(t *testing.T) {
	if clampHops(0) != DefaultMaxHops || clampHops(-1) != DefaultMaxHops || clampHops(3) != 3 {
		t.Fatalf("clampHops")
	}
	if clampLimit(-1) != DefaultSearchLimit || clampLimit(7) != 7 {
		t.Fatalf("clampLimit")
	}
}

func TestMemoryStoreStampsCreatedAt(t *testing.T) {
	s := NewMemoryStore(logger.NewNop())
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n := &types.Node{
		ID: "org:1", TenantID: "t1", CaseID: "c1", Kind: types.KindOrg,
		Attrs: types.OrgAttrs{Name: "Acme"},
	}
	if _, err := s.UpsertNode(context.Background(), n); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	got, err := s.GetNodeByID(context.Background(), "org:1")
	if err != nil {
		t.Fatalf("GetNodeByID: %v", err)
	}
	if !got.CreatedAt.Equal(fixed) {
		t.Fatalf("created_at = %v", got.CreatedAt)
	}

	// Returned nodes are copies.
	got.Attrs = types.OrgAttrs{Name: "Mutated"}
	again, _ := s.GetNodeByID(context.Background(), "org:1")
	if again.Label() != "Acme" {
		t.Fatalf("store aliased caller memory: %q", again.Label())
	}
}

func TestMemoryStoreKindMismatch(t *testing.T) {
	s := NewMemoryStore(logger.NewNop())
	n := &types.Node{
		ID: "org:1", TenantID: "t1", CaseID: "c1", Kind: types.KindOrg,
		Attrs: types.PersonAttrs{Name: "Jane"},
	}
	if _, err := s.UpsertNode(context.Background(), n); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNodeParamsSkipsEmptyScalars(t *testing.T) {
	n := &types.Node{
		ID: "person:1", TenantID: "t1", CaseID: "c1", Kind: types.KindPerson,
		Attrs: types.PersonAttrs{
			Emails: []string{" Jane@Example.com", "jane@example.com"},
			Phones: []string{"+1 555 0001"},
		},
		Policy: types.Policy{Clearance: []string{"b", "a"}},
	}
	params, err := nodeParams(n)
	if err != nil {
		t.Fatalf("nodeParams: %v", err)
	}
	props := params["props"].(map[string]any)
	if _, ok := props["name"]; ok {
		t.Fatalf("empty name should not be written: %v", props)
	}
	emails := params["emails"].([]string)
	if len(emails) != 1 || emails[0] != "jane@example.com" {
		t.Fatalf("emails = %v", emails)
	}
	if phones := params["phones"].([]string); len(phones) != 1 || phones[0] != "+15550001" {
		t.Fatalf("phones = %v", phones)
	}
	if params["policy_json"] != `{"clearance":["a","b"],"legalBasis":[],"needToKnow":[]}` {
		t.Fatalf("policy_json = %v", params["policy_json"])
	}
}

func TestNodeFromNeo4jRoundTrip(t *testing.T) {
	lat := 52.52
	raw := neo4j.Node{Props: map[string]any{
		"id":              "location:1",
		"tenant_id":       "t1",
		"case_id":         "c1",
		"kind":            "Location",
		"name":            "Berlin",
		"lat":             lat,
		"created_at":      "2024-03-01T12:00:00Z",
		"provenance_json": `{"source":"crm","transformChain":["ingest"]}`,
		"policy_json":     `{"sensitivity":"low","clearance":["x"]}`,
	}}
	n, err := nodeFromNeo4j(raw)
	if err != nil {
		t.Fatalf("nodeFromNeo4j: %v", err)
	}
	loc := n.Attrs.(types.LocationAttrs)
	if loc.Name != "Berlin" || loc.Lat == nil || *loc.Lat != lat || loc.Lon != nil {
		t.Fatalf("attrs = %+v", loc)
	}
	if n.Provenance.Source != "crm" || len(n.Provenance.TransformChain) != 1 {
		t.Fatalf("provenance = %+v", n.Provenance)
	}
	if n.Policy.Sensitivity != "low" || len(n.Policy.Clearance) != 1 {
		t.Fatalf("policy = %+v", n.Policy)
	}
	if n.CreatedAt.IsZero() {
		t.Fatalf("created_at not parsed")
	}
}

func TestEdgeFromNeo4jFallsBackToRelationshipType(t *testing.T) {
	rel := neo4j.Relationship{ElementId: "5:abc:1", Type: "MENTIONS", Props: map[string]any{
		"source_id": "document:1",
		"target_id": "person:1",
	}}
	e, err := edgeFromNeo4j(rel)
	if err != nil {
		t.Fatalf("edgeFromNeo4j: %v", err)
	}
	if e.ID != "5:abc:1" || e.Type != types.EdgeMentions {
		t.Fatalf("edge = %+v", e)
	}
}

func TestLuceneQueryEscapes(t *testing.T) {
	got := luceneQuery(`jane "doe" (x)`)
	want := `*jane* AND *\"doe\"* AND *\(x\)*`
	if got != want {
		t.Fatalf("luceneQuery = %s, want %s", got, want)
	}
}
