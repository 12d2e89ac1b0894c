package services

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/casegraph-backend/internal/data/identity"
	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

func TestSearchEntitiesClearance(t *testing.T) {
	store := newStore()
	put(t, store, person("Top Secret Tom", "tom@x.com", "TS"), person("Open Olga", "olga@x.com"))
	svc := NewQueryService(store, logger.NewNop(), QueryConfig{})
	ctx := context.Background()

	low := types.Principal{UserID: "u1", TenantID: tenant, Clearances: []string{"S"}}
	got, err := svc.SearchEntities(ctx, "", tenant, caseID, 0, low)
	if err != nil {
		t.Fatalf("SearchEntities: %v", err)
	}
	if len(got) != 1 || got[0].Label != "Open Olga" {
		t.Fatalf("S clearance results = %+v", got)
	}

	high := types.Principal{UserID: "u2", TenantID: tenant, Clearances: []string{"TS", "S"}}
	got, err = svc.SearchEntities(ctx, "", tenant, caseID, 0, high)
	if err != nil {
		t.Fatalf("SearchEntities: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("TS clearance results = %+v", got)
	}

	other := types.Principal{UserID: "u3", TenantID: "t2", Clearances: []string{"TS"}}
	got, err = svc.SearchEntities(ctx, "", tenant, caseID, 0, other)
	if err != nil || len(got) != 0 {
		t.Fatalf("cross-tenant search = %+v %v", got, err)
	}
}

func TestSearchEntitiesLimitCapped(t *testing.T) {
	store := newStore()
	for _, n := range []string{"a", "b", "c", "d"} {
		put(t, store, org("Org "+n))
	}
	svc := NewQueryService(store, logger.NewNop(), QueryConfig{SearchLimitDefault: 2, SearchLimitMax: 3})
	p := types.Principal{TenantID: tenant}

	got, _ := svc.SearchEntities(context.Background(), "org", tenant, caseID, 0, p)
	if len(got) != 2 {
		t.Fatalf("default limit: %d", len(got))
	}
	got, _ = svc.SearchEntities(context.Background(), "org", tenant, caseID, 50, p)
	if len(got) != 3 {
		t.Fatalf("capped limit: %d", len(got))
	}
}

func TestNeighborsGraphProjections(t *testing.T) {
	store := newStore()
	jane := person("Jane Doe", "jane@x.com")
	acme := org("Acme", "TS")
	lat, lon := 52.52, 13.40
	berlin := &types.Node{
		ID: identity.Derive("location", tenant, caseID, "Berlin"), TenantID: tenant, CaseID: caseID,
		Kind: types.KindLocation, Attrs: types.LocationAttrs{Name: "Berlin", Lat: &lat, Lon: &lon},
	}
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)
	ev1 := &types.Node{
		ID: "event:b", TenantID: tenant, CaseID: caseID, Kind: types.KindEvent,
		Attrs: types.EventAttrs{Name: "Later", OccurredAt: &late},
	}
	ev2 := &types.Node{
		ID: "event:a", TenantID: tenant, CaseID: caseID, Kind: types.KindEvent,
		Attrs: types.EventAttrs{Name: "Earlier", OccurredAt: &early},
	}
	ev3 := &types.Node{
		ID: "event:c", TenantID: tenant, CaseID: caseID, Kind: types.KindEvent,
		Attrs: types.EventAttrs{Name: "Undated"},
	}
	put(t, store, jane, acme, berlin, ev1, ev2, ev3)
	link(t, store, jane.ID, acme.ID, types.EdgeAffiliatedWith)
	link(t, store, jane.ID, ev1.ID, types.EdgePresentAt)
	link(t, store, jane.ID, ev2.ID, types.EdgePresentAt)
	link(t, store, jane.ID, ev3.ID, types.EdgePresentAt)
	link(t, store, ev1.ID, berlin.ID, types.EdgeOccurredAt)

	svc := NewQueryService(store, logger.NewNop(), QueryConfig{})
	p := types.Principal{UserID: "u1", TenantID: tenant, Clearances: []string{"S"}}
	tp, err := svc.NeighborsGraph(context.Background(), jane.ID, 2, nil, p)
	if err != nil {
		t.Fatalf("NeighborsGraph: %v", err)
	}
	for _, n := range tp.Graph.Nodes {
		if n.ID == acme.ID {
			t.Fatalf("restricted org leaked into graph")
		}
	}
	for _, e := range tp.Graph.Edges {
		if e.TargetID == acme.ID {
			t.Fatalf("edge to restricted org leaked")
		}
	}
	if len(tp.Graph.Nodes) != 5 || len(tp.Graph.Edges) != 4 {
		t.Fatalf("graph = %d nodes %d edges", len(tp.Graph.Nodes), len(tp.Graph.Edges))
	}
	if len(tp.Timeline) != 3 || tp.Timeline[0].ID != "event:a" || tp.Timeline[1].ID != "event:b" || tp.Timeline[2].ID != "event:c" {
		t.Fatalf("timeline order wrong: %v", ids(tp.Timeline))
	}
	if len(tp.Map) != 1 || tp.Map[0].ID != berlin.ID {
		t.Fatalf("map = %v", ids(tp.Map))
	}
}

func TestNeighborsGraphEmptyWhenSeedHidden(t *testing.T) {
	store := newStore()
	secret := person("Secret Sam", "sam@x.com", "TS")
	put(t, store, secret)
	svc := NewQueryService(store, logger.NewNop(), QueryConfig{})
	p := types.Principal{TenantID: tenant, Clearances: []string{"S"}}

	for _, id := range []string{secret.ID, "person:missing"} {
		tp, err := svc.NeighborsGraph(context.Background(), id, 2, nil, p)
		if err != nil {
			t.Fatalf("NeighborsGraph(%s): %v", id, err)
		}
		if len(tp.Graph.Nodes) != 0 || len(tp.Timeline) != 0 || len(tp.Map) != 0 || tp.Graph.Edges == nil {
			t.Fatalf("expected empty projections for %s: %+v", id, tp)
		}
	}
}

func TestNeighborsGraphFiltersAfterTraversal(t *testing.T) {
	store := newStore()
	a := org("Org A")
	hidden := org("Org Hidden", "TS")
	c := org("Org C")
	put(t, store, a, hidden, c)
	link(t, store, a.ID, hidden.ID, types.EdgeAffiliatedWith)
	link(t, store, hidden.ID, c.ID, types.EdgeAffiliatedWith)
	svc := NewQueryService(store, logger.NewNop(), QueryConfig{})

	tp, err := svc.NeighborsGraph(context.Background(), a.ID, 2, nil, types.Principal{TenantID: tenant, Clearances: []string{"S"}})
	if err != nil {
		t.Fatalf("NeighborsGraph: %v", err)
	}
	ids := map[string]bool{}
	for _, n := range tp.Graph.Nodes {
		ids[n.ID] = true
	}
	if len(ids) != 2 || !ids[a.ID] || !ids[c.ID] {
		t.Fatalf("nodes = %v", ids)
	}
	if len(tp.Graph.Edges) != 0 {
		t.Fatalf("edges touching a hidden node leaked: %+v", tp.Graph.Edges)
	}
}

func TestGetEntityHidesInvisible(t *testing.T) {
	store := newStore()
	secret := person("Secret Sam", "sam@x.com", "TS")
	put(t, store, secret)
	svc := NewQueryService(store, logger.NewNop(), QueryConfig{})

	if _, err := svc.GetEntity(context.Background(), secret.ID, types.Principal{TenantID: tenant}); !isNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	n, err := svc.GetEntity(context.Background(), secret.ID, types.Principal{TenantID: tenant, Clearances: []string{"TS"}})
	if err != nil || n.ID != secret.ID {
		t.Fatalf("GetEntity: %v %v", n, err)
	}
}

func ids(nodes []*types.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}
