package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestUpsertAttrsPerson(t *testing.T) {
	cur := PersonAttrs{Name: "Jane Doe", Emails: []string{"jane@example.com"}, Nationality: "DE"}
	in := PersonAttrs{Emails: []string{"jane@work.example", "jane@example.com"}, Phones: []string{"+15550001"}}

	got, err := UpsertAttrs(cur, in)
	if err != nil {
		t.Fatalf("UpsertAttrs: %v", err)
	}
	p := got.(PersonAttrs)
	if p.Name != "Jane Doe" || p.Nationality != "DE" {
		t.Fatalf("scalars overwritten by empties: %+v", p)
	}
	if len(p.Emails) != 2 || p.Emails[0] != "jane@example.com" || p.Emails[1] != "jane@work.example" {
		t.Fatalf("emails = %v", p.Emails)
	}
	if len(p.Phones) != 1 {
		t.Fatalf("phones = %v", p.Phones)
	}
	if len(cur.Emails) != 1 {
		t.Fatalf("existing attrs mutated: %v", cur.Emails)
	}
}

func TestUpsertAttrsNormalizesContacts(t *testing.T) {
	cur := PersonAttrs{Emails: []string{"Jane@X.com"}, Phones: []string{"+1 555 0001"}}
	in := PersonAttrs{Emails: []string{"jane@x.com "}, Phones: []string{"+1 (555) 0001"}}

	got, err := UpsertAttrs(cur, in)
	if err != nil {
		t.Fatalf("UpsertAttrs: %v", err)
	}
	p := got.(PersonAttrs)
	if len(p.Emails) != 1 || p.Emails[0] != "jane@x.com" {
		t.Fatalf("emails = %v", p.Emails)
	}
	if len(p.Phones) != 1 || p.Phones[0] != "+15550001" {
		t.Fatalf("phones = %v", p.Phones)
	}
}

func TestUpsertAttrsKindMismatch(t *testing.T) {
	_, err := UpsertAttrs(OrgAttrs{Name: "Acme"}, PersonAttrs{Name: "Jane"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMergeAttrsPrimaryWins(t *testing.T) {
	lat, lon := 52.5, 13.4
	primary := LocationAttrs{Name: "Berlin"}
	dup := LocationAttrs{Name: "Berlin, DE", Lat: &lat, Lon: &lon}

	got, err := MergeAttrs(primary, dup)
	if err != nil {
		t.Fatalf("MergeAttrs: %v", err)
	}
	loc := got.(LocationAttrs)
	if loc.Name != "Berlin" {
		t.Fatalf("primary name lost: %q", loc.Name)
	}
	if !loc.HasCoordinates() || *loc.Lat != lat {
		t.Fatalf("duplicate coordinates not kept: %+v", loc)
	}
}

func TestNodeJSONRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	n := Node{
		ID:         "event:abc",
		TenantID:   "t1",
		CaseID:     "c1",
		Kind:       KindEvent,
		Attrs:      EventAttrs{Name: "Meeting", OccurredAt: &at},
		Provenance: Provenance{Source: "crm", TransformChain: []string{}},
		Policy:     Policy{Clearance: []string{"ops"}},
		CreatedAt:  at,
	}
	raw, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		t.Fatalf("Unmarshal probe: %v", err)
	}
	if attrs, ok := probe["attributes"].(map[string]any); !ok || attrs["name"] != "Meeting" {
		t.Fatalf("attributes not nested: %s", raw)
	}

	var back Node
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	ev, ok := back.Attrs.(EventAttrs)
	if !ok || ev.OccurredAt == nil || !ev.OccurredAt.Equal(at) {
		t.Fatalf("attrs = %#v", back.Attrs)
	}
	if back.Policy.Clearance[0] != "ops" {
		t.Fatalf("policy = %+v", back.Policy)
	}
}

func TestNodeValidate(t *testing.T) {
	n := &Node{ID: "org:1", TenantID: "t", CaseID: "c", Kind: KindOrg, Attrs: PersonAttrs{}}
	if err := n.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("mismatched attrs: %v", err)
	}
	n.Attrs = OrgAttrs{Name: "Acme"}
	if err := n.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseKinds(t *testing.T) {
	got, err := ParseKinds([]string{"person, Org", "", "location"})
	if err != nil {
		t.Fatalf("ParseKinds: %v", err)
	}
	if len(got) != 3 || got[0] != KindPerson || got[1] != KindOrg || got[2] != KindLocation {
		t.Fatalf("kinds = %v", got)
	}
	if _, err := ParseKinds([]string{"vehicle"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown kind: %v", err)
	}
}

func TestSplitContacts(t *testing.T) {
	got := SplitContacts(" Jane@Example.com; jane@example.com,ops@example.com ", NormalizeEmail)
	if len(got) != 2 || got[0] != "jane@example.com" || got[1] != "ops@example.com" {
		t.Fatalf("emails = %v", got)
	}
	if p := NormalizePhone("+1 (555) 010-0001"); p != "+15550100001" {
		t.Fatalf("phone = %q", p)
	}
	if p := NormalizePhone("+"); p != "" {
		t.Fatalf("lone plus = %q", p)
	}
}

func TestPartialIngestionErrorUnwraps(t *testing.T) {
	err := &PartialIngestionError{Errors: []RowError{
		{Row: 2, Err: NewValidationError("email", "bad")},
	}}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("row errors not reachable through errors.Is")
	}
}
