package graph

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/casegraph-backend/internal/domain"
)

// nodeParams flattens a node into Cypher parameters. Scalars that are empty
// are left out of "props" so an upsert never blanks an existing value.
func nodeParams(n *types.Node) (map[string]any, error) {
	prov, err := json.Marshal(n.Provenance)
	if err != nil {
		return nil, fmt.Errorf("encode provenance: %w", err)
	}
	pol, err := json.Marshal(n.Policy.Normalized())
	if err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	props := map[string]any{}
	setIf := func(k, v string) {
		if v != "" {
			props[k] = v
		}
	}
	emails, phones := []string{}, []string{}
	switch a := n.Attrs.(type) {
	case types.PersonAttrs:
		setIf("name", a.Name)
		setIf("label", a.Name)
		setIf("nationality", a.Nationality)
		emails = types.NormalizeContacts(a.Emails, types.NormalizeEmail)
		phones = types.NormalizeContacts(a.Phones, types.NormalizePhone)
	case types.OrgAttrs:
		setIf("name", a.Name)
		setIf("label", a.Name)
		setIf("domain", a.Domain)
	case types.LocationAttrs:
		setIf("name", a.Name)
		setIf("label", a.Name)
		if a.Lat != nil {
			props["lat"] = *a.Lat
		}
		if a.Lon != nil {
			props["lon"] = *a.Lon
		}
	case types.EventAttrs:
		setIf("name", a.Name)
		setIf("label", a.Name)
		if a.OccurredAt != nil {
			props["occurred_at"] = a.OccurredAt.UTC().Format(time.RFC3339Nano)
		}
	case types.DocumentAttrs:
		setIf("title", a.Title)
		setIf("label", a.Title)
		setIf("url", a.URL)
		setIf("hash", a.Hash)
	default:
		return nil, types.NewValidationError("attributes", fmt.Sprintf("unknown attributes %T", n.Attrs))
	}

	return map[string]any{
		"id":              n.ID,
		"tenant_id":       n.TenantID,
		"case_id":         n.CaseID,
		"kind":            string(n.Kind),
		"created_by":      n.CreatedBy,
		"created_at":      createdAt.UTC().Format(time.RFC3339Nano),
		"provenance_json": string(prov),
		"policy_json":     string(pol),
		"props":           props,
		"emails":          emails,
		"phones":          phones,
	}, nil
}

func edgeParams(e *types.Edge, id string) (map[string]any, error) {
	prov, err := json.Marshal(e.Provenance)
	if err != nil {
		return nil, fmt.Errorf("encode provenance: %w", err)
	}
	pol, err := json.Marshal(e.Policy.Normalized())
	if err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return map[string]any{
		"id":              id,
		"tenant_id":       e.TenantID,
		"case_id":         e.CaseID,
		"source_id":       e.SourceID,
		"target_id":       e.TargetID,
		"type":            string(e.Type),
		"role":            e.Role,
		"created_by":      e.CreatedBy,
		"created_at":      createdAt.UTC().Format(time.RFC3339Nano),
		"provenance_json": string(prov),
		"policy_json":     string(pol),
	}, nil
}

func nodeFromNeo4j(raw neo4j.Node) (*types.Node, error) {
	p := raw.Props
	kind, err := types.ParseKind(propString(p, "kind"))
	if err != nil {
		return nil, err
	}
	n := &types.Node{
		ID:        propString(p, "id"),
		TenantID:  propString(p, "tenant_id"),
		CaseID:    propString(p, "case_id"),
		Kind:      kind,
		CreatedBy: propString(p, "created_by"),
		CreatedAt: propTime(p, "created_at"),
	}
	switch kind {
	case types.KindPerson:
		n.Attrs = types.PersonAttrs{
			Name:        propString(p, "name"),
			Emails:      types.NormalizeContacts(propStrings(p, "emails"), types.NormalizeEmail),
			Phones:      types.NormalizeContacts(propStrings(p, "phones"), types.NormalizePhone),
			Nationality: propString(p, "nationality"),
		}
	case types.KindOrg:
		n.Attrs = types.OrgAttrs{Name: propString(p, "name"), Domain: propString(p, "domain")}
	case types.KindLocation:
		n.Attrs = types.LocationAttrs{Name: propString(p, "name"), Lat: propFloat(p, "lat"), Lon: propFloat(p, "lon")}
	case types.KindEvent:
		a := types.EventAttrs{Name: propString(p, "name")}
		if t := propTime(p, "occurred_at"); !t.IsZero() {
			a.OccurredAt = &t
		}
		n.Attrs = a
	case types.KindDocument:
		n.Attrs = types.DocumentAttrs{Title: propString(p, "title"), URL: propString(p, "url"), Hash: propString(p, "hash")}
	}
	if err := decodeJSONProp(p, "provenance_json", &n.Provenance); err != nil {
		return nil, err
	}
	if err := decodeJSONProp(p, "policy_json", &n.Policy); err != nil {
		return nil, err
	}
	n.Provenance = n.Provenance.Clone()
	n.Policy = n.Policy.Normalized()
	return n, nil
}

func edgeFromNeo4j(raw neo4j.Relationship) (*types.Edge, error) {
	p := raw.Props
	e := &types.Edge{
		ID:        propString(p, "id"),
		TenantID:  propString(p, "tenant_id"),
		CaseID:    propString(p, "case_id"),
		SourceID:  propString(p, "source_id"),
		TargetID:  propString(p, "target_id"),
		Type:      types.EdgeType(propString(p, "type")),
		Role:      propString(p, "role"),
		CreatedBy: propString(p, "created_by"),
		CreatedAt: propTime(p, "created_at"),
	}
	if e.ID == "" {
		e.ID = raw.ElementId
	}
	if e.Type == "" {
		e.Type = types.EdgeType(raw.Type)
	}
	if err := decodeJSONProp(p, "provenance_json", &e.Provenance); err != nil {
		return nil, err
	}
	if err := decodeJSONProp(p, "policy_json", &e.Policy); err != nil {
		return nil, err
	}
	e.Provenance = e.Provenance.Clone()
	e.Policy = e.Policy.Normalized()
	return e, nil
}

func propString(p map[string]any, key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func propStrings(p map[string]any, key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func propFloat(p map[string]any, key string) *float64 {
	var f float64
	switch v := p[key].(type) {
	case float64:
		f = v
	case int64:
		f = float64(v)
	default:
		return nil
	}
	return &f
}

func propTime(p map[string]any, key string) time.Time {
	switch v := p[key].(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}
		}
		return t.UTC()
	case time.Time:
		return v.UTC()
	default:
		return time.Time{}
	}
}

func decodeJSONProp(p map[string]any, key string, dst any) error {
	raw := propString(p, key)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// luceneQuery turns free text into a full-text query that matches every term
// as a substring, escaping Lucene syntax characters.
func luceneQuery(q string) string {
	terms := strings.Fields(q)
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, "*"+escapeLucene(t)+"*")
	}
	return strings.Join(parts, " AND ")
}

func escapeLucene(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`+-!(){}[]^"~*?:\/&|`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
