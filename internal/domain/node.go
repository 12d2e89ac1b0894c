package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Node struct {
	ID         string
	TenantID   string
	CaseID     string
	Kind       Kind
	Attrs      Attrs
	Provenance Provenance
	Policy     Policy
	CreatedBy  string
	CreatedAt  time.Time
}

func (n *Node) Label() string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs.Label()
}

func (n *Node) SameScope(tenantID, caseID string) bool {
	return n != nil && n.TenantID == tenantID && n.CaseID == caseID
}

func (n *Node) Summary() NodeSummary {
	return NodeSummary{
		ID:       n.ID,
		Kind:     n.Kind,
		Label:    n.Label(),
		TenantID: n.TenantID,
		CaseID:   n.CaseID,
		Policy:   n.Policy.Clone(),
	}
}

// Validate checks the structural invariants every backend relies on.
func (n *Node) Validate() error {
	if n == nil {
		return NewValidationError("node", "nil node")
	}
	if n.ID == "" {
		return NewValidationError("id", "required")
	}
	if n.TenantID == "" {
		return NewValidationError("tenantId", "required")
	}
	if n.CaseID == "" {
		return NewValidationError("caseId", "required")
	}
	if !n.Kind.Valid() {
		return NewValidationError("kind", fmt.Sprintf("unknown kind %q", n.Kind))
	}
	if n.Attrs == nil {
		return NewValidationError("attributes", "required")
	}
	if n.Attrs.Kind() != n.Kind {
		return NewValidationError("attributes", fmt.Sprintf("%s attributes on %s node", n.Attrs.Kind(), n.Kind))
	}
	return nil
}

func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Attrs = CloneAttrs(n.Attrs)
	out.Provenance = n.Provenance.Clone()
	out.Policy = n.Policy.Clone()
	return &out
}

type nodeJSON struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenantId"`
	CaseID     string          `json:"caseId"`
	Kind       Kind            `json:"kind"`
	Attributes json.RawMessage `json:"attributes"`
	Provenance Provenance      `json:"provenance"`
	Policy     Policy          `json:"policy"`
	CreatedBy  string          `json:"createdBy,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	attrs, err := json.Marshal(n.Attrs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(nodeJSON{
		ID:         n.ID,
		TenantID:   n.TenantID,
		CaseID:     n.CaseID,
		Kind:       n.Kind,
		Attributes: attrs,
		Provenance: n.Provenance,
		Policy:     n.Policy,
		CreatedBy:  n.CreatedBy,
		CreatedAt:  n.CreatedAt,
	})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	attrs, err := DecodeAttrs(raw.Kind, raw.Attributes)
	if err != nil {
		return err
	}
	*n = Node{
		ID:         raw.ID,
		TenantID:   raw.TenantID,
		CaseID:     raw.CaseID,
		Kind:       raw.Kind,
		Attrs:      attrs,
		Provenance: raw.Provenance,
		Policy:     raw.Policy,
		CreatedBy:  raw.CreatedBy,
		CreatedAt:  raw.CreatedAt,
	}
	return nil
}

// NodeSummary is the lightweight search projection.
type NodeSummary struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Label    string `json:"label"`
	TenantID string `json:"-"`
	CaseID   string `json:"-"`
	Policy   Policy `json:"-"`
}

// Contact selects a Person by email or phone; exactly one should be set.
type Contact struct {
	Email string
	Phone string
}

// Subgraph is the result of a bounded traversal.
type Subgraph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}
