package domain

import (
	"fmt"
	"regexp"
	"time"
)

type EdgeType string

const (
	EdgeAffiliatedWith EdgeType = "AFFILIATED_WITH"
	EdgePresentAt      EdgeType = "PRESENT_AT"
	EdgeOccurredAt     EdgeType = "OCCURRED_AT"
	EdgeMentions       EdgeType = "MENTIONS"
)

var edgeTypePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,63}$`)

// Valid reports whether t is safe to use as a relationship type.
func (t EdgeType) Valid() bool { return edgeTypePattern.MatchString(string(t)) }

type Edge struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenantId"`
	CaseID     string     `json:"caseId"`
	SourceID   string     `json:"sourceId"`
	TargetID   string     `json:"targetId"`
	Type       EdgeType   `json:"type"`
	Provenance Provenance `json:"provenance"`
	Policy     Policy     `json:"policy"`
	CreatedBy  string     `json:"createdBy,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	Role       string     `json:"role,omitempty"`
}

func (e *Edge) Validate() error {
	if e == nil {
		return NewValidationError("edge", "nil edge")
	}
	if e.TenantID == "" {
		return NewValidationError("tenantId", "required")
	}
	if e.CaseID == "" {
		return NewValidationError("caseId", "required")
	}
	if e.SourceID == "" {
		return NewValidationError("sourceId", "required")
	}
	if e.TargetID == "" {
		return NewValidationError("targetId", "required")
	}
	if !e.Type.Valid() {
		return NewValidationError("type", fmt.Sprintf("invalid edge type %q", e.Type))
	}
	return nil
}

func (e *Edge) Touches(id string) bool {
	return e != nil && (e.SourceID == id || e.TargetID == id)
}

// Other returns the endpoint opposite id.
func (e *Edge) Other(id string) string {
	if e.SourceID == id {
		return e.TargetID
	}
	return e.SourceID
}

func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	out := *e
	out.Provenance = e.Provenance.Clone()
	out.Policy = e.Policy.Clone()
	return &out
}
