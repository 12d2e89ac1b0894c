package domain

import "fmt"

// Policy governs who may read a node or edge. An empty Clearance set means the
// fact is visible to every reader inside its tenant/case scope.
type Policy struct {
	Origin      string   `json:"origin,omitempty"`
	Sensitivity string   `json:"sensitivity,omitempty"`
	Clearance   []string `json:"clearance"`
	LegalBasis  []string `json:"legalBasis"`
	NeedToKnow  []string `json:"needToKnow"`
}

func (p Policy) Normalized() Policy {
	return Policy{
		Origin:      p.Origin,
		Sensitivity: p.Sensitivity,
		Clearance:   NormalizeSet(p.Clearance),
		LegalBasis:  NormalizeSet(p.LegalBasis),
		NeedToKnow:  NormalizeSet(p.NeedToKnow),
	}
}

// VisibleTo reports whether a reader holding clearances may see the fact.
func (p Policy) VisibleTo(clearances []string) bool {
	if len(p.Clearance) == 0 {
		return true
	}
	return Intersects(p.Clearance, clearances)
}

// MergePolicies combines the policies of two entities being merged. The result
// is never visible to a reader who could not see both inputs' restricted facts:
// an unrestricted side takes the other's clearance, two restricted sides keep
// their common labels, and disjoint restrictions are refused.
func MergePolicies(primary, duplicate Policy) (Policy, error) {
	p := primary.Normalized()
	d := duplicate.Normalized()

	out := Policy{
		Origin:      p.Origin,
		Sensitivity: p.Sensitivity,
		LegalBasis:  UnionSets(p.LegalBasis, d.LegalBasis),
		NeedToKnow:  UnionSets(p.NeedToKnow, d.NeedToKnow),
	}
	if out.Origin == "" {
		out.Origin = d.Origin
	}
	if out.Sensitivity == "" {
		out.Sensitivity = d.Sensitivity
	}

	switch {
	case len(p.Clearance) == 0:
		out.Clearance = copyStrings(d.Clearance)
	case len(d.Clearance) == 0:
		out.Clearance = copyStrings(p.Clearance)
	default:
		common := intersection(p.Clearance, d.Clearance)
		if len(common) == 0 {
			return Policy{}, NewValidationError("policy.clearance",
				fmt.Sprintf("disjoint clearances %v and %v cannot be merged", p.Clearance, d.Clearance))
		}
		out.Clearance = common
	}
	if out.Clearance == nil {
		out.Clearance = []string{}
	}
	return out, nil
}

func (p Policy) Clone() Policy {
	return Policy{
		Origin:      p.Origin,
		Sensitivity: p.Sensitivity,
		Clearance:   copyStrings(p.Clearance),
		LegalBasis:  copyStrings(p.LegalBasis),
		NeedToKnow:  copyStrings(p.NeedToKnow),
	}
}
