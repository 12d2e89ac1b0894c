package domain

import "time"

// Provenance is an append-only description of where a fact came from.
type Provenance struct {
	Source         string     `json:"source"`
	CollectedAt    *time.Time `json:"collectedAt,omitempty"`
	License        string     `json:"license,omitempty"`
	TransformChain []string   `json:"transformChain"`
	Confidence     *float64   `json:"confidence,omitempty"`
}

// WithStep returns a copy with step appended to the transform chain.
func (p Provenance) WithStep(step string) Provenance {
	out := p.Clone()
	out.TransformChain = appendChain(p.TransformChain, step)
	return out
}

// MergeProvenance keeps the primary's origin and records the duplicate's
// derivation steps followed by the merge step itself.
func MergeProvenance(primary, duplicate Provenance, step string) Provenance {
	out := primary.Clone()
	if out.Source == "" {
		out.Source = duplicate.Source
	}
	if out.CollectedAt == nil && duplicate.CollectedAt != nil {
		t := *duplicate.CollectedAt
		out.CollectedAt = &t
	}
	if out.License == "" {
		out.License = duplicate.License
	}
	if out.Confidence == nil && duplicate.Confidence != nil {
		c := *duplicate.Confidence
		out.Confidence = &c
	}
	out.TransformChain = appendChain(primary.TransformChain, duplicate.TransformChain...)
	out.TransformChain = appendChain(out.TransformChain, step)
	return out
}

func (p Provenance) Clone() Provenance {
	out := Provenance{
		Source:         p.Source,
		License:        p.License,
		TransformChain: copyStrings(p.TransformChain),
	}
	if out.TransformChain == nil {
		out.TransformChain = []string{}
	}
	if p.CollectedAt != nil {
		t := *p.CollectedAt
		out.CollectedAt = &t
	}
	if p.Confidence != nil {
		c := *p.Confidence
		out.Confidence = &c
	}
	return out
}
