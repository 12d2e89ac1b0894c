package domain

import (
	"fmt"
	"strings"
)

// Kind is the closed set of entity kinds the graph understands.
type Kind string

const (
	KindPerson   Kind = "Person"
	KindOrg      Kind = "Org"
	KindLocation Kind = "Location"
	KindEvent    Kind = "Event"
	KindDocument Kind = "Document"
)

var AllKinds = []Kind{KindPerson, KindOrg, KindLocation, KindEvent, KindDocument}

func (k Kind) Valid() bool {
	switch k {
	case KindPerson, KindOrg, KindLocation, KindEvent, KindDocument:
		return true
	default:
		return false
	}
}

// Prefix is the lower-case namespace used for IDs and mapping keys.
func (k Kind) Prefix() string {
	switch k {
	case KindPerson:
		return "person"
	case KindOrg:
		return "org"
	case KindLocation:
		return "location"
	case KindEvent:
		return "event"
	case KindDocument:
		return "document"
	default:
		return ""
	}
}

func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "person":
		return KindPerson, nil
	case "org", "organization", "organisation":
		return KindOrg, nil
	case "location":
		return KindLocation, nil
	case "event":
		return KindEvent, nil
	case "document":
		return KindDocument, nil
	default:
		return "", NewValidationError("kind", fmt.Sprintf("unknown kind %q", raw))
	}
}

// ParseKinds parses a label filter; empty input yields a nil filter.
func ParseKinds(raw []string) ([]Kind, error) {
	var out []Kind
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			k, err := ParseKind(part)
			if err != nil {
				return nil, err
			}
			out = append(out, k)
		}
	}
	return out, nil
}
