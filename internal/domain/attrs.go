package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Attrs is a sealed sum type over the five entity kinds. The unexported marker
// keeps the set closed; switch on the concrete type and cover every variant.
type Attrs interface {
	Kind() Kind
	Label() string
	isAttrs()
}

type PersonAttrs struct {
	Name        string   `json:"name"`
	Emails      []string `json:"emails"`
	Phones      []string `json:"phones"`
	Nationality string   `json:"nationality,omitempty"`
}

type OrgAttrs struct {
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
}

type LocationAttrs struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

type EventAttrs struct {
	Name       string     `json:"name"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
}

type DocumentAttrs struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Hash  string `json:"hash,omitempty"`
}

func (PersonAttrs) Kind() Kind   { return KindPerson }
func (OrgAttrs) Kind() Kind      { return KindOrg }
func (LocationAttrs) Kind() Kind { return KindLocation }
func (EventAttrs) Kind() Kind    { return KindEvent }
func (DocumentAttrs) Kind() Kind { return KindDocument }

func (a PersonAttrs) Label() string   { return a.Name }
func (a OrgAttrs) Label() string      { return a.Name }
func (a LocationAttrs) Label() string { return a.Name }
func (a EventAttrs) Label() string    { return a.Name }
func (a DocumentAttrs) Label() string { return a.Title }

func (PersonAttrs) isAttrs()   {}
func (OrgAttrs) isAttrs()      {}
func (LocationAttrs) isAttrs() {}
func (EventAttrs) isAttrs()    {}
func (DocumentAttrs) isAttrs() {}

// HasCoordinates reports whether both lat and lon are known.
func (a LocationAttrs) HasCoordinates() bool { return a.Lat != nil && a.Lon != nil }

// CloneAttrs deep-copies a value so stored state is never aliased. Person
// contacts come back in canonical form.
func CloneAttrs(a Attrs) Attrs {
	switch v := a.(type) {
	case PersonAttrs:
		v.Emails = NormalizeContacts(v.Emails, NormalizeEmail)
		v.Phones = NormalizeContacts(v.Phones, NormalizePhone)
		return v
	case OrgAttrs:
		return v
	case LocationAttrs:
		if v.Lat != nil {
			lat := *v.Lat
			v.Lat = &lat
		}
		if v.Lon != nil {
			lon := *v.Lon
			v.Lon = &lon
		}
		return v
	case EventAttrs:
		if v.OccurredAt != nil {
			t := *v.OccurredAt
			v.OccurredAt = &t
		}
		return v
	case DocumentAttrs:
		return v
	default:
		return nil
	}
}

// UpsertAttrs applies incoming over existing: set-valued Person fields are
// unioned, scalars are overwritten when the incoming value is non-empty.
func UpsertAttrs(existing, incoming Attrs) (Attrs, error) {
	if existing == nil {
		return CloneAttrs(incoming), nil
	}
	if incoming == nil {
		return CloneAttrs(existing), nil
	}
	if existing.Kind() != incoming.Kind() {
		return nil, NewValidationError("kind", fmt.Sprintf("cannot apply %s attributes to %s", incoming.Kind(), existing.Kind()))
	}
	switch cur := CloneAttrs(existing).(type) {
	case PersonAttrs:
		in := CloneAttrs(incoming).(PersonAttrs)
		cur.Name = pickString(in.Name, cur.Name)
		cur.Nationality = pickString(in.Nationality, cur.Nationality)
		cur.Emails = UnionSets(cur.Emails, in.Emails)
		cur.Phones = UnionSets(cur.Phones, in.Phones)
		return cur, nil
	case OrgAttrs:
		in := incoming.(OrgAttrs)
		cur.Name = pickString(in.Name, cur.Name)
		cur.Domain = pickString(in.Domain, cur.Domain)
		return cur, nil
	case LocationAttrs:
		in := CloneAttrs(incoming).(LocationAttrs)
		cur.Name = pickString(in.Name, cur.Name)
		if in.Lat != nil {
			cur.Lat = in.Lat
		}
		if in.Lon != nil {
			cur.Lon = in.Lon
		}
		return cur, nil
	case EventAttrs:
		in := CloneAttrs(incoming).(EventAttrs)
		cur.Name = pickString(in.Name, cur.Name)
		if in.OccurredAt != nil {
			cur.OccurredAt = in.OccurredAt
		}
		return cur, nil
	case DocumentAttrs:
		in := incoming.(DocumentAttrs)
		cur.Title = pickString(in.Title, cur.Title)
		cur.URL = pickString(in.URL, cur.URL)
		cur.Hash = pickString(in.Hash, cur.Hash)
		return cur, nil
	default:
		return nil, NewValidationError("kind", fmt.Sprintf("unknown attributes %T", existing))
	}
}

// MergeAttrs folds a duplicate's attributes into the primary's. The primary's
// scalars win; the duplicate only fills gaps. Person contact sets are unioned.
func MergeAttrs(primary, duplicate Attrs) (Attrs, error) {
	if primary == nil || duplicate == nil {
		return nil, NewValidationError("attributes", "missing attributes")
	}
	return UpsertAttrs(duplicate, primary)
}

func pickString(incoming, current string) string {
	if incoming != "" {
		return incoming
	}
	return current
}

// ZeroAttrs returns the empty variant for kind.
func ZeroAttrs(kind Kind) (Attrs, error) {
	switch kind {
	case KindPerson:
		return PersonAttrs{Emails: []string{}, Phones: []string{}}, nil
	case KindOrg:
		return OrgAttrs{}, nil
	case KindLocation:
		return LocationAttrs{}, nil
	case KindEvent:
		return EventAttrs{}, nil
	case KindDocument:
		return DocumentAttrs{}, nil
	default:
		return nil, NewValidationError("kind", fmt.Sprintf("unknown kind %q", kind))
	}
}

// DecodeAttrs decodes raw JSON into the variant selected by kind.
func DecodeAttrs(kind Kind, raw json.RawMessage) (Attrs, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return ZeroAttrs(kind)
	}
	switch kind {
	case KindPerson:
		var a PersonAttrs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return CloneAttrs(a), nil
	case KindOrg:
		var a OrgAttrs
		err := json.Unmarshal(raw, &a)
		return a, err
	case KindLocation:
		var a LocationAttrs
		err := json.Unmarshal(raw, &a)
		return a, err
	case KindEvent:
		var a EventAttrs
		err := json.Unmarshal(raw, &a)
		return a, err
	case KindDocument:
		var a DocumentAttrs
		err := json.Unmarshal(raw, &a)
		return a, err
	default:
		return nil, NewValidationError("kind", fmt.Sprintf("unknown kind %q", kind))
	}
}
