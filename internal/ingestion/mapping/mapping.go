// Package mapping parses field-mapping documents. A mapping binds dotted
// canonical paths such as "person.email" to source column names. Documents
// may be flat ({"person.email": "col"}) or nested by namespace
// ({"person": {"email": "col"}}); YAML and JSON are both accepted.
package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/casegraph-backend/internal/domain"
)

// Field names per namespace.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldNationality = "nationality"
	FieldDomain      = "domain"
	FieldLat         = "lat"
	FieldLon         = "lon"
	FieldOccurredAt  = "occurred_at"
	FieldTitle       = "title"
	FieldURL         = "url"
	FieldHash        = "hash"
)

var allowedFields = map[types.Kind][]string{
	types.KindPerson:   {FieldName, FieldEmail, FieldPhone, FieldNationality},
	types.KindOrg:      {FieldName, FieldDomain},
	types.KindLocation: {FieldName, FieldLat, FieldLon},
	types.KindEvent:    {FieldName, FieldOccurredAt},
	types.KindDocument: {FieldTitle, FieldURL, FieldHash},
}

// Mapping is a validated canonical-path to column binding.
type Mapping struct {
	fields map[string]string
}

// Parse decodes a YAML or JSON mapping document and validates it.
func Parse(raw []byte) (Mapping, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Mapping{}, types.NewValidationError("mapping", fmt.Sprintf("decode: %v", err))
	}
	if inner, ok := doc["mapping"].(map[string]any); ok && len(doc) == 1 {
		doc = inner
	}
	flat := map[string]string{}
	for k, v := range doc {
		switch val := v.(type) {
		case string:
			flat[k] = val
		case map[string]any:
			for field, col := range val {
				s, ok := col.(string)
				if !ok {
					return Mapping{}, types.NewValidationError(k+"."+field, "column name must be a string")
				}
				flat[k+"."+field] = s
			}
		default:
			return Mapping{}, types.NewValidationError(k, "column name must be a string")
		}
	}
	return FromMap(flat)
}

// FromMap validates a flat mapping.
func FromMap(m map[string]string) (Mapping, error) {
	if len(m) == 0 {
		return Mapping{}, types.NewValidationError("mapping", "empty mapping")
	}
	out := Mapping{fields: make(map[string]string, len(m))}
	for key, col := range m {
		key = strings.ToLower(strings.TrimSpace(key))
		col = strings.TrimSpace(col)
		kind, field, err := splitKey(key)
		if err != nil {
			return Mapping{}, err
		}
		if !fieldAllowed(kind, field) {
			return Mapping{}, types.NewValidationError(key, fmt.Sprintf("unknown field %q for %s", field, kind.Prefix()))
		}
		if col == "" {
			return Mapping{}, types.NewValidationError(key, "empty column name")
		}
		out.fields[key] = col
	}
	return out, nil
}

func splitKey(key string) (types.Kind, string, error) {
	ns, field, ok := strings.Cut(key, ".")
	if !ok || ns == "" || field == "" {
		return "", "", types.NewValidationError(key, "expected <namespace>.<field>")
	}
	for _, k := range types.AllKinds {
		if k.Prefix() == ns {
			return k, field, nil
		}
	}
	return "", "", types.NewValidationError(key, fmt.Sprintf("unknown namespace %q", ns))
}

func fieldAllowed(kind types.Kind, field string) bool {
	for _, f := range allowedFields[kind] {
		if f == field {
			return true
		}
	}
	return false
}

// Column returns the source column bound to kind.field.
func (m Mapping) Column(kind types.Kind, field string) (string, bool) {
	col, ok := m.fields[kind.Prefix()+"."+field]
	return col, ok
}

// Namespaces lists the kinds the mapping touches, in AllKinds order.
func (m Mapping) Namespaces() []types.Kind {
	var out []types.Kind
	for _, k := range types.AllKinds {
		for _, f := range allowedFields[k] {
			if _, ok := m.Column(k, f); ok {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

// Fields returns the mapped fields of kind with their columns.
func (m Mapping) Fields(kind types.Kind) map[string]string {
	out := map[string]string{}
	for _, f := range allowedFields[kind] {
		if col, ok := m.Column(kind, f); ok {
			out[f] = col
		}
	}
	return out
}

func (m Mapping) IsZero() bool { return len(m.fields) == 0 }

// Map returns a copy of the flat binding.
func (m Mapping) Map() map[string]string {
	out := make(map[string]string, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// Hash fingerprints the mapping so ledger entries can detect mapping drift.
func (m Mapping) Hash() string {
	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(m.fields[k]))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
