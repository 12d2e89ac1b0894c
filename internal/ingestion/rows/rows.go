// Package rows decodes raw ingestion input into column->value records.
package rows

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	types "github.com/yungbote/casegraph-backend/internal/domain"
)

// Row is one input record keyed by source column name.
type Row map[string]string

// Get returns the trimmed value of col.
func (r Row) Get(col string) string { return strings.TrimSpace(r[col]) }

// Hash fingerprints the row content independent of column order.
func (r Row) Hash() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(r[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ReadCSV reads a header row followed by records. Short records leave the
// missing columns empty.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, types.NewValidationError("csv", fmt.Sprintf("read header: %v", err))
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	out := []Row{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, types.NewValidationError("csv", fmt.Sprintf("line %d: %v", line, err))
		}
		if len(rec) > len(header) {
			return nil, types.NewValidationError("csv", fmt.Sprintf("line %d: %d fields, header has %d", line, len(rec), len(header)))
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// ReadJSON reads a JSON array of flat objects. Scalar values are stringified;
// nested values are rejected.
func ReadJSON(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, types.NewValidationError("rows", fmt.Sprintf("decode: %v", err))
	}
	return FromObjects(raw)
}

// FromObjects converts decoded JSON objects into rows.
func FromObjects(objs []map[string]any) ([]Row, error) {
	out := make([]Row, 0, len(objs))
	for i, obj := range objs {
		row := make(Row, len(obj))
		for k, v := range obj {
			s, err := scalar(v)
			if err != nil {
				return nil, types.NewValidationError(fmt.Sprintf("rows[%d].%s", i, k), err.Error())
			}
			row[k] = s
		}
		out = append(out, row)
	}
	return out, nil
}

func scalar(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, x := range val {
			s, err := scalar(x)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ";"), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}

// Read picks a decoder from the format name ("csv" or "json"); an empty
// format sniffs the first non-space byte.
func Read(format string, data []byte) ([]Row, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return ReadCSV(bytes.NewReader(data))
	case "json":
		return ReadJSON(bytes.NewReader(data))
	case "":
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			return ReadJSON(bytes.NewReader(data))
		}
		return ReadCSV(bytes.NewReader(data))
	default:
		return nil, types.NewValidationError("format", fmt.Sprintf("unknown format %q", format))
	}
}
