package rows

import (
	"errors"
	"strings"
	"testing"

	types "github.com/yungbote/casegraph-backend/internal/domain"
)

func TestReadCSV(t *testing.T) {
	in := "\ufeffname,email,phone\nJane Doe,jane@x.com\n\"Roe, John\",john@x.com,+1555\n"
	got, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d", len(got))
	}
	if got[0].Get("name") != "Jane Doe" || got[0].Get("phone") != "" {
		t.Fatalf("row 0 = %v", got[0])
	}
	if got[1].Get("name") != "Roe, John" {
		t.Fatalf("quoted field: %v", got[1])
	}
}

func TestReadCSVTooManyFields(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReadJSON(t *testing.T) {
	in := `[{"name":"Jane","lat":52.52,"verified":true,"emails":["a@x","b@x"],"note":null}]`
	got, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	r := got[0]
	if r.Get("lat") != "52.52" || r.Get("verified") != "true" || r.Get("emails") != "a@x;b@x" || r.Get("note") != "" {
		t.Fatalf("row = %v", r)
	}

	if _, err := ReadJSON(strings.NewReader(`[{"nested":{"a":1}}]`)); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("nested object: expected validation error, got %v", err)
	}
}

func TestReadSniffsFormat(t *testing.T) {
	got, err := Read("", []byte("  [{\"a\":\"1\"}]"))
	if err != nil || len(got) != 1 || got[0].Get("a") != "1" {
		t.Fatalf("json sniff: %v %v", got, err)
	}
	got, err = Read("", []byte("a\n1\n"))
	if err != nil || len(got) != 1 || got[0].Get("a") != "1" {
		t.Fatalf("csv sniff: %v %v", got, err)
	}
	if _, err := Read("xml", nil); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("unknown format: %v", err)
	}
}

func TestRowHashOrderIndependent(t *testing.T) {
	a := Row{"name": "Jane", "email": "jane@x.com"}
	b := Row{"email": "jane@x.com", "name": "Jane"}
	if a.Hash() != b.Hash() {
		t.Fatalf("hash depends on map order")
	}
	if a.Hash() == (Row{"name": "Jane"}).Hash() {
		t.Fatalf("hash ignores columns")
	}
}
