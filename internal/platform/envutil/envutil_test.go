package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("CG_STR", " neo4j ")
	t.Setenv("CG_INT", "7")
	t.Setenv("CG_BAD_INT", "seven")
	t.Setenv("CG_BOOL", "yes")
	t.Setenv("CG_DUR", "45")
	t.Setenv("CG_DUR2", "1m")
	t.Setenv("CG_LIST", "a, b,,c")
	t.Setenv("CG_FLOAT", "0.25")

	if got := String("CG_STR", "memory"); got != "neo4j" {
		t.Fatalf("String: %q", got)
	}
	if got := String("CG_MISSING", "memory"); got != "memory" {
		t.Fatalf("String default: %q", got)
	}
	if got := Int("CG_INT", 1); got != 7 {
		t.Fatalf("Int: %d", got)
	}
	if got := Int("CG_BAD_INT", 3); got != 3 {
		t.Fatalf("Int fallback: %d", got)
	}
	if !Bool("CG_BOOL", false) || Bool("CG_MISSING", false) {
		t.Fatalf("Bool mismatch")
	}
	if got := Duration("CG_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("Duration seconds: %v", got)
	}
	if got := Duration("CG_DUR2", time.Second); got != time.Minute {
		t.Fatalf("Duration string: %v", got)
	}
	if got := List("CG_LIST", nil); len(got) != 3 || got[2] != "c" {
		t.Fatalf("List: %v", got)
	}
	if got := Float("CG_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: %v", got)
	}
	if got := Float("CG_STR", 1); got != 1 {
		t.Fatalf("Float fallback: %v", got)
	}
}
