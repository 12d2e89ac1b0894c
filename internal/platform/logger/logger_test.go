package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsContacts(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"email", "jane@x.com", "phone_number", "+1555", "node_id", "person:1"})
	if kv[1] != "[REDACTED]" || kv[3] != "[REDACTED]" {
		t.Fatalf("contacts not redacted: %v", kv)
	}
	if kv[5] != "person:1" {
		t.Fatalf("unrelated key altered: %v", kv)
	}
}

func TestSanitizeKVsHashesActor(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"actor", "analyst-7"})
	s, _ := kv[1].(string)
	if !strings.HasPrefix(s, "hash:") || strings.Contains(s, "analyst") {
		t.Fatalf("actor not hashed: %v", kv)
	}
	again := sanitizeKVs([]interface{}{"actor", "analyst-7"})
	if again[1] != kv[1] {
		t.Fatalf("hash not stable: %v vs %v", again[1], kv[1])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"k", "v", "dangling"})
	if len(kv) != 3 || kv[2] != "dangling" {
		t.Fatalf("unexpected: %v", kv)
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNop().With("component", "test")
	l.Info("hello", "email", "a@b")
	l.Sync()
}
