package observability

import "testing"

func TestOtelSettingsFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc, broken ,team=graph")
	t.Setenv("OTEL_SAMPLER_RATIO", "3")

	s := OtelSettingsFromEnv()
	if !s.Enabled || s.Endpoint != "collector:4318" {
		t.Fatalf("settings = %+v", s)
	}
	if len(s.Headers) != 2 || s.Headers["team"] != "graph" {
		t.Fatalf("headers = %v", s.Headers)
	}
	if s.SampleRatio != 1 {
		t.Fatalf("ratio not clamped: %v", s.SampleRatio)
	}
}

func TestParseHeadersEmpty(t *testing.T) {
	if parseHeaders([]string{"novalue", "=x"}) != nil {
		t.Fatalf("expected nil headers")
	}
}
