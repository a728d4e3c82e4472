package apm

import "testing"

func TestParseProvider(t *testing.T) {
	tests := map[string]Provider{
		"zipkin":     ZipkinProvider,
		" OTLP-GRPC": OTLPGRPCProvider,
		"otlp-http":  OTLPHTTPProvider,
		"console":    ConsoleProvider,
		"newrelic":   EmptyProvider,
		"":           EmptyProvider,
	}
	for in, want := range tests {
		if got := ParseProvider(in); got != want {
			t.Errorf("ParseProvider(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithHeaders(t *testing.T) {
	o := &TracerOptions{}
	WithHeaders("api-key=abc, x-team=swap,broken")(o)
	if len(o.headers) != 2 || o.headers["api-key"] != "abc" || o.headers["x-team"] != "swap" {
		t.Errorf("headers = %v", o.headers)
	}
}
