package otel

import (
	"context"
	"reflect"
	"testing"

	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/exfury/gridiron-core/config"
)

func TestParseHeaders(t *testing.T) {
	cases := []struct {
		raw  string
		want map[string]string
	}{
		{"", map[string]string{}},
		{"api-key=secret", map[string]string{"api-key": "secret"}},
		{" a = 1 , b=2,,", map[string]string{"a": "1", "b": "2"}},
		{"novalue,=orphan,c=", map[string]string{"c": ""}},
	}
	for _, tc := range cases {
		if got := parseHeaders(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("parseHeaders(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.Telemetry{}, "test")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if Tracer("test") == nil {
		t.Fatalf("expected a tracer")
	}
}

func TestInitRequiresEndpoint(t *testing.T) {
	if _, err := Init(context.Background(), config.Telemetry{Traces: true, Endpoint: "  "}, "test"); err == nil {
		t.Fatalf("expected endpoint error")
	}
}

func TestResourceAttributes(t *testing.T) {
	attrs := resourceAttributes("staging")
	found := map[string]string{}
	for _, kv := range attrs {
		found[string(kv.Key)] = kv.Value.AsString()
	}
	if found[string(semconv.ServiceNameKey)] != "gridd" {
		t.Fatalf("service name = %q", found[string(semconv.ServiceNameKey)])
	}
	if found[string(semconv.DeploymentEnvironmentKey)] != "staging" {
		t.Fatalf("environment = %q", found[string(semconv.DeploymentEnvironmentKey)])
	}
	if len(resourceAttributes(" ")) != 2 {
		t.Fatalf("blank environment should be omitted")
	}
}
