package otelexport

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestNew_EmptyEndpoint(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected error for empty endpoint")
	}
}

func TestExporter_Shutdown_NilExporter(t *testing.T) {
	var exp *Exporter
	if err := exp.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_Protocols(t *testing.T) {
	for _, protocol := range []string{"grpc", "http", ""} {
		exp, err := New(context.Background(), Config{
			Endpoint: "127.0.0.1:4317",
			Protocol: protocol,
			Insecure: true,
			Headers:  map[string]string{"x-token": "t"},
		})
		if err != nil {
			t.Fatalf("protocol %q: %v", protocol, err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		exp.Shutdown(ctx)
		cancel()
	}
}

func TestInstall(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	exp, err := New(context.Background(), Config{Endpoint: "127.0.0.1:4318", Protocol: "http", Insecure: true})
	if err != nil {
		t.Fatal(err)
	}
	exp.Install()
	if otel.GetTracerProvider() != exp.provider {
		t.Fatal("provider not installed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	exp.Shutdown(ctx)
}
