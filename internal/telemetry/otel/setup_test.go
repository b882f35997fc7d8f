package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, Options{Endpoint: endpoint, ServiceName: "team-board"})
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Fatalf("NewProviders(%q) returned nil provider: %+v", endpoint, providers)
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown should be a no-op, got %v", err)
		}
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"://invalid", "http://[invalid", "http://"} {
		if _, err := NewProviders(context.Background(), Options{Endpoint: endpoint}); err == nil {
			t.Errorf("NewProviders(%q) should fail", endpoint)
		}
	}
}

func TestCollectorTarget(t *testing.T) {
	testCases := []struct {
		endpoint     string
		force        bool
		wantTarget   string
		wantInsecure bool
	}{
		{"localhost:4317", false, "localhost:4317", true},
		{"http://collector:4317/v1/traces", false, "collector:4317", true},
		{"https://collector:4317", false, "collector:4317", false},
		{"https://collector:4317", true, "collector:4317", true},
	}
	for _, tc := range testCases {
		t.Run(tc.endpoint, func(t *testing.T) {
			target, insecure, err := collectorTarget(tc.endpoint, tc.force)
			if err != nil {
				t.Fatalf("collectorTarget: %v", err)
			}
			if target != tc.wantTarget || insecure != tc.wantInsecure {
				t.Errorf("got (%q, %v), want (%q, %v)", target, insecure, tc.wantTarget, tc.wantInsecure)
			}
		})
	}
}

func TestNewProviders_LazyDial(t *testing.T) {
	// Exporters dial lazily, so construction succeeds without a collector.
	ctx := context.Background()
	providers, err := NewProviders(ctx, Options{Endpoint: "localhost:4317", ServiceName: "team-board", Environment: "test"})
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = providers.Shutdown(shutdownCtx)
}

func TestSetGlobal(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	tp := sdktrace.NewTracerProvider()
	p := &Providers{TracerProvider: tp}
	p.SetGlobal()
	if otel.GetTracerProvider() != tp {
		t.Error("SetGlobal should install the tracer provider")
	}
}
