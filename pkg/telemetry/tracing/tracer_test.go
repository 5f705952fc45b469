package tracing

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/procurement/pkg/config"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T, sampler string) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(&config.TracingConfig{
		Enabled:     true,
		Sampler:     sampler,
		ServiceName: "procurement-test",
	}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter failed: %v", err)
	}
	t.Cleanup(func() { tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func TestNew(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("Expected error for nil config")
	}

	tracer, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if tracer.Enabled() {
		t.Error("Expected disabled tracer")
	}
	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Errorf("Expected no trace id from noop tracer, got %q", TraceID(ctx))
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNew_OTLPExporterIsLazy(t *testing.T) {
	tracer, err := New(&config.TracingConfig{
		Enabled:  true,
		Sampler:  SamplerAlways,
		Endpoint: "127.0.0.1:1",
		OTLP:     config.OTLPConfig{Insecure: true},
	})
	if err != nil {
		t.Fatalf("Expected lazy OTLP connection, got %v", err)
	}
	if !tracer.Enabled() {
		t.Error("Expected enabled tracer")
	}
}

func TestNewWithExporter_InvalidSampler(t *testing.T) {
	_, err := NewWithExporter(&config.TracingConfig{Enabled: true, Sampler: "bogus"}, tracetest.NewInMemoryExporter())
	if err == nil {
		t.Error("Expected error for invalid sampler")
	}
}

func TestTracer_RecordsSpans(t *testing.T) {
	tracer, exporter := newTestTracer(t, SamplerAlways)

	ctx, parent := tracer.Start(context.Background(), SpanDecide)
	SetRequestAttributes(parent, "emp_1", "ENG", "laptop")

	_, child := tracer.Start(ctx, SpanSearch)
	child.End()

	SetError(parent, errors.New("audit unavailable"))
	parent.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(spans))
	}

	search, decide := spans[0], spans[1]
	if search.Name != SpanSearch || decide.Name != SpanDecide {
		t.Errorf("Unexpected span names %q, %q", search.Name, decide.Name)
	}
	if search.Parent.SpanID() != decide.SpanContext.SpanID() {
		t.Error("Expected search span to be a child of decide span")
	}
	if decide.Status.Code != codes.Error {
		t.Errorf("Expected error status, got %v", decide.Status.Code)
	}

	found := false
	for _, attr := range decide.Attributes {
		if string(attr.Key) == AttrDepartment && attr.Value.AsString() == "ENG" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %s attribute, got %v", AttrDepartment, decide.Attributes)
	}
}

func TestTracer_NeverSampler(t *testing.T) {
	tracer, exporter := newTestTracer(t, SamplerNever)

	_, span := tracer.Start(context.Background(), SpanDecide)
	span.End()

	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("Expected no exported spans, got %d", n)
	}
}

func TestTracer_NilSafe(t *testing.T) {
	var tracer *Tracer

	_, span := tracer.Start(context.Background(), SpanDecide)
	span.End()

	if tracer.Enabled() {
		t.Error("Expected nil tracer to be disabled")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Expected nil shutdown error, got %v", err)
	}
}

func TestAttributeBuilder(t *testing.T) {
	attrs := NewAttributeBuilder().
		WithString(AttrProductID, "laptop-pro-15").
		WithString(AttrCategory, "").
		WithInt(AttrOffersUsable, 3).
		WithBool(AttrPolicyAllowed, true).
		Attributes()

	if len(attrs) != 3 {
		t.Errorf("Expected 3 attributes (empty string skipped), got %d", len(attrs))
	}
}
