package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "debug text", cfg: Config{Level: "debug", Format: "text"}},
		{name: "warning alias", cfg: Config{Level: "warning"}},
		{name: "bad level", cfg: Config{Level: "verbose"}, wantErr: true},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.cfg.Writer = &buf
			logger, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatal("Expected logger, got nil")
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info message to be filtered, got %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("Expected warn message, got %s", out)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUser(ctx, "emp_1")
	ctx = WithDepartment(ctx, "ENG")

	logger.InfoContext(ctx, "Decision made", "outcome", "recommended")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log line %q: %v", buf.String(), err)
	}

	want := map[string]string{
		"request_id": "req-1",
		"user":       "emp_1",
		"department": "ENG",
		"trace_id":   traceID.String(),
		"span_id":    spanID.String(),
		"outcome":    "recommended",
	}
	for key, value := range want {
		if entry[key] != value {
			t.Errorf("Expected %s=%q, got %v", key, value, entry[key])
		}
	}
}

func TestLogger_NoContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Writer: &buf})

	logger.With("component", "test").Info("plain")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log line: %v", err)
	}
	if _, ok := entry["request_id"]; ok {
		t.Error("Expected no request_id without context value")
	}
	if entry["component"] != "test" {
		t.Errorf("Expected component=test, got %v", entry["component"])
	}
}

func TestLogger_RedactContacts(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf, RedactContacts: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("Supplier contacted",
		"supplier", "TechCorp (sales@techcorp.example)",
		"contact_info", "anything",
		"count", 3,
	)

	out := buf.String()
	if strings.Contains(out, "sales@techcorp.example") {
		t.Errorf("Expected e-mail to be redacted, got %s", out)
	}
	if !strings.Contains(out, "***@techcorp.example") {
		t.Errorf("Expected masked e-mail with domain, got %s", out)
	}
	if strings.Contains(out, "anything") {
		t.Errorf("Expected sensitive key to be masked, got %s", out)
	}
}

func TestSetup(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var buf bytes.Buffer
	if _, err := Setup(Config{Writer: &buf}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	slog.Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Errorf("Expected default logger to write to buffer, got %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)
	defer func() { _ = SetLevel("info") }()

	var buf bytes.Buffer
	if _, err := Setup(Config{Level: "warn", Writer: &buf}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	component := slog.Default().With("component", "budget")

	component.Info("before")
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	component.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("Expected info record to be filtered at warn, got %s", out)
	}
	if !strings.Contains(out, "after") {
		t.Errorf("Expected debug record after SetLevel, got %s", out)
	}

	if err := SetLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}
