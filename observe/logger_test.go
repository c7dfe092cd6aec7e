package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}
	return entry
}

func TestLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "replication finished",
		Field{Key: "replicated", Value: 3},
		Field{Key: "dest_region", Value: "us-west-2"},
	)

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "replication finished" {
		t.Errorf("msg = %v, want 'replication finished'", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if v, ok := entry["replicated"].(float64); !ok || v != 3 {
		t.Errorf("replicated = %v, want 3", entry["replicated"])
	}
	if entry["dest_region"] != "us-west-2" {
		t.Errorf("dest_region = %v, want us-west-2", entry["dest_region"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "debug")
	logger.Info(context.Background(), "info")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %s", buf.String())
	}

	logger.Warn(context.Background(), "warn")
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("expected warn entry, got %s", buf.String())
	}
}

func TestLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "publish failed", Err(errors.New("connection refused")))

	entry := decodeEntry(t, &buf)
	if entry["level"] != "error" {
		t.Errorf("level = %v, want error", entry["level"])
	}
	if entry["error"] != "connection refused" {
		t.Errorf("error = %v, want 'connection refused'", entry["error"])
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "store opened",
		Field{Key: "dsn", Value: "redis://:hunter2@localhost:6379"},
		Field{Key: "password", Value: "hunter2"},
		Field{Key: "driver", Value: "redis"},
	)

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("secret leaked into log output: %s", output)
	}

	entry := decodeEntry(t, &buf)
	if entry["dsn"] != "[REDACTED]" {
		t.Errorf("dsn = %v, want [REDACTED]", entry["dsn"])
	}
	if entry["driver"] != "redis" {
		t.Errorf("driver = %v, want redis", entry["driver"])
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).With(Field{Key: "component", Value: "replicator"})

	logger.Info(context.Background(), "started")

	entry := decodeEntry(t, &buf)
	if entry["component"] != "replicator" {
		t.Errorf("component = %v, want replicator", entry["component"])
	}
}

func TestLogger_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.Info(ctx, "inside span")
	span.End()

	entry := decodeEntry(t, &buf)
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v, want %s", entry["trace_id"], span.SpanContext().TraceID())
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Info(context.Background(), "ignored")
	logger.With(Field{Key: "k", Value: "v"}).Error(context.Background(), "ignored")
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
