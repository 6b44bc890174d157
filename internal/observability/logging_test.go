package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
		want   string
	}{
		{"text info", "info", "text", "msg=hello"},
		{"json debug", "debug", "json", `"msg":"hello"`},
		{"empty format is text", "info", "", "msg=hello"},
		{"warn filters info", "warn", "text", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(tt.level, tt.format, &buf)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			logger.Info("hello")
			if tt.want == "" {
				if buf.Len() != 0 {
					t.Fatalf("expected no output, got %s", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, buf.String())
			}
		})
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	if _, err := NewLogger("loud", "text", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for bad level")
	}
	if _, err := NewLogger("info", "xml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for bad format")
	}
}

func TestLoggerWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := NewLogger("info", "json", &buf)

	LoggerWithTrace(context.Background(), logger).Info("no span")
	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("output should not contain trace_id without a span: %s", buf.String())
	}

	withRecorder(t)
	ctx, span := StartRunSpan(context.Background(), "extract", 1)
	defer span.End()

	buf.Reset()
	LoggerWithTrace(ctx, logger).Info("with span")
	if !strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("output should contain trace_id: %s", buf.String())
	}
}
