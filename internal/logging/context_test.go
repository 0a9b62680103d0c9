package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Fatal("expected slog.Default for bare context")
	}
}

func TestWithLoggerRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello")

	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Fatalf("log entry not routed through context logger: %s", buf.String())
	}
}

func TestStartSpanAssignsIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx, span := StartSpan(ctx, "test.op")
	if TraceIDFromContext(ctx) == "" {
		t.Fatal("expected trace id on derived context")
	}
	parentSpanID := SpanIDFromContext(ctx)
	if parentSpanID == "" {
		t.Fatal("expected span id on derived context")
	}

	childCtx, child := StartSpan(ctx, "test.child")
	if TraceIDFromContext(childCtx) != TraceIDFromContext(ctx) {
		t.Fatal("child span must share the trace id")
	}
	if SpanIDFromContext(childCtx) == parentSpanID {
		t.Fatal("child span must get its own span id")
	}

	child.End()
	span.End()

	out := buf.String()
	if !strings.Contains(out, `"span_name":"test.child"`) || !strings.Contains(out, `"parent_span_id"`) {
		t.Fatalf("expected child span metadata in output: %s", out)
	}
}

func TestSpanEndOnNilIsSafe(t *testing.T) {
	var span *Span
	span.End()
}
