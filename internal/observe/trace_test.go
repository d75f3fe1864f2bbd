package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useGlobalTracer installs an in-memory tracer provider as the global one for
// the duration of the test.
func useGlobalTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exp
}

// captureLog routes the default logger into a buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestCorrelationID_EmptyByDefault(t *testing.T) {
	t.Parallel()
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(background) = %q, want empty", got)
	}
}

func TestStartSpan_UsesOrderbotScope(t *testing.T) {
	exp := useGlobalTracer(t)

	ctx, span := StartSpan(context.Background(), "dialogue.turn")
	cid := CorrelationID(ctx)
	span.End()

	if len(cid) != 32 || strings.Trim(cid, "0123456789abcdef") != "" {
		t.Errorf("CorrelationID = %q, want 32 lower-case hex digits", cid)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name != "dialogue.turn" {
		t.Errorf("span name = %q, want dialogue.turn", spans[0].Name)
	}
	if got := spans[0].InstrumentationScope.Name; got != tracerName {
		t.Errorf("scope = %q, want %q", got, tracerName)
	}
}

func TestStartSpan_NestsUnderRequestSpan(t *testing.T) {
	exp := useGlobalTracer(t)

	reqCtx, reqSpan := StartSpan(context.Background(), "POST /api/process")
	turnCtx, turnSpan := StartSpan(reqCtx, "dialogue.turn")

	if CorrelationID(turnCtx) != CorrelationID(reqCtx) {
		t.Error("child span did not inherit the request trace ID")
	}
	turnSpan.End()
	reqSpan.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	turn, req := spans[0], spans[1]
	if turn.Parent.SpanID() != req.SpanContext.SpanID() {
		t.Errorf("turn parent = %s, want request span %s", turn.Parent.SpanID(), req.SpanContext.SpanID())
	}
}

func TestCorrelationID_DistinctPerTurn(t *testing.T) {
	useGlobalTracer(t)

	seen := make(map[string]struct{}, 50)
	for range 50 {
		ctx, span := StartSpan(context.Background(), "dialogue.turn")
		cid := CorrelationID(ctx)
		span.End()
		if _, dup := seen[cid]; dup {
			t.Fatalf("duplicate correlation ID %s", cid)
		}
		seen[cid] = struct{}{}
	}
}

func TestLogger(t *testing.T) {
	useGlobalTracer(t)

	tests := []struct {
		name      string
		withSpan  bool
		wantTrace bool
	}{
		{name: "inside a turn", withSpan: true, wantTrace: true},
		{name: "outside a turn", withSpan: false, wantTrace: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			ctx := context.Background()
			if tt.withSpan {
				c, s := StartSpan(ctx, "order.process")
				defer s.End()
				ctx = c
			}
			Logger(ctx).Info("order: matched", "lines", 2)

			out := buf.String()
			if got := strings.Contains(out, "trace_id="); got != tt.wantTrace {
				t.Errorf("trace_id present = %v, want %v: %s", got, tt.wantTrace, out)
			}
			if tt.wantTrace && !strings.Contains(out, "trace_id="+CorrelationID(ctx)) {
				t.Errorf("log carries a different trace_id than the active span: %s", out)
			}
			if got := strings.Contains(out, "span_id="); got != tt.wantTrace {
				t.Errorf("span_id present = %v, want %v: %s", got, tt.wantTrace, out)
			}
			if !strings.Contains(out, "lines=2") {
				t.Errorf("log lost caller attributes: %s", out)
			}
		})
	}
}
