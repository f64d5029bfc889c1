// Package telemetry wires optional OpenTelemetry tracing for acp runs. It
// follows the same sdktrace.TracerProvider/SpanExporter shape
// fyrsmithlabs-contextd's internal/telemetry package builds around an OTLP
// collector, but exports spans to a local writer instead: acp ships as a
// single binary with no collector endpoint to configure, so --trace is
// meant for "show me what the engine is doing", not a production pipeline.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// NewTracerProvider returns a TracerProvider whose spans are logged to w,
// one line per finished span, as they complete.
func NewTracerProvider(w io.Writer) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(&writerExporter{w: w}))
}

// Tracer returns the "acp" tracer from tp, the name every span this binary
// emits is grouped under.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	return tp.Tracer("acp")
}

// writerExporter implements sdktrace.SpanExporter by writing a one-line
// name/duration/status summary per span.
type writerExporter struct {
	w io.Writer
}

func (e *writerExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		d := span.EndTime().Sub(span.StartTime()).Round(time.Millisecond)
		fmt.Fprintf(e.w, "trace: %-28s %-8s %s\n", span.Name(), d, span.Status().Code)
	}
	return nil
}

func (e *writerExporter) Shutdown(context.Context) error { return nil }
