package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation name for transcript operations.
const TracerName = "audiencia/transcript"

// Span attribute keys
const (
	AttrSource   = "transcript.source"
	AttrRows     = "transcript.rows"
	AttrRecords  = "transcript.records"
	AttrSkipped  = "transcript.skipped"
	AttrTermLen  = "search.term_length"
	AttrMatches  = "search.matches"
	AttrSpeaker  = "filter.speaker"
	AttrWindow   = "filter.window"
	AttrEntries  = "filter.entries"
	AttrRecordID = "record.id"
)

// Span names
const (
	SpanIngest = "transcript.ingest"
	SpanSearch = "transcript.search"
	SpanFilter = "transcript.filter"
	SpanEdit   = "transcript.edit"
)

// Tracer starts spans for transcript operations. A nil *Tracer starts no-op
// spans.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

func (t *Tracer) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartIngestSpan starts a span for one ingestion.
func (t *Tracer) StartIngestSpan(ctx context.Context, source string, rows int) (context.Context, trace.Span) {
	return t.start(ctx, SpanIngest,
		attribute.String(AttrSource, source),
		attribute.Int(AttrRows, rows),
	)
}

// StartSearchSpan starts a span for a search. Only the term length is
// recorded; testimony text stays out of traces.
func (t *Tracer) StartSearchSpan(ctx context.Context, termLen int) (context.Context, trace.Span) {
	return t.start(ctx, SpanSearch, attribute.Int(AttrTermLen, termLen))
}

// StartFilterSpan starts a span for a speaker filter.
func (t *Tracer) StartFilterSpan(ctx context.Context, speaker string, window int) (context.Context, trace.Span) {
	return t.start(ctx, SpanFilter,
		attribute.String(AttrSpeaker, speaker),
		attribute.Int(AttrWindow, window),
	)
}

// StartEditSpan starts a span for a record edit.
func (t *Tracer) StartEditSpan(ctx context.Context, recordID int) (context.Context, trace.Span) {
	return t.start(ctx, SpanEdit, attribute.Int(AttrRecordID, recordID))
}

// EndWithError records err on span, marks the status and ends it.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the trace ID carried by ctx, if any.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
