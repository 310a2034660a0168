// Package ingest turns raw transcript rows into dialogue records.
package ingest

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/otherjamesbrown/audiencia-cli/pkg/logging"
	"github.com/otherjamesbrown/audiencia-cli/pkg/observability"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/speakers"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/timecode"
)

// Skip reasons.
const (
	ReasonBadStart     = "bad_start"
	ReasonBadEnd       = "bad_end"
	ReasonEmptyText    = "empty_text"
	ReasonInvalidRange = "invalid_range"
)

// SkippedRow describes a row dropped during ingestion.
type SkippedRow struct {
	// Row is the 1-based position in the source.
	Row    int               `json:"row" yaml:"row"`
	Raw    transcript.RawRow `json:"raw" yaml:"raw"`
	Reason string            `json:"reason" yaml:"reason"`
	Detail string            `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Result is the outcome of one ingestion.
type Result struct {
	Records  []transcript.Record  `json:"records" yaml:"records"`
	Skipped  []SkippedRow         `json:"skipped" yaml:"skipped"`
	Speakers []transcript.Speaker `json:"speakers" yaml:"speakers"`
}

// Ingestor converts raw rows using a speaker registry.
type Ingestor struct {
	registry *speakers.Registry
	markers  Markers
	logger   logging.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	source   string
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets the logger used for skipped-row warnings.
func WithLogger(l logging.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// WithMarkers overrides the confidence markers.
func WithMarkers(m Markers) Option {
	return func(in *Ingestor) { in.markers = m }
}

// WithMetrics records ingestion metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(in *Ingestor) { in.metrics = m }
}

// WithTracer records an ingestion span.
func WithTracer(t *observability.Tracer) Option {
	return func(in *Ingestor) { in.tracer = t }
}

// WithSource labels metrics and spans with the source format.
func WithSource(source string) Option {
	return func(in *Ingestor) { in.source = source }
}

// NewIngestor returns an Ingestor that registers speakers in registry.
func NewIngestor(registry *speakers.Registry, opts ...Option) *Ingestor {
	in := &Ingestor{
		registry: registry,
		markers:  DefaultMarkers(),
		logger:   logging.NewNopLogger(),
		source:   "json",
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Registry returns the registry the ingestor writes to.
func (in *Ingestor) Registry() *speakers.Registry {
	return in.registry
}

// Source returns the format label used for metrics and spans.
func (in *Ingestor) Source() string {
	return in.source
}

// Markers returns the confidence markers in use.
func (in *Ingestor) Markers() Markers {
	return in.markers
}

// Ingest converts rows in order. Rows with unparsable timestamps, blank
// text or a non-positive duration are dropped with a warning and reported in
// Result.Skipped. Unknown speakers are registered with a role inferred from
// their name. The only error is ctx's.
func (in *Ingestor) Ingest(ctx context.Context, rows []transcript.RawRow) (*Result, error) {
	started := time.Now()
	ctx, span := in.tracer.StartIngestSpan(ctx, in.source, len(rows))
	log := in.logger.WithContext(ctx)

	res := &Result{
		Records: make([]transcript.Record, 0, len(rows)),
		Skipped: make([]SkippedRow, 0),
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			observability.EndWithError(span, err)
			return nil, err
		}

		rec, skip := in.convert(row)
		if skip != nil {
			skip.Row = i + 1
			skip.Raw = row
			res.Skipped = append(res.Skipped, *skip)
			in.metrics.RecordRow(observability.RowSkipped, skip.Reason)
			log.Warn("Skipping transcript row",
				logging.F("row", skip.Row),
				logging.F("reason", skip.Reason),
				logging.F("detail", skip.Detail))
			continue
		}

		if !in.registry.Has(rec.Speaker) {
			if _, err := in.registry.Register(rec.Speaker, speakers.InferRole(rec.Speaker)); err == nil {
				in.metrics.RecordSpeakerRegistered()
				log.Debug("Registered speaker", logging.F("speaker", rec.Speaker))
			}
		}
		if sp, ok := in.registry.Get(rec.Speaker); ok {
			rec.Speaker = sp.Name
		}

		rec.ID = len(res.Records) + 1
		res.Records = append(res.Records, rec)
		in.metrics.RecordRow(observability.RowAccepted, "")
		in.metrics.RecordConfidence(string(rec.ConfidenceLevel), rec.ConfidenceScore)
	}

	res.Speakers = in.registry.LoadFromTranscript(Entries(Participants(res.Records)))

	span.SetAttributes(
		attribute.Int(observability.AttrRecords, len(res.Records)),
		attribute.Int(observability.AttrSkipped, len(res.Skipped)),
	)
	observability.EndWithError(span, nil)
	in.metrics.RecordIngest(in.source, time.Since(started).Seconds())

	log.Info("Transcript ingested",
		logging.F("records", len(res.Records)),
		logging.F("skipped", len(res.Skipped)),
		logging.F("speakers", len(res.Speakers)))
	return res, nil
}

func (in *Ingestor) convert(row transcript.RawRow) (transcript.Record, *SkippedRow) {
	start, err := timecode.Parse(row.Start)
	if err != nil {
		return transcript.Record{}, &SkippedRow{Reason: ReasonBadStart, Detail: err.Error()}
	}
	end, err := timecode.Parse(row.End)
	if err != nil {
		return transcript.Record{}, &SkippedRow{Reason: ReasonBadEnd, Detail: err.Error()}
	}
	if end <= start {
		return transcript.Record{}, &SkippedRow{Reason: ReasonInvalidRange, Detail: timecode.FormatRange(start, end-start)}
	}
	text := strings.TrimSpace(row.Text)
	if text == "" {
		return transcript.Record{}, &SkippedRow{Reason: ReasonEmptyText}
	}

	name := strings.TrimSpace(row.Speaker)
	if name == "" {
		name = speakers.UnidentifiedLabel
	}

	return transcript.Record{
		Speaker:         name,
		StartSeconds:    start,
		EndSeconds:      end,
		Text:            text,
		ConfidenceLevel: in.markers.Level(text),
		ConfidenceScore: float64(in.markers.Score(text)) / 100,
	}, nil
}

// Participant summarizes one speaker's share of a transcript.
type Participant struct {
	speakers.Entry `yaml:",inline"`
	// Preview is the start of the speaker's first utterance.
	Preview string `json:"preview" yaml:"preview"`
}

const previewLen = 50

// Participants groups records by speaker, most active first. Ties keep the
// order of first appearance.
func Participants(records []transcript.Record) []Participant {
	var out []Participant
	pos := make(map[string]int)
	for _, r := range records {
		if i, ok := pos[r.Speaker]; ok {
			out[i].Utterances++
			continue
		}
		preview := r.Text
		if runes := []rune(preview); len(runes) > previewLen {
			preview = string(runes[:previewLen]) + "..."
		}
		pos[r.Speaker] = len(out)
		out = append(out, Participant{
			Entry:   speakers.Entry{Name: r.Speaker, Role: speakers.InferRole(r.Speaker), Utterances: 1},
			Preview: preview,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Utterances > out[j].Utterances
	})
	return out
}

// Entries strips participants down to registry entries.
func Entries(ps []Participant) []speakers.Entry {
	out := make([]speakers.Entry, len(ps))
	for i, p := range ps {
		out[i] = p.Entry
	}
	return out
}
