// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for transcript ingestion, search, filtering, editing and playback.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the transcript engine.
//
// A nil *Metrics is valid; every Record method is a no-op on it.
type Metrics struct {
	// Ingestion
	RowsTotal          *prometheus.CounterVec
	ConfidenceScore    *prometheus.HistogramVec
	IngestSeconds      *prometheus.HistogramVec
	SpeakersRegistered prometheus.Counter

	// Views
	SearchesTotal      *prometheus.CounterVec
	SearchMatches      prometheus.Histogram
	FilterApplications *prometheus.CounterVec

	// Editing and playback
	EditsTotal       *prometheus.CounterVec
	SegmentsPlayed   prometheus.Counter
	SegmentsReplaced prometheus.Counter
}

// DefaultMetrics registers metrics with the default Prometheus registerer.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates and registers the metric set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audiencia_transcript_rows_total",
				Help: "Transcript rows seen by the ingestor",
			},
			[]string{"status", "reason"},
		),
		ConfidenceScore: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "audiencia_confidence_score",
				Help:    "Confidence score assigned to ingested records",
				Buckets: []float64{0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
			},
			[]string{"level"},
		),
		IngestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "audiencia_ingest_seconds",
				Help:    "Time spent ingesting one transcript",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"source"},
		),
		SpeakersRegistered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audiencia_speakers_registered_total",
				Help: "Speakers registered implicitly during ingestion",
			},
		),
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audiencia_searches_total",
				Help: "Search requests by outcome",
			},
			[]string{"outcome"},
		),
		SearchMatches: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "audiencia_search_matches",
				Help:    "Matches returned per search",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 500},
			},
		),
		FilterApplications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audiencia_filter_applications_total",
				Help: "Speaker filter toggles by action",
			},
			[]string{"action"},
		),
		EditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audiencia_edits_total",
				Help: "Record edits by kind",
			},
			[]string{"kind"},
		),
		SegmentsPlayed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audiencia_segments_played_total",
				Help: "Segment playback requests",
			},
		),
		SegmentsReplaced: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audiencia_segments_replaced_total",
				Help: "Segment requests that cancelled a pending auto-stop",
			},
		),
	}
}

// Row statuses.
const (
	RowAccepted = "accepted"
	RowSkipped  = "skipped"
)

// RecordRow counts an ingested or skipped row.
func (m *Metrics) RecordRow(status, reason string) {
	if m == nil {
		return
	}
	m.RowsTotal.WithLabelValues(status, reason).Inc()
}

// RecordConfidence observes a record's score.
func (m *Metrics) RecordConfidence(level string, score float64) {
	if m == nil {
		return
	}
	m.ConfidenceScore.WithLabelValues(level).Observe(score)
}

// RecordIngest observes the duration of one ingestion.
func (m *Metrics) RecordIngest(source string, seconds float64) {
	if m == nil {
		return
	}
	m.IngestSeconds.WithLabelValues(source).Observe(seconds)
}

// RecordSpeakerRegistered counts an implicit registration.
func (m *Metrics) RecordSpeakerRegistered() {
	if m == nil {
		return
	}
	m.SpeakersRegistered.Inc()
}

// RecordSearch counts a search and observes its match count.
func (m *Metrics) RecordSearch(matches int) {
	if m == nil {
		return
	}
	outcome := "hit"
	if matches == 0 {
		outcome = "miss"
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchMatches.Observe(float64(matches))
}

// RecordFilter counts a filter toggle ("apply" or "clear").
func (m *Metrics) RecordFilter(action string) {
	if m == nil {
		return
	}
	m.FilterApplications.WithLabelValues(action).Inc()
}

// RecordEdit counts a record edit.
func (m *Metrics) RecordEdit(kind string) {
	if m == nil {
		return
	}
	m.EditsTotal.WithLabelValues(kind).Inc()
}

// RecordSegment counts a playback request; replaced is true when it
// cancelled a pending auto-stop.
func (m *Metrics) RecordSegment(replaced bool) {
	if m == nil {
		return
	}
	m.SegmentsPlayed.Inc()
	if replaced {
		m.SegmentsReplaced.Inc()
	}
}
