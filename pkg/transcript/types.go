// Package transcript defines the hearing transcript data model shared by the
// codec, registry, ingestion, search, filtering and playback packages.
package transcript

import "time"

// RawRow is one row of a transcript source before ingestion.
type RawRow struct {
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	Speaker string `json:"speaker" yaml:"speaker"`
	Text    string `json:"text" yaml:"text"`
}

// File is the JSON transcript document: {"transcription": [...]}.
type File struct {
	Transcription []RawRow `json:"transcription"`
}

// ConfidenceLevel is the categorical text-quality indicator of a record.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Record is one utterance of the hearing.
type Record struct {
	ID              int             `json:"id" yaml:"id"`
	Speaker         string          `json:"speaker" yaml:"speaker"`
	StartSeconds    float64         `json:"start_seconds" yaml:"start_seconds"`
	EndSeconds      float64         `json:"end_seconds" yaml:"end_seconds"`
	Text            string          `json:"text" yaml:"text"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level" yaml:"confidence_level"`
	// ConfidenceScore is in [0.6, 1.0].
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	Note     string   `json:"note,omitempty" yaml:"note,omitempty"`
	Marked   bool     `json:"marked,omitempty" yaml:"marked,omitempty"`
	Reviewed bool     `json:"reviewed,omitempty" yaml:"reviewed,omitempty"`
	Changes  []Change `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// Duration returns the length of the utterance in seconds.
func (r Record) Duration() float64 {
	return r.EndSeconds - r.StartSeconds
}

// ChangeKind identifies what an edit touched.
type ChangeKind string

const (
	ChangeText    ChangeKind = "text"
	ChangeSpeaker ChangeKind = "speaker"
	ChangeNote    ChangeKind = "note"
)

// Change is one entry of a record's edit history.
type Change struct {
	ID       string     `json:"id" yaml:"id"`
	RecordID int        `json:"record_id" yaml:"record_id"`
	At       time.Time  `json:"at" yaml:"at"`
	User     string     `json:"user" yaml:"user"`
	Kind     ChangeKind `json:"kind" yaml:"kind"`
	Previous string     `json:"previous" yaml:"previous"`
	Next     string     `json:"next" yaml:"next"`
	Comment  string     `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Speaker is a named participant of the hearing.
type Speaker struct {
	Name       string `json:"name" yaml:"name"`
	Role       string `json:"role" yaml:"role"`
	Color      string `json:"color" yaml:"color"`
	Initials   string `json:"initials" yaml:"initials"`
	Utterances int    `json:"utterances" yaml:"utterances"`
}

// CloneRecords returns a deep copy of records so callers cannot mutate
// session-owned state through a view.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r
		if r.Changes != nil {
			out[i].Changes = append([]Change(nil), r.Changes...)
		}
	}
	return out
}
