// Package export renders a hearing as a plain-text minute or as a JSON or
// YAML document.
package export

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/ingest"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/timecode"
)

// Version is written into every exported document.
const Version = "2.0"

// Export formats
const (
	FormatMinute = "minute"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

//go:embed assets/minute.tmpl
var assets embed.FS

var minuteTemplate = template.Must(
	template.New("minute.tmpl").Funcs(template.FuncMap{
		"plural": plural,
	}).ParseFS(assets, "assets/minute.tmpl"),
)

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// CaseInfo identifies the lawsuit the hearing belongs to.
type CaseInfo struct {
	Number      string `json:"number" yaml:"number"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Court       string `json:"court,omitempty" yaml:"court,omitempty"`
	HearingType string `json:"hearing_type,omitempty" yaml:"hearing_type,omitempty"`
	HearingDate string `json:"hearing_date,omitempty" yaml:"hearing_date,omitempty"`
	Claimant    string `json:"claimant,omitempty" yaml:"claimant,omitempty"`
	Respondent  string `json:"respondent,omitempty" yaml:"respondent,omitempty"`
}

// Line is a record with its speaker's role and formatted times.
type Line struct {
	transcript.Record `yaml:",inline"`
	Role              string `json:"role,omitempty" yaml:"role,omitempty"`
	Start             string `json:"start" yaml:"start"`
	End               string `json:"end" yaml:"end"`
}

// Stats summarizes the hearing.
type Stats struct {
	TotalRecords      int     `json:"total_records" yaml:"total_records"`
	DurationSeconds   float64 `json:"duration_seconds" yaml:"duration_seconds"`
	Duration          string  `json:"duration" yaml:"duration"`
	MostActiveSpeaker string  `json:"most_active_speaker" yaml:"most_active_speaker"`
	AverageConfidence float64 `json:"average_confidence" yaml:"average_confidence"`
	Marked            int     `json:"marked" yaml:"marked"`
	Notes             int     `json:"notes" yaml:"notes"`
	Edits             int     `json:"edits" yaml:"edits"`
}

// Document is the full export of one hearing.
type Document struct {
	Case       CaseInfo             `json:"case" yaml:"case"`
	Speakers   []transcript.Speaker `json:"speakers" yaml:"speakers"`
	Records    []Line               `json:"records" yaml:"records"`
	Stats      Stats                `json:"stats" yaml:"stats"`
	ExportedAt time.Time            `json:"exported_at" yaml:"exported_at"`
	Version    string               `json:"version" yaml:"version"`
}

// NewDocument builds a Document. Only speakers with at least one record are
// listed, most active first.
func NewDocument(info CaseInfo, records []transcript.Record, speakers []transcript.Speaker, exportedAt time.Time) Document {
	roles := make(map[string]string, len(speakers))
	registered := make(map[string]transcript.Speaker, len(speakers))
	for _, sp := range speakers {
		key := strings.ToLower(sp.Name)
		roles[key] = sp.Role
		registered[key] = sp
	}

	doc := Document{
		Case:       info,
		Records:    make([]Line, len(records)),
		ExportedAt: exportedAt,
		Version:    Version,
	}

	var confidence float64
	for i, r := range records {
		doc.Records[i] = Line{
			Record: r,
			Role:   roles[strings.ToLower(r.Speaker)],
			Start:  timecode.FormatLong(r.StartSeconds),
			End:    timecode.FormatLong(r.EndSeconds),
		}
		confidence += r.ConfidenceScore
		if r.Marked {
			doc.Stats.Marked++
		}
		if r.Note != "" {
			doc.Stats.Notes++
		}
		doc.Stats.Edits += len(r.Changes)
	}

	participants := ingest.Participants(records)
	doc.Speakers = make([]transcript.Speaker, 0, len(participants))
	for _, p := range participants {
		sp, ok := registered[strings.ToLower(p.Name)]
		if !ok {
			sp = transcript.Speaker{Name: p.Name, Role: p.Role}
		}
		sp.Utterances = p.Utterances
		doc.Speakers = append(doc.Speakers, sp)
	}

	doc.Stats.TotalRecords = len(records)
	if len(records) > 0 {
		doc.Stats.DurationSeconds = records[len(records)-1].EndSeconds
		doc.Stats.AverageConfidence = math.Round(confidence/float64(len(records))*100) / 100
	}
	doc.Stats.Duration = timecode.FormatLong(doc.Stats.DurationSeconds)
	if len(participants) > 0 {
		doc.Stats.MostActiveSpeaker = participants[0].Name
	}
	return doc
}

// Minute writes the plain-text minute of doc.
func Minute(w io.Writer, doc Document) error {
	if err := minuteTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("render minute: %w", err)
	}
	return nil
}

// JSON writes doc as indented JSON.
func JSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// YAML writes doc as YAML.
func YAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders doc in format.
func Write(w io.Writer, format string, doc Document) error {
	switch format {
	case FormatMinute:
		return Minute(w, doc)
	case FormatJSON:
		return JSON(w, doc)
	case FormatYAML:
		return YAML(w, doc)
	default:
		return fmt.Errorf("export format %q: %w", format, auerrors.ErrUnsupportedFormat)
	}
}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch format {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "txt"
	}
}

var nonWord = regexp.MustCompile(`\W`)

// FileName returns "transcricao_<number>.<ext>" with every non-word
// character of the case number replaced by an underscore.
func FileName(caseNumber, ext string) string {
	number := nonWord.ReplaceAllString(strings.TrimSpace(caseNumber), "_")
	if number == "" {
		number = "sem_numero"
	}
	return "transcricao_" + number + "." + strings.TrimPrefix(ext, ".")
}
