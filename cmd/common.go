// Package cmd provides CLI commands for the audiencia tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/audiencia-cli/config"
	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/logging"
	"github.com/otherjamesbrown/audiencia-cli/pkg/observability"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/export"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/ingest"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/search"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/session"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/speakers"
)

// HearingCommandDeps holds the dependencies shared by commands that open a
// transcript.
type HearingCommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
	Logger     logging.Logger
	Metrics    *observability.Metrics
	Tracer     *observability.Tracer
	Now        func() time.Time
}

// DefaultHearingDeps returns the default dependencies for production use.
func DefaultHearingDeps() *HearingCommandDeps {
	return &HearingCommandDeps{
		LoadConfig: config.LoadConfig,
		Now:        time.Now,
	}
}

func (d *HearingCommandDeps) logger() logging.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.MustGlobal()
}

func (d *HearingCommandDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// loadConfig loads configuration once per command run.
func (d *HearingCommandDeps) loadConfig() (*config.CLIConfig, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg
	return cfg, nil
}

// hearing is an opened transcript with its session.
type hearing struct {
	Config  *config.CLIConfig
	Session *session.Session
	Result  *ingest.Result
	Case    export.CaseInfo
	Path    string
	Format  string
	Video   string
}

// resolveSource maps a command argument to a transcript path. A configured
// case number wins over a file of the same name.
func resolveSource(cfg *config.CLIConfig, arg string) (string, export.CaseInfo, string, error) {
	if cs, err := cfg.ResolveCase(arg); err == nil {
		return cs.Transcript, export.CaseInfo{
			Number:      strings.TrimSpace(arg),
			Title:       cs.Title,
			Court:       cs.Court,
			HearingType: cs.HearingType,
			HearingDate: cs.HearingDate,
			Claimant:    cs.Claimant,
			Respondent:  cs.Respondent,
		}, cs.Video, nil
	} else if path := config.ExpandPath(arg); fileExists(path) {
		return path, export.CaseInfo{}, "", nil
	} else {
		return "", export.CaseInfo{}, "", fmt.Errorf("%q is neither a configured case nor a readable file: %w", arg, err)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// markersFrom overlays configured markers on the built-in set.
func markersFrom(mc *config.MarkersConfig) ingest.Markers {
	m := ingest.DefaultMarkers()
	if mc == nil {
		return m
	}
	if mc.Ellipsis != "" {
		m.Ellipsis = mc.Ellipsis
	}
	if mc.Hesitation != "" {
		m.Hesitation = mc.Hesitation
	}
	if mc.RhetoricalTag != "" {
		m.RhetoricalTag = mc.RhetoricalTag
	}
	if mc.Negation != "" {
		m.Negation = mc.Negation
	}
	return m
}

func registryFor(cfg *config.CLIConfig) *speakers.Registry {
	var opts []speakers.Option
	if len(cfg.Palette) > 0 {
		opts = append(opts, speakers.WithPalette(cfg.Palette))
	}
	if cfg.DefaultColor != "" {
		opts = append(opts, speakers.WithDefaultColor(cfg.DefaultColor))
	}
	return speakers.New(opts...)
}

// openHearing resolves arg, parses the transcript and loads it into a new
// session.
func openHearing(ctx context.Context, deps *HearingCommandDeps, arg string, extra ...session.Option) (*hearing, error) {
	cfg, err := deps.loadConfig()
	if err != nil {
		return nil, err
	}
	path, info, video, err := resolveSource(cfg, arg)
	if err != nil {
		return nil, err
	}

	rows, format, err := ingest.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	log := deps.logger()
	in := ingest.NewIngestor(registryFor(cfg),
		ingest.WithLogger(log),
		ingest.WithMarkers(markersFrom(cfg.Markers)),
		ingest.WithMetrics(deps.Metrics),
		ingest.WithTracer(deps.Tracer),
		ingest.WithSource(format))

	opts := []session.Option{
		session.WithLogger(log),
		session.WithMetrics(deps.Metrics),
		session.WithTracer(deps.Tracer),
		session.WithWindow(cfg.ContextWindow),
	}
	s := session.New(in, append(opts, extra...)...)

	res, err := s.Load(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("%s: %w", path, auerrors.ErrEmptyTranscript)
	}

	log.Debug("Hearing opened",
		logging.F("path", path),
		logging.F("format", format),
		logging.F("records", len(res.Records)))
	return &hearing{
		Config:  cfg,
		Session: s,
		Result:  res,
		Case:    info,
		Path:    path,
		Format:  format,
		Video:   video,
	}, nil
}

// resolveOutput picks the flag value over the configured default.
func resolveOutput(cfg *config.CLIConfig, flag string) (config.OutputFormat, error) {
	format := cfg.OutputFormat
	if flag != "" {
		format = config.OutputFormat(flag)
	}
	if !format.IsValid() {
		return "", fmt.Errorf("invalid output format: %s (must be text, json, or yaml): %w", format, auerrors.ErrValidation)
	}
	return format, nil
}

// outputJSON writes data as indented JSON.
func outputJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

// outputYAML writes data as YAML.
func outputYAML(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	return enc.Encode(data)
}

// outputStructured handles the json and yaml formats. It reports false for
// text so the caller renders its own view.
func outputStructured(w io.Writer, format config.OutputFormat, data any) (bool, error) {
	switch format {
	case config.OutputFormatJSON:
		return true, outputJSON(w, data)
	case config.OutputFormatYAML:
		return true, outputYAML(w, data)
	default:
		return false, nil
	}
}

// painter colors terminal output. A plain painter returns text unchanged.
type painter struct {
	r     *lipgloss.Renderer
	plain bool
}

func newPainter(w io.Writer, plain bool) painter {
	return painter{r: lipgloss.NewRenderer(w), plain: plain}
}

func (p painter) speaker(name, color string) string {
	if p.plain {
		return name
	}
	return p.r.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(name)
}

func (p painter) dim(s string) string {
	if p.plain {
		return s
	}
	return p.r.NewStyle().Faint(true).Render(s)
}

var markedSpan = regexp.MustCompile("\x02[^\x03]*\x03")

// highlight marks every occurrence of term in text.
func (p painter) highlight(text, term string) string {
	if p.plain {
		return search.Highlight(text, term, "[", "]")
	}
	style := p.r.NewStyle().Reverse(true)
	marked := search.Highlight(text, term, "\x02", "\x03")
	return markedSpan.ReplaceAllStringFunc(marked, func(m string) string {
		return style.Render(m[1 : len(m)-1])
	})
}

func (p painter) level(level, s string) string {
	if p.plain {
		return s
	}
	color := "#2ecc71"
	switch level {
	case "medium":
		color = "#f1c40f"
	case "low":
		color = "#e74c3c"
	}
	return p.r.NewStyle().Foreground(lipgloss.Color(color)).Render(s)
}
