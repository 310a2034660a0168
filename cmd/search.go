package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/contextfilter"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/search"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/timecode"
)

// SearchResult is one match with its record.
type SearchResult struct {
	search.Match `yaml:",inline"`
	Speaker      string  `json:"speaker" yaml:"speaker"`
	Start        string  `json:"start" yaml:"start"`
	StartSeconds float64 `json:"start_seconds" yaml:"start_seconds"`
}

// SearchResponse contains the matches of one term.
type SearchResponse struct {
	Term     string         `json:"term" yaml:"term"`
	Total    int            `json:"total" yaml:"total"`
	Records  int            `json:"records" yaml:"records"`
	Selected int            `json:"selected,omitempty" yaml:"selected,omitempty"`
	Results  []SearchResult `json:"results" yaml:"results"`
}

// Search command flags.
var (
	searchOutput    string
	searchIndex     int
	searchHighlight bool
	searchNoColor   bool
)

// NewSearchCommand creates the search command.
func NewSearchCommand(deps *HearingCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultHearingDeps()
	}

	cmd := &cobra.Command{
		Use:   "search <file|case> <term>",
		Short: "Find a term in the dialogue",
		Long: `Find every case-insensitive occurrence of a term in the dialogue.

Each match is listed with the time, the speaker and a snippet around the
occurrence. Use --index to jump to one match and print its full line.

Examples:
  audiencia search hearing.json carteira
  audiencia search hearing.json "horas extras" --highlight
  audiencia search hearing.json carteira --index 2
  audiencia search 0001234-56.2024.5.02.0001 acordo -o json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd.OutOrStdout(), deps, args[0], strings.Join(args[1:], " "))
		},
	}

	cmd.Flags().StringVarP(&searchOutput, "output", "o", "", "Output format: text, json, yaml")
	cmd.Flags().IntVarP(&searchIndex, "index", "i", 0, "Jump to the Nth match (1-based)")
	cmd.Flags().BoolVar(&searchHighlight, "highlight", false, "Mark the term inside each snippet")
	cmd.Flags().BoolVar(&searchNoColor, "no-color", false, "Disable colors")

	return cmd
}

func runSearch(ctx context.Context, out io.Writer, deps *HearingCommandDeps, arg, term string) error {
	h, err := openHearing(ctx, deps, arg)
	if err != nil {
		return err
	}
	format, err := resolveOutput(h.Config, searchOutput)
	if err != nil {
		return err
	}

	matches := h.Session.Search(ctx, term)
	records := h.Session.Records()
	resp := SearchResponse{
		Term:    term,
		Total:   len(matches),
		Records: search.CountRecords(records, term),
		Results: make([]SearchResult, 0, len(matches)),
	}
	for _, m := range matches {
		r := records[m.RecordIndex]
		resp.Results = append(resp.Results, SearchResult{
			Match:        m,
			Speaker:      r.Speaker,
			Start:        timecode.FormatLong(r.StartSeconds),
			StartSeconds: r.StartSeconds,
		})
	}

	var selected search.Match
	if searchIndex != 0 {
		if searchIndex < 0 || searchIndex > len(matches) {
			return fmt.Errorf("match %d out of range (1-%d): %w", searchIndex, len(matches), auerrors.ErrValidation)
		}
		selected = matches[0]
		for i := 1; i < searchIndex; i++ {
			selected, _ = h.Session.NextMatch()
		}
		resp.Selected = searchIndex
	}

	handled, err := outputStructured(out, format, resp)
	if err != nil || handled {
		return err
	}

	p := newPainter(out, searchNoColor)
	if len(matches) == 0 {
		fmt.Fprintf(out, "No matches for %q.\n", term)
		return nil
	}

	if searchIndex != 0 {
		fmt.Fprintf(out, "Match %d of %d\n", searchIndex, len(matches))
		e := contextfilter.Entry{Record: records[selected.RecordIndex], Index: selected.RecordIndex}
		line := formatLine(p, h.Session, e, false)
		if searchHighlight {
			line = p.highlight(line, term)
		}
		fmt.Fprintln(out, line)
		return nil
	}

	fmt.Fprintf(out, "%d matches in %d records for %q\n\n", resp.Total, resp.Records, term)
	for i, r := range resp.Results {
		snippet := r.Snippet
		if searchHighlight {
			snippet = p.highlight(snippet, term)
		}
		name := p.speaker(r.Speaker, h.Session.ColorOf(r.Speaker))
		fmt.Fprintf(out, "%3d. [%s] %s: %s\n", i+1, r.Start, name, snippet)
	}
	return nil
}
