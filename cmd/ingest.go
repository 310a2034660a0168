package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/ingest"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/timecode"
)

// IngestReport summarizes one load for output.
type IngestReport struct {
	Source       string               `json:"source" yaml:"source"`
	Format       string               `json:"format" yaml:"format"`
	Records      int                  `json:"records" yaml:"records"`
	Duration     string               `json:"duration" yaml:"duration"`
	Skipped      []ingest.SkippedRow  `json:"skipped" yaml:"skipped"`
	Speakers     []transcript.Speaker `json:"speakers" yaml:"speakers"`
	Participants []ingest.Participant `json:"participants" yaml:"participants"`
}

// Ingest command flags.
var (
	ingestOutput string
	ingestStrict bool
)

// NewIngestCommand creates the ingest command.
func NewIngestCommand(deps *HearingCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultHearingDeps()
	}

	cmd := &cobra.Command{
		Use:   "ingest <file|case>",
		Short: "Load a transcript and report what was accepted",
		Long: `Load a hearing transcript (JSON, WebVTT or plain text) and report the
records accepted, the rows skipped and the speakers found.

Rows with unreadable timestamps, blank text or a non-positive duration are
skipped with a warning. Use --strict to fail instead.

Examples:
  audiencia ingest hearing.json
  audiencia ingest 0001234-56.2024.5.02.0001 -o json
  audiencia ingest legendas.vtt --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), deps, args[0])
		},
	}

	cmd.Flags().StringVarP(&ingestOutput, "output", "o", "", "Output format: text, json, yaml")
	cmd.Flags().BoolVar(&ingestStrict, "strict", false, "Fail when any row is skipped")

	return cmd
}

func runIngest(ctx context.Context, out io.Writer, deps *HearingCommandDeps, arg string) error {
	h, err := openHearing(ctx, deps, arg)
	if err != nil {
		return err
	}
	format, err := resolveOutput(h.Config, ingestOutput)
	if err != nil {
		return err
	}

	report := IngestReport{
		Source:       h.Path,
		Format:       h.Format,
		Records:      len(h.Result.Records),
		Duration:     timecode.FormatLong(h.Session.Duration()),
		Skipped:      h.Result.Skipped,
		Speakers:     h.Session.Speakers(),
		Participants: h.Session.Participants(),
	}

	handled, err := outputStructured(out, format, report)
	if err != nil {
		return err
	}
	if !handled {
		outputIngestText(out, report)
	}

	if ingestStrict && len(report.Skipped) > 0 {
		return fmt.Errorf("%d of %d rows skipped: %w",
			len(report.Skipped), len(report.Skipped)+report.Records, auerrors.ErrValidation)
	}
	return nil
}

func outputIngestText(out io.Writer, r IngestReport) {
	fmt.Fprintf(out, "Source:   %s (%s)\n", r.Source, r.Format)
	fmt.Fprintf(out, "Records:  %d\n", r.Records)
	fmt.Fprintf(out, "Duration: %s\n", r.Duration)
	fmt.Fprintf(out, "Skipped:  %d\n", len(r.Skipped))
	for _, s := range r.Skipped {
		fmt.Fprintf(out, "  row %d: %s", s.Row, s.Reason)
		if s.Detail != "" {
			fmt.Fprintf(out, " (%s)", s.Detail)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "\nParticipants (%d):\n", len(r.Participants))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tROLE\tFALAS\tPRIMEIRA FALA")
	for _, p := range r.Participants {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\n", p.Name, p.Role, p.Utterances, p.Preview)
	}
	tw.Flush()
}
