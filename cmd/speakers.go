package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/contextfilter"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/timecode"
)

// SpeakerSummary is one participant with their speaking time.
type SpeakerSummary struct {
	Name            string  `json:"name" yaml:"name"`
	Role            string  `json:"role" yaml:"role"`
	Color           string  `json:"color" yaml:"color"`
	Initials        string  `json:"initials" yaml:"initials"`
	Utterances      int     `json:"utterances" yaml:"utterances"`
	SpeakingSeconds float64 `json:"speaking_seconds" yaml:"speaking_seconds"`
	SpeakingTime    string  `json:"speaking_time" yaml:"speaking_time"`
	Preview         string  `json:"preview,omitempty" yaml:"preview,omitempty"`
}

// Speakers command flags.
var (
	speakersOutput  string
	speakersNoColor bool
)

// NewSpeakersCommand creates the speakers command.
func NewSpeakersCommand(deps *HearingCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultHearingDeps()
	}

	cmd := &cobra.Command{
		Use:   "speakers <file|case>",
		Short: "List the participants of a hearing",
		Long: `List every participant of a hearing, most active first, with the role
inferred from the name, the assigned color, initials, number of utterances and
total speaking time.

Examples:
  audiencia speakers hearing.json
  audiencia speakers 0001234-56.2024.5.02.0001 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpeakers(cmd.Context(), cmd.OutOrStdout(), deps, args[0])
		},
	}

	cmd.Flags().StringVarP(&speakersOutput, "output", "o", "", "Output format: text, json, yaml")
	cmd.Flags().BoolVar(&speakersNoColor, "no-color", false, "Disable colored names")

	return cmd
}

func runSpeakers(ctx context.Context, out io.Writer, deps *HearingCommandDeps, arg string) error {
	h, err := openHearing(ctx, deps, arg)
	if err != nil {
		return err
	}
	format, err := resolveOutput(h.Config, speakersOutput)
	if err != nil {
		return err
	}

	records := h.Session.Records()
	participants := h.Session.Participants()
	summaries := make([]SpeakerSummary, 0, len(participants))
	for _, p := range participants {
		sp, err := h.Session.Speaker(p.Name)
		if err != nil {
			return err
		}
		secs := contextfilter.SpeakingTime(records, p.Name)
		summaries = append(summaries, SpeakerSummary{
			Name:            sp.Name,
			Role:            sp.Role,
			Color:           sp.Color,
			Initials:        sp.Initials,
			Utterances:      p.Utterances,
			SpeakingSeconds: secs,
			SpeakingTime:    timecode.FormatLong(secs),
			Preview:         p.Preview,
		})
	}

	handled, err := outputStructured(out, format, summaries)
	if err != nil || handled {
		return err
	}

	p := newPainter(out, speakersNoColor)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INITIALS\tNAME\tROLE\tCOLOR\tFALAS\tTEMPO")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.Initials, p.speaker(s.Name, s.Color), s.Role, s.Color, s.Utterances, s.SpeakingTime)
	}
	return tw.Flush()
}
