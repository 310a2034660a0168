package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/contextfilter"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/session"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/timecode"
)

// groupSeparator is printed between non-adjacent groups of a filtered view.
const groupSeparator = "  ···"

// Show command flags.
var (
	showOutput     string
	showSpeaker    string
	showWindow     int
	showShortTimes bool
	showNoColor    bool
)

// NewShowCommand creates the show command.
func NewShowCommand(deps *HearingCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultHearingDeps()
	}

	cmd := &cobra.Command{
		Use:   "show <file|case>",
		Short: "Print the dialogue of a hearing",
		Long: `Print every dialogue line of a hearing with its time range, speaker and role.

With --speaker only that participant's lines are shown, together with --window
lines of context before and after each one. Context lines are dimmed and
separate groups are divided by a "···" line.

Examples:
  audiencia show hearing.json
  audiencia show hearing.json --speaker "Juiz Paulo"
  audiencia show hearing.json --speaker Maria --window 0 --short-times
  audiencia show 0001234-56.2024.5.02.0001 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd.OutOrStdout(), deps, args[0])
		},
	}

	cmd.Flags().StringVarP(&showOutput, "output", "o", "", "Output format: text, json, yaml")
	cmd.Flags().StringVarP(&showSpeaker, "speaker", "s", "", "Only show this speaker, with context")
	cmd.Flags().IntVarP(&showWindow, "window", "w", -1, "Context records around each line (default from config)")
	cmd.Flags().BoolVar(&showShortTimes, "short-times", false, "Print M:SS instead of HH:MM:SS")
	cmd.Flags().BoolVar(&showNoColor, "no-color", false, "Disable colored speaker labels")

	return cmd
}

func runShow(ctx context.Context, out io.Writer, deps *HearingCommandDeps, arg string) error {
	h, err := openHearing(ctx, deps, arg)
	if err != nil {
		return err
	}
	format, err := resolveOutput(h.Config, showOutput)
	if err != nil {
		return err
	}

	var entries []contextfilter.Entry
	if showSpeaker != "" {
		entries = h.Session.FilterBySpeaker(ctx, showSpeaker, showWindow)
		if len(entries) == 0 {
			if _, err := h.Session.Speaker(showSpeaker); err != nil {
				return err
			}
		}
	} else {
		entries = contextfilter.All(h.Session.Records())
	}

	handled, err := outputStructured(out, format, entries)
	if err != nil || handled {
		return err
	}

	p := newPainter(out, showNoColor)
	for _, e := range entries {
		if e.IsNewGroup {
			fmt.Fprintln(out, p.dim(groupSeparator))
		}
		fmt.Fprintln(out, formatLine(p, h.Session, e, showShortTimes))
	}
	return nil
}

// formatLine renders "[start - end] Name - Role: text".
func formatLine(p painter, s *session.Session, e contextfilter.Entry, short bool) string {
	r := e.Record
	format := timecode.FormatLong
	if short {
		format = timecode.FormatShort
	}

	flags := ""
	if r.Marked {
		flags += "*"
	}
	if r.ConfidenceLevel != "" && r.ConfidenceLevel != "high" {
		flags += p.level(string(r.ConfidenceLevel), "?")
	}
	if flags != "" {
		flags += " "
	}

	label := p.speaker(s.DisplayName(r.Speaker), s.ColorOf(r.Speaker))

	line := fmt.Sprintf("%s[%s - %s] %s: %s", flags, format(r.StartSeconds), format(r.EndSeconds), label, r.Text)
	if e.IsContext {
		line = p.dim(line)
	}
	if r.Note != "" {
		line += "\n    " + p.dim("Nota: "+r.Note)
	}
	return line
}
