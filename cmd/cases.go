package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/audiencia-cli/config"
)

// CaseSummary is one configured case.
type CaseSummary struct {
	Number     string `json:"number" yaml:"number"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	Court      string `json:"court,omitempty" yaml:"court,omitempty"`
	Transcript string `json:"transcript" yaml:"transcript"`
	Video      string `json:"video,omitempty" yaml:"video,omitempty"`
	Available  bool   `json:"available" yaml:"available"`
}

// CasesCommandDeps holds the dependencies for the cases command.
type CasesCommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
}

// DefaultCasesDeps returns the default dependencies for production use.
func DefaultCasesDeps() *CasesCommandDeps {
	return &CasesCommandDeps{
		LoadConfig: config.LoadConfig,
	}
}

var casesOutput string

// NewCasesCommand creates the cases command.
func NewCasesCommand(deps *CasesCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultCasesDeps()
	}

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List the configured cases",
		Long: `List the case numbers configured under "cases" in the config file, with
their transcript path and whether the file is present.

A case number can be used wherever a transcript file is expected.

Examples:
  audiencia cases
  audiencia cases -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCases(cmd.OutOrStdout(), deps)
		},
	}

	cmd.Flags().StringVarP(&casesOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runCases(out io.Writer, deps *CasesCommandDeps) error {
	cfg := deps.Config
	if cfg == nil {
		var err error
		cfg, err = deps.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		deps.Config = cfg
	}
	format, err := resolveOutput(cfg, casesOutput)
	if err != nil {
		return err
	}

	numbers := cfg.CaseNumbers()
	cases := make([]CaseSummary, 0, len(numbers))
	for _, n := range numbers {
		cs, err := cfg.ResolveCase(n)
		if err != nil {
			return err
		}
		cases = append(cases, CaseSummary{
			Number:     n,
			Title:      cs.Title,
			Court:      cs.Court,
			Transcript: cs.Transcript,
			Video:      cs.Video,
			Available:  fileExists(cs.Transcript),
		})
	}

	handled, err := outputStructured(out, format, cases)
	if err != nil || handled {
		return err
	}

	if len(cases) == 0 {
		fmt.Fprintln(out, "No cases configured.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tTITLE\tTRANSCRIPT\tSTATUS")
	for _, c := range cases {
		status := "ok"
		if !c.Available {
			status = "missing"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Number, c.Title, c.Transcript, status)
	}
	return tw.Flush()
}
