// Package main provides the audiencia CLI entry point.
// audiencia loads labor-court hearing transcripts, lets a clerk search, filter
// and correct them, and exports the hearing minute.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/audiencia-cli/cmd"
	"github.com/otherjamesbrown/audiencia-cli/config"
	"github.com/otherjamesbrown/audiencia-cli/pkg/api"
	"github.com/otherjamesbrown/audiencia-cli/pkg/buildinfo"
	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/logging"
	"github.com/otherjamesbrown/audiencia-cli/pkg/observability"
)

// Global flags and state.
var (
	cfgFile      string
	outputFormat string
	debug        bool

	// cfg holds the loaded configuration.
	cfg *config.CLIConfig
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "audiencia",
	Short: "Audiencia CLI - hearing transcript review",
	Long: `audiencia is the command-line interface for reviewing labor-court hearing
transcripts.

It loads a transcript (JSON, WebVTT or plain text), assigns each speaker a role
and a color, scores the quality of every line, and lets you search, filter by
speaker with surrounding context, correct and export the hearing minute.

COMMON WORKFLOWS:
  Check a file:      audiencia ingest hearing.json
  Read the dialogue: audiencia show hearing.json --speaker "Juiz Paulo"
  Find a term:       audiencia search hearing.json carteira
  Export the minute: audiencia export <case number> --out ./atas/
  Review in a UI:    audiencia serve <case number>

Any command taking <file|case> accepts a transcript path or a case number
configured in ~/.audiencia/config.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for commands that don't need it.
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		if cfgFile != "" {
			cfg, err = config.LoadConfigFile(config.ExpandPath(cfgFile))
		} else {
			cfg, err = config.LoadConfig()
		}
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if outputFormat != "" {
			cfg.OutputFormat = config.OutputFormat(outputFormat)
		}
		if debug {
			cfg.Debug = true
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		level := logging.LevelWarn
		if cfg.Debug {
			level = logging.LevelDebug
		}
		logging.SetGlobal(logging.NewLogger(logging.ConfigFor(os.Stderr, level, cfg.LogJSON)))
		return nil
	},
}

// loadRootConfig hands the configuration loaded by the root command to
// subcommands.
func loadRootConfig() (*config.CLIConfig, error) {
	if cfg == nil {
		return config.LoadConfig()
	}
	return cfg, nil
}

// hearingDeps builds command dependencies bound to the root configuration.
func hearingDeps() *cmd.HearingCommandDeps {
	deps := cmd.DefaultHearingDeps()
	deps.LoadConfig = loadRootConfig
	deps.Tracer = observability.NewTracer()
	return deps
}

var versionOutput string

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash, and build time of the audiencia CLI.

Examples:
  audiencia version
  audiencia version --output json`,
	RunE: func(c *cobra.Command, args []string) error {
		info := buildinfo.Get(api.ServiceName)
		out := c.OutOrStdout()
		switch config.OutputFormat(versionOutput) {
		case config.OutputFormatJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		case config.OutputFormatYAML:
			return yaml.NewEncoder(out).Encode(info)
		}
		fmt.Fprintf(out, "audiencia version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:         %s (%s)\n", info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.audiencia/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "", "Output format: text, json, yaml")

	rootCmd.AddGroup(
		&cobra.Group{ID: "transcript", Title: "Transcripts:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	transcriptCmds := []*cobra.Command{
		cmd.NewIngestCommand(hearingDeps()),
		cmd.NewShowCommand(hearingDeps()),
		cmd.NewSearchCommand(hearingDeps()),
		cmd.NewSpeakersCommand(hearingDeps()),
		cmd.NewExportCommand(&cmd.ExportCommandDeps{
			HearingCommandDeps: hearingDeps(),
			WriteClipboard:     cmd.DefaultExportDeps().WriteClipboard,
		}),
		cmd.NewServeCommand(&cmd.ServeCommandDeps{
			HearingCommandDeps: hearingDeps(),
			Listen:             cmd.DefaultServeDeps().Listen,
		}),
	}
	for _, c := range transcriptCmds {
		c.GroupID = "transcript"
		rootCmd.AddCommand(c)
	}

	casesCmd := cmd.NewCasesCommand(&cmd.CasesCommandDeps{LoadConfig: loadRootConfig})
	casesCmd.GroupID = "setup"
	rootCmd.AddCommand(casesCmd)

	versionCmd.GroupID = "setup"
	rootCmd.AddCommand(versionCmd)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch auerrors.Classify(err) {
	case auerrors.ErrCodeCancelled:
		return 130
	case auerrors.ErrCodeInternal:
		return 1
	default:
		return 2
	}
}

func main() {
	// Cancel the command context on SIGINT/SIGTERM so serve can shut down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		code := auerrors.Classify(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "  %s\n", auerrors.GetSuggestedAction(code))
		stop()
		os.Exit(exitCode(err))
	}
}
