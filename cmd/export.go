package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/export"
)

// ExportCommandDeps holds the dependencies for the export command.
type ExportCommandDeps struct {
	*HearingCommandDeps
	WriteClipboard func(text string) error
}

// DefaultExportDeps returns the default dependencies for production use.
func DefaultExportDeps() *ExportCommandDeps {
	return &ExportCommandDeps{
		HearingCommandDeps: DefaultHearingDeps(),
		WriteClipboard:     clipboard.WriteAll,
	}
}

// Export command flags.
var (
	exportFormat  string
	exportRenames []string
	exportOut     string
	exportCopy    bool
	exportNumber  string
)

// NewExportCommand creates the export command.
func NewExportCommand(deps *ExportCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultExportDeps()
	}

	cmd := &cobra.Command{
		Use:   "export <file|case>",
		Short: "Export a hearing as a minute, JSON or YAML",
		Long: `Export a hearing transcript.

Formats:
  minute  Plain-text minute with case header, participants and dialogue (default)
  json    Full document with records, speakers and statistics
  yaml    Same document as YAML

Speakers can be renamed before export with --rename Old=New or
--rename Old=New:Role; the flag may be repeated.

The file name defaults to transcricao_<case number>.<ext> when --out is a
directory. Without --out the export is written to stdout.

Examples:
  audiencia export hearing.json
  audiencia export 0001234-56.2024.5.02.0001 --format json --out ./atas/
  audiencia export hearing.json --rename "Falante 1=Maria Silva:Reclamante"
  audiencia export hearing.json --copy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), deps, args[0])
		},
	}

	cmd.Flags().StringVarP(&exportFormat, "format", "f", export.FormatMinute, "Export format: minute, json, yaml")
	cmd.Flags().StringArrayVar(&exportRenames, "rename", nil, "Rename a speaker: Old=New or Old=New:Role (repeatable)")
	cmd.Flags().StringVar(&exportOut, "out", "", "Write to this file or directory")
	cmd.Flags().BoolVar(&exportCopy, "copy", false, "Copy the export to the clipboard")
	cmd.Flags().StringVar(&exportNumber, "number", "", "Case number for the header and file name")

	return cmd
}

// Rename is one --rename flag value.
type Rename struct {
	Old  string
	New  string
	Role string
}

// ParseRename parses "Old=New" or "Old=New:Role".
func ParseRename(s string) (Rename, error) {
	oldName, rest, ok := strings.Cut(s, "=")
	if !ok {
		return Rename{}, fmt.Errorf("rename %q: expected Old=New[:Role]: %w", s, auerrors.ErrValidation)
	}
	r := Rename{Old: strings.TrimSpace(oldName), New: strings.TrimSpace(rest)}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		r.New = strings.TrimSpace(rest[:i])
		r.Role = strings.TrimSpace(rest[i+1:])
	}
	if r.Old == "" || r.New == "" {
		return Rename{}, fmt.Errorf("rename %q: names must not be blank: %w", s, auerrors.ErrValidation)
	}
	return r, nil
}

func runExport(ctx context.Context, out, errOut io.Writer, deps *ExportCommandDeps, arg string) error {
	switch exportFormat {
	case export.FormatMinute, export.FormatJSON, export.FormatYAML:
	default:
		return fmt.Errorf("export format %q: %w", exportFormat, auerrors.ErrUnsupportedFormat)
	}
	renames := make([]Rename, 0, len(exportRenames))
	for _, raw := range exportRenames {
		r, err := ParseRename(raw)
		if err != nil {
			return err
		}
		renames = append(renames, r)
	}

	h, err := openHearing(ctx, deps.HearingCommandDeps, arg)
	if err != nil {
		return err
	}
	user := h.Config.GetUser()
	for _, r := range renames {
		if _, err := h.Session.RenameSpeaker(ctx, r.Old, r.New, r.Role, user); err != nil {
			return fmt.Errorf("renaming %q: %w", r.Old, err)
		}
	}

	info := h.Case
	if exportNumber != "" {
		info.Number = exportNumber
	}
	doc := export.NewDocument(info, h.Session.Records(), h.Session.Speakers(), deps.now())

	var buf bytes.Buffer
	if err := export.Write(&buf, exportFormat, doc); err != nil {
		return err
	}

	wrote := false
	if exportOut != "" {
		path := exportOut
		if st, err := os.Stat(path); err == nil && st.IsDir() {
			path = filepath.Join(path, export.FileName(info.Number, export.Extension(exportFormat)))
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(errOut, "Exported %d records to %s\n", len(doc.Records), path)
		wrote = true
	}
	if exportCopy {
		if err := deps.WriteClipboard(buf.String()); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		fmt.Fprintf(errOut, "Copied %d records to the clipboard\n", len(doc.Records))
		wrote = true
	}
	if !wrote {
		if _, err := out.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	h.Session.ClearPending()
	return nil
}
