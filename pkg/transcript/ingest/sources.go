package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// Source formats.
const (
	FormatJSON = "json"
	FormatVTT  = "vtt"
	FormatTXT  = "txt"
)

// DecodeJSON reads a {"transcription": [...]} document. A bare array of rows
// is accepted too.
func DecodeJSON(r io.Reader) ([]transcript.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var rows []transcript.RawRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode transcript rows: %w", err)
		}
		return rows, nil
	}

	var f transcript.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return f.Transcription, nil
}

// VTT parsing regular expressions
var (
	// Matches a Zoom-style cue header: 1 "Speaker Name" (123)
	vttCueHeaderRegex = regexp.MustCompile(`^\d+\s+"([^"]*)"(?:\s+\(\d+\))?$`)

	// Matches a cue timing line: 00:00:05.579 --> 00:00:06.858
	vttTimingRegex = regexp.MustCompile(`^(\d{1,2}:\d{2}:\d{2}(?:\.\d{1,3})?|\d{1,2}:\d{2}(?:\.\d{1,3})?)\s+-->\s+(\d{1,2}:\d{2}:\d{2}(?:\.\d{1,3})?|\d{1,2}:\d{2}(?:\.\d{1,3})?)`)

	// Matches a WebVTT voice span: <v Speaker Name>text
	vttVoiceRegex = regexp.MustCompile(`^<v(?:\.[^ >]+)?\s+([^>]+)>(.*?)(?:</v>)?$`)
)

// ParseVTT reads WebVTT cues. The speaker comes from a Zoom-style cue header
// or a <v> voice span; cue timings are passed through unchanged.
func ParseVTT(r io.Reader) ([]transcript.RawRow, error) {
	scanner := bufio.NewScanner(r)
	rows := make([]transcript.RawRow, 0)

	var cur *transcript.RawRow
	var speaker string
	flush := func() {
		if cur != nil && cur.Text != "" {
			rows = append(rows, *cur)
		}
		cur = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			// Blank lines end a cue.
			flush()
			continue
		case strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE"):
			continue
		case vttCueHeaderRegex.MatchString(line):
			flush()
			speaker = vttCueHeaderRegex.FindStringSubmatch(line)[1]
			continue
		}

		if m := vttTimingRegex.FindStringSubmatch(line); m != nil {
			flush()
			cur = &transcript.RawRow{Start: m[1], End: m[2], Speaker: speaker}
			speaker = ""
			continue
		}

		if cur == nil {
			// Numeric cue identifiers and stray text outside a cue.
			continue
		}
		text := line
		if m := vttVoiceRegex.FindStringSubmatch(line); m != nil {
			cur.Speaker = strings.TrimSpace(m[1])
			text = strings.TrimSpace(m[2])
		}
		if cur.Text != "" {
			cur.Text += " "
		}
		cur.Text += text
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vtt: %w", err)
	}
	return rows, nil
}

// TXT transcript parsing regular expressions
var (
	// Matches: 0:11 : Speaker Name : Text content
	// or:      1:02:45 : Speaker Name : Text content
	txtLineRegex = regexp.MustCompile(`^(\d+:\d{2}(?::\d{2})?)\s*:\s*([^:]+?)\s*:\s*(.+)$`)
)

// wordsPerSecond estimates speech rate for rows with no explicit end.
const wordsPerSecond = 2.5

// ParseTXT reads "timestamp : Speaker : text" lines. A row ends where the
// next one starts; the last row's end is estimated from its word count.
// Malformed lines are ignored.
func ParseTXT(r io.Reader) ([]transcript.RawRow, error) {
	scanner := bufio.NewScanner(r)
	type line struct {
		start   string
		seconds float64
		speaker string
		text    string
	}
	var lines []line

	for scanner.Scan() {
		m := txtLineRegex.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		lines = append(lines, line{
			start:   m[1],
			seconds: clockSeconds(m[1]),
			speaker: strings.TrimSpace(m[2]),
			text:    strings.TrimSpace(m[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read txt: %w", err)
	}

	rows := make([]transcript.RawRow, len(lines))
	for i, l := range lines {
		end := l.seconds + max(1, float64(len(strings.Fields(l.text)))/wordsPerSecond)
		if i+1 < len(lines) && lines[i+1].seconds > l.seconds {
			end = lines[i+1].seconds
		}
		rows[i] = transcript.RawRow{
			Start:   strconv.FormatFloat(l.seconds, 'f', -1, 64),
			End:     strconv.FormatFloat(end, 'f', -1, 64),
			Speaker: l.speaker,
			Text:    l.text,
		}
	}
	return rows, nil
}

// clockSeconds reads M:SS or H:MM:SS literally.
func clockSeconds(s string) float64 {
	total := 0
	for _, p := range strings.Split(s, ":") {
		n, _ := strconv.Atoi(p)
		total = total*60 + n
	}
	return float64(total)
}

// DetectFormat picks a source format from the file name and content. A .txt
// file holding a JSON document is treated as JSON.
func DetectFormat(path string, head []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".vtt":
		return FormatVTT, nil
	case ".txt", "":
		trimmed := bytes.TrimSpace(head)
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			return FormatJSON, nil
		}
		if bytes.HasPrefix(trimmed, []byte("WEBVTT")) {
			return FormatVTT, nil
		}
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("%s: %w", filepath.Ext(path), auerrors.ErrUnsupportedFormat)
	}
}

// Parse reads rows of the given format.
func Parse(format string, r io.Reader) ([]transcript.RawRow, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(r)
	case FormatVTT:
		return ParseVTT(r)
	case FormatTXT:
		return ParseTXT(r)
	default:
		return nil, fmt.Errorf("%s: %w", format, auerrors.ErrUnsupportedFormat)
	}
}

// ReadFile loads rows from path and reports the detected format.
func ReadFile(path string) ([]transcript.RawRow, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open transcript: %w", err)
	}
	format, err := DetectFormat(path, data[:min(len(data), 64)])
	if err != nil {
		return nil, "", err
	}
	rows, err := Parse(format, bytes.NewReader(data))
	if err != nil {
		return nil, format, err
	}
	return rows, format, nil
}
