// Package timecode parses the timestamp shapes found in hearing transcripts
// and formats seconds for dialogue lists and players.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
)

// Parse converts a textual timestamp into seconds.
//
// Accepted shapes are H:MM:SS, MM:SS and a bare (fractional) number. A
// three-part value A:B:C is read as MM:SS:fraction when A is below 60, C
// truncated is below 1000, and C cannot be a seconds field: it is 60 or more,
// or written with three integer digits. The fraction is centiseconds when C
// is below 100 and milliseconds otherwise. Every other three-part value is
// H:MM:SS.
func Parse(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, &auerrors.ParseError{Input: text, Reason: "empty timestamp"}
	}

	parts := strings.Split(s, ":")
	nums := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &auerrors.ParseError{Input: text, Reason: fmt.Sprintf("non-numeric component %q", p)}
		}
		if v < 0 {
			return 0, &auerrors.ParseError{Input: text, Reason: "negative component"}
		}
		nums[i] = v
	}

	switch len(nums) {
	case 1:
		return nums[0], nil
	case 2:
		return nums[0]*60 + nums[1], nil
	case 3:
		a, b, c := nums[0], nums[1], nums[2]
		if a < 60 && math.Trunc(c) < 1000 && (math.Trunc(c) >= 60 || intDigits(parts[2]) == 3) {
			divisor := 1000.0
			if c < 100 {
				divisor = 100
			}
			return a*60 + b + c/divisor, nil
		}
		return a*3600 + b*60 + c, nil
	default:
		return 0, &auerrors.ParseError{Input: text, Reason: "too many components"}
	}
}

func intDigits(s string) int {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return len(strings.TrimLeft(s, "+"))
}

func split(seconds float64) (h, m, s int) {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return total / 3600, (total % 3600) / 60, total % 60
}

// FormatLong renders seconds as zero-padded HH:MM:SS.
func FormatLong(seconds float64) string {
	h, m, s := split(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatShort renders seconds as M:SS, or H:MM:SS when hours are present.
func FormatShort(seconds float64) string {
	h, m, s := split(seconds)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatRange renders "start - end" in the long form.
func FormatRange(start, duration float64) string {
	return FormatLong(start) + " - " + FormatLong(start+duration)
}
