package timecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1:23:45", 5025},
		{"23:45", 1425},
		{"45.5", 45.5},
		{"02:30:500", 150.5},
		{"00:05:75", 5.75},
		{"01:02:050", 62.5},
		{"0:00", 0},
		{"0:05", 5},
		{"10:00:00", 36000},
		{"61:00:00", 219600},
		{" 00:01:30 ", 90},
		{"00:01:30", 90}, // seconds field, not a fraction
		{"12", 12},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "ab", "1:xx", "1:2:3:4", "-5", "1::2", "NaN"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)

			var pe *auerrors.ParseError
			assert.ErrorAs(t, err, &pe)
			assert.True(t, auerrors.IsValidation(err))
		})
	}
}

func TestFormatLong_RoundTrip(t *testing.T) {
	for _, s := range []string{"00:00:00", "00:00:59", "00:01:00", "01:23:45", "09:59:59", "12:00:01"} {
		v, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatLong(v))
	}
}

func TestFormatLong(t *testing.T) {
	assert.Equal(t, "00:02:30", FormatLong(150.5))
	assert.Equal(t, "00:00:00", FormatLong(-3))
	assert.Equal(t, "100:00:00", FormatLong(360000))
}

func TestFormatShort(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{5.9, "0:05"},
		{65, "1:05"},
		{1425, "23:45"},
		{5025, "1:23:45"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatShort(tt.in))
	}
}

func TestFormatRange(t *testing.T) {
	assert.Equal(t, "00:00:05 - 00:00:08", FormatRange(5, 3))
	assert.Equal(t, "00:59:59 - 01:00:01", FormatRange(3599, 2.5))
}
