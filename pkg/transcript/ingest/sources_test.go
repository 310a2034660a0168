package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

const sampleJSON = `{
  "transcription": [
    {"start": "00:00:00", "end": "00:00:05", "speaker": "Juiz", "text": "Declaro aberta a audiência."},
    {"start": "00:05:500", "end": "00:09:250", "speaker": "Advogado", "text": "Pela ordem, Excelência."}
  ]
}`

func TestDecodeJSON(t *testing.T) {
	rows, err := DecodeJSON(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, transcript.RawRow{Start: "00:05:500", End: "00:09:250", Speaker: "Advogado", Text: "Pela ordem, Excelência."}, rows[1])
}

func TestDecodeJSON_BareArray(t *testing.T) {
	rows, err := DecodeJSON(strings.NewReader(`[{"start":"1","end":"2","speaker":"A","text":"oi"}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Speaker)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	_, err := DecodeJSON(strings.NewReader(`{"transcription": [`))
	assert.Error(t, err)
}

func TestParseVTT_SpeakerHeaders(t *testing.T) {
	vtt := `WEBVTT

1 "Dr. Carlos Mendes" (101)
00:00:00.000 --> 00:00:04.500
Bom dia.
Vamos começar.

2 "" (0)
00:00:04.500 --> 00:00:06.000
[inaudível]
`
	rows, err := ParseVTT(strings.NewReader(vtt))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Dr. Carlos Mendes", rows[0].Speaker)
	assert.Equal(t, "Bom dia. Vamos começar.", rows[0].Text)
	assert.Equal(t, "00:00:00.000", rows[0].Start)
	assert.Equal(t, "00:00:04.500", rows[0].End)
	assert.Equal(t, "", rows[1].Speaker)
}

func TestParseVTT_VoiceSpans(t *testing.T) {
	vtt := `WEBVTT

NOTE exported by recorder

1
00:01.000 --> 00:03.000
<v Testemunha>Eu vi tudo.</v>

2
00:03.000 --> 00:05.000
<v.loud Juiz>Silêncio!
`
	rows, err := ParseVTT(strings.NewReader(vtt))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Testemunha", rows[0].Speaker)
	assert.Equal(t, "Eu vi tudo.", rows[0].Text)
	assert.Equal(t, "Juiz", rows[1].Speaker)
	assert.Equal(t, "Silêncio!", rows[1].Text)
	assert.Equal(t, "00:03.000", rows[1].Start)
}

func TestParseTXT(t *testing.T) {
	txt := `0:00 : Juiz : Declaro aberta a audiência.
this line is ignored
0:07 : Reclamante : Trabalhei lá por três anos.
1:02:03 : Juiz : Encerrada.
`
	rows, err := ParseTXT(strings.NewReader(txt))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "0", rows[0].Start)
	assert.Equal(t, "7", rows[0].End)
	assert.Equal(t, "Reclamante", rows[1].Speaker)
	assert.Equal(t, "3723", rows[1].End)
	assert.Equal(t, "3723", rows[2].Start)
	// One word at 2.5 words per second rounds up to one second.
	assert.Equal(t, "3724", rows[2].End)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		head string
		want string
	}{
		{"a.json", "", FormatJSON},
		{"a.VTT", "", FormatVTT},
		{"a.txt", `  {"transcription": []}`, FormatJSON},
		{"a.txt", "WEBVTT\n", FormatVTT},
		{"a.txt", "0:00 : A : oi", FormatTXT},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path, []byte(tt.head))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := DetectFormat("a.pdf", nil)
	assert.ErrorIs(t, err, auerrors.ErrUnsupportedFormat)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processo_0001.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o600))

	rows, format, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)
	assert.Len(t, rows, 2)

	_, _, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
