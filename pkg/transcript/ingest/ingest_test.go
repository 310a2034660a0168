package ingest

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/audiencia-cli/pkg/observability"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/speakers"
)

func TestIngest_EndToEnd(t *testing.T) {
	reg := speakers.New()
	in := NewIngestor(reg)

	res, err := in.Ingest(context.Background(), []transcript.RawRow{
		{Start: "0:00", End: "0:05", Speaker: "A", Text: "Hello there, how are you today?"},
		{Start: "0:05", End: "0:08", Speaker: "B", Text: "Fine."},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Empty(t, res.Skipped)

	a, b := res.Records[0], res.Records[1]
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, "A", a.Speaker)
	assert.Equal(t, 0.0, a.StartSeconds)
	assert.Equal(t, 5.0, a.EndSeconds)
	assert.Equal(t, transcript.ConfidenceMedium, a.ConfidenceLevel)
	assert.InDelta(t, 0.95, a.ConfidenceScore, 1e-9)

	assert.Equal(t, 2, b.ID)
	assert.Equal(t, transcript.ConfidenceLow, b.ConfidenceLevel)
	// "Fine." is shorter than ten characters.
	assert.InDelta(t, 0.80, b.ConfidenceScore, 1e-9)

	assert.True(t, reg.Has("A"))
	assert.True(t, reg.Has("B"))
	require.Len(t, res.Speakers, 2)
	assert.Equal(t, 1, res.Speakers[0].Utterances)
}

func TestIngest_SkipsBadRowsAndKeepsSequentialIDs(t *testing.T) {
	reg := speakers.New()
	in := NewIngestor(reg)

	res, err := in.Ingest(context.Background(), []transcript.RawRow{
		{Start: "0:00", End: "0:04", Speaker: "Juiz", Text: "Declaro aberta a audiência."},
		{Start: "x:10", End: "0:12", Speaker: "Juiz", Text: "linha quebrada"},
		{Start: "0:12", End: "??", Speaker: "Juiz", Text: "fim quebrado"},
		{Start: "0:20", End: "0:15", Speaker: "Juiz", Text: "fora de ordem"},
		{Start: "0:20", End: "0:22", Speaker: "Juiz", Text: "   "},
		{Start: "0:22", End: "0:30", Speaker: "Testemunha", Text: "Sim, senhor."},
	})
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, []int{1, 2}, []int{res.Records[0].ID, res.Records[1].ID})
	assert.Equal(t, "Testemunha", res.Records[1].Speaker)

	require.Len(t, res.Skipped, 4)
	assert.Equal(t, 2, res.Skipped[0].Row)
	assert.Equal(t, ReasonBadStart, res.Skipped[0].Reason)
	assert.Equal(t, ReasonBadEnd, res.Skipped[1].Reason)
	assert.Equal(t, ReasonInvalidRange, res.Skipped[2].Reason)
	assert.Equal(t, ReasonEmptyText, res.Skipped[3].Reason)
	assert.Equal(t, "linha quebrada", res.Skipped[0].Raw.Text)
}

func TestIngest_ResolvesExistingSpeakerCaseInsensitively(t *testing.T) {
	reg := speakers.New()
	_, err := reg.Register("Dr. Carlos Mendes", "Juiz")
	require.NoError(t, err)

	res, err := NewIngestor(reg).Ingest(context.Background(), []transcript.RawRow{
		{Start: "0:00", End: "0:03", Speaker: "DR. CARLOS MENDES", Text: "Bom dia a todos."},
		{Start: "0:03", End: "0:05", Speaker: "", Text: "Inaudível."},
	})
	require.NoError(t, err)

	assert.Equal(t, "Dr. Carlos Mendes", res.Records[0].Speaker)
	assert.Equal(t, speakers.UnidentifiedLabel, res.Records[1].Speaker)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, "Juiz", reg.RoleOf("Dr. Carlos Mendes"))
}

func TestIngest_InfersRoleForNewSpeakers(t *testing.T) {
	reg := speakers.New()
	_, err := NewIngestor(reg).Ingest(context.Background(), []transcript.RawRow{
		{Start: "0:00", End: "0:03", Speaker: "Testemunha Sandra", Text: "Eu estava lá."},
	})
	require.NoError(t, err)
	assert.Equal(t, speakers.RoleWitness, reg.RoleOf("Testemunha Sandra"))
}

func TestIngest_ScoresTrimmedText(t *testing.T) {
	res, err := NewIngestor(speakers.New()).Ingest(context.Background(), []transcript.RawRow{
		{Start: "0", End: "1", Speaker: "Maria", Text: "   ok     "},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, "ok", r.Text)
	assert.InDelta(t, 0.80, r.ConfidenceScore, 1e-9)
	assert.Equal(t, transcript.ConfidenceLow, r.ConfidenceLevel)
}

func TestIngest_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIngestor(speakers.New()).Ingest(ctx, []transcript.RawRow{
		{Start: "0:00", End: "0:01", Speaker: "A", Text: "texto"},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngest_EmptyInput(t *testing.T) {
	res, err := NewIngestor(speakers.New()).Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.NotNil(t, res.Skipped)
}

func TestIngest_RecordsMetrics(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	in := NewIngestor(speakers.New(), WithMetrics(m), WithTracer(observability.NewTracer()))

	_, err := in.Ingest(context.Background(), []transcript.RawRow{
		{Start: "0:00", End: "0:02", Speaker: "A", Text: "ok então"},
		{Start: "bad", End: "0:03", Speaker: "A", Text: "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RowsTotal.WithLabelValues(observability.RowAccepted, "")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RowsTotal.WithLabelValues(observability.RowSkipped, ReasonBadStart)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SpeakersRegistered))
}

func TestParticipants(t *testing.T) {
	long := "Este depoimento é bastante longo e passa de cinquenta caracteres."
	records := []transcript.Record{
		{Speaker: "Juiz", Text: "Abertura."},
		{Speaker: "Dra. Ana", Text: long},
		{Speaker: "Dra. Ana", Text: "Sem perguntas."},
		{Speaker: "Testemunha", Text: "Sim."},
	}

	ps := Participants(records)
	require.Len(t, ps, 3)
	assert.Equal(t, "Dra. Ana", ps[0].Name)
	assert.Equal(t, 2, ps[0].Utterances)
	assert.Equal(t, speakers.RoleLawyer, ps[0].Role)
	assert.Equal(t, string([]rune(long)[:50])+"...", ps[0].Preview)
	// Ties keep first-appearance order.
	assert.Equal(t, "Juiz", ps[1].Name)
	assert.Equal(t, "Testemunha", ps[2].Name)

	entries := Entries(ps)
	assert.Equal(t, speakers.Entry{Name: "Juiz", Role: speakers.RoleJudge, Utterances: 1}, entries[1])
}
