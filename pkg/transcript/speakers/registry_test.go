package speakers

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
)

func TestRegister_AssignsPaletteInOrder(t *testing.T) {
	r := New()

	a, err := r.Register("Ana Costa", "Advogada")
	require.NoError(t, err)
	b, err := r.Register("Bruno", "Testemunha")
	require.NoError(t, err)

	assert.Equal(t, DefaultPalette[0], a.Color)
	assert.Equal(t, "AC", a.Initials)
	assert.Equal(t, DefaultPalette[1], b.Color)
	assert.Equal(t, "BR", b.Initials)
	assert.Equal(t, 2, r.Len())
}

func TestRegister_DuplicateIsCaseInsensitive(t *testing.T) {
	r := New()
	_, err := r.Register("Dr. Carlos", "Juiz")
	require.NoError(t, err)

	_, err = r.Register("DR. CARLOS", "Outro")
	require.Error(t, err)

	var dup *auerrors.DuplicateSpeakerError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "DR. CARLOS", dup.Name)
	assert.True(t, auerrors.IsConflict(err))
	assert.Equal(t, 1, r.Len())
}

func TestRegister_BlankName(t *testing.T) {
	_, err := New().Register("   ", "x")
	assert.True(t, auerrors.IsValidation(err))
}

func TestRegister_PaletteExhaustionFallsBackToPalette(t *testing.T) {
	palette := []string{"#111111", "#222222"}
	r := New(WithPalette(palette), WithRand(rand.New(rand.NewSource(1))))

	_, err := r.Register("A", "")
	require.NoError(t, err)
	_, err = r.Register("B", "")
	require.NoError(t, err)
	c, err := r.Register("C", "")
	require.NoError(t, err)

	assert.Contains(t, palette, c.Color)
}

func TestRegister_DuplicatePaletteEntriesCountAsUsed(t *testing.T) {
	r := New(WithRand(rand.New(rand.NewSource(7))))
	seen := map[string]int{}
	for i := 0; i < 14; i++ {
		sp, err := r.Register(string(rune('A'+i)), "")
		require.NoError(t, err)
		seen[sp.Color]++
	}
	// 14 distinct colors exist in the 16-entry palette.
	assert.Len(t, seen, 14)
}

func TestRename(t *testing.T) {
	r := New()
	_, err := r.Register("Speaker 1", "")
	require.NoError(t, err)
	before := r.ColorOf("Speaker 1")

	require.NoError(t, r.Rename("speaker 1", "Maria Oliveira", "Requerida"))

	assert.False(t, r.Has("Speaker 1"))
	sp, ok := r.Get("maria oliveira")
	require.True(t, ok)
	assert.Equal(t, "Maria Oliveira", sp.Name)
	assert.Equal(t, "Requerida", sp.Role)
	assert.Equal(t, "MO", sp.Initials)
	assert.Equal(t, before, sp.Color)
}

func TestRename_Errors(t *testing.T) {
	r := New()
	_, _ = r.Register("A", "")
	_, _ = r.Register("B", "")

	err := r.Rename("ghost", "X", "")
	var nf *auerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, auerrors.KindSpeaker, nf.Kind)

	err = r.Rename("A", "b", "")
	assert.True(t, auerrors.IsConflict(err))

	// Changing only the case of a name is allowed.
	require.NoError(t, r.Rename("A", "a", "Perito"))
	assert.Equal(t, "Perito", r.RoleOf("A"))
}

func TestColorOf_UnknownUsesDefault(t *testing.T) {
	assert.Equal(t, DefaultColor, New().ColorOf("nobody"))
	assert.Equal(t, "#000000", New(WithDefaultColor("#000000")).ColorOf("nobody"))
}

func TestDisplayName(t *testing.T) {
	r := New()
	_, _ = r.Register("Dr. Carlos Mendes", "Juiz")
	_, _ = r.Register("Sem Papel", "")

	assert.Equal(t, "Dr. Carlos Mendes - Juiz", r.DisplayName("dr. carlos mendes"))
	assert.Equal(t, "Sem Papel", r.DisplayName("Sem Papel"))
	assert.Equal(t, "Desconhecido", r.DisplayName("Desconhecido"))
	assert.Equal(t, UnidentifiedLabel, r.DisplayName(" "))
}

func TestLoadFromTranscript_RefreshesInPlace(t *testing.T) {
	r := New()
	_, err := r.Register("A", "Juiz")
	require.NoError(t, err)
	colorA := r.ColorOf("A")

	touched := r.LoadFromTranscript([]Entry{
		{Name: "A", Role: "ignored", Utterances: 3},
		{Name: "B", Role: "Perito", Utterances: 1},
		{Name: "b", Role: "Perito", Utterances: 4},
	})

	require.Len(t, touched, 2)
	assert.Equal(t, "A", touched[0].Name)
	assert.Equal(t, 3, touched[0].Utterances)
	assert.Equal(t, "Juiz", touched[0].Role)
	assert.Equal(t, colorA, touched[0].Color)
	assert.Equal(t, "B", touched[1].Name)
	assert.Equal(t, 4, touched[1].Utterances)
	assert.Equal(t, 2, r.Len())
}

func TestSeedAndReload(t *testing.T) {
	r := New(WithSeed(DefaultCast()))
	require.Equal(t, 7, r.Len())
	assert.Equal(t, "#2c3e50", r.ColorOf("Dr. Carlos Mendes"))
	assert.Equal(t, "CM", r.All()[0].Initials)

	sp, err := r.Register("Novo Participante", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPalette[0], sp.Color)

	r.Reload([]Entry{{Name: "Sandra Ferreira", Utterances: 2}})
	assert.False(t, r.Has("Novo Participante"))
	got, ok := r.Get("Sandra Ferreira")
	require.True(t, ok)
	assert.Equal(t, 2, got.Utterances)
	assert.Equal(t, 7, r.Len())
}

func TestSnapshotRestore(t *testing.T) {
	r := New()
	a, err := r.Register("Juiz Paulo", "Juiz")
	require.NoError(t, err)
	st := r.Snapshot()

	r.Reset()
	_, err = r.Register("Maria", "")
	require.NoError(t, err)
	require.False(t, r.Has("Juiz Paulo"))

	r.Restore(st)
	assert.Equal(t, 1, r.Len())
	assert.False(t, r.Has("Maria"))
	assert.Equal(t, a.Color, r.ColorOf("juiz paulo"))
	require.NoError(t, r.Rename("Juiz Paulo", "Juiz Paulo Lima", ""))
	_, ok := r.Get("Juiz Paulo")
	assert.False(t, ok)
	assert.Equal(t, a, st.speakers[0], "snapshot is not aliased by later edits")
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"ana":               "AN",
		"X":                 "X",
		"joão silva santos": "JS",
		"élio  ramos":       "ÉR",
	}
	for in, want := range tests {
		assert.Equal(t, want, Initials(in), in)
	}
}

func TestInferRole(t *testing.T) {
	tests := map[string]string{
		"Juiz do Trabalho":   RoleJudge,
		"Dra. Lucia Pereira": RoleLawyer,
		"Perita Contábil":    RoleExpert,
		"Testemunha 2":       RoleWitness,
		"Autor":              RoleClaimant,
		"Réu":                RoleRespondent,
		"Speaker 1":          RoleOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, InferRole(in), in)
	}
}
