package speakers

import (
	"strings"

	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// Roles inferred from speaker names.
const (
	RoleJudge      = "Juiz"
	RoleLawyer     = "Advogado"
	RoleExpert     = "Perito"
	RoleWitness    = "Testemunha"
	RoleClaimant   = "Requerente"
	RoleRespondent = "Requerido"
	RoleOther      = "Participante"
)

var roleKeywords = []struct {
	role     string
	keywords []string
}{
	{RoleJudge, []string{"juiz", "juíza", "magistrad"}},
	{RoleLawyer, []string{"dr.", "dra.", "advogad"}},
	{RoleExpert, []string{"perit", "expert"}},
	{RoleWitness, []string{"testemunha", "depoente"}},
	{RoleClaimant, []string{"requerente", "autor"}},
	{RoleRespondent, []string{"requerid", "réu", "ré "}},
}

// InferRole guesses a role from keywords in the speaker's name. Checks run in
// order, so "Dr. Juiz" is a judge.
func InferRole(name string) string {
	lower := strings.ToLower(name) + " "
	for _, rk := range roleKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(lower, kw) {
				return rk.role
			}
		}
	}
	return RoleOther
}

// DefaultCast is the participant list pre-registered for demo hearings.
func DefaultCast() []transcript.Speaker {
	return []transcript.Speaker{
		{Name: "Dr. Carlos Mendes", Role: "Juiz", Color: "#2c3e50", Initials: "CM"},
		{Name: "João Silva Santos", Role: "Requerente", Color: "#3498db", Initials: "JS"},
		{Name: "Dr. Ana Costa", Role: "Advogado Requerente", Color: "#27ae60", Initials: "AC"},
		{Name: "Maria Oliveira", Role: "Requerido", Color: "#e74c3c", Initials: "MO"},
		{Name: "Dr. Roberto Lima", Role: "Advogado Requerido", Color: "#f39c12", Initials: "RL"},
		{Name: "Sandra Ferreira", Role: "Testemunha", Color: "#9b59b6", Initials: "SF"},
		{Name: "Dra. Lucia Pereira", Role: "Perita", Color: "#1abc9c", Initials: "LP"},
	}
}
