package standings

import (
	"github.com/AdamBeresnev/op-groups/internal/scoring"
	"github.com/google/uuid"
)

// QualifyingPositions is how many places per group advance to the knockout stage.
const QualifyingPositions = 2

type Qualifier struct {
	Position       int       `json:"position"`
	RegistrationID uuid.UUID `json:"registration_id"`
	Clinched       bool      `json:"clinched"`
}

func matchesRemaining(s Standing, groupSize int) int {
	remaining := (groupSize - 1) - s.MatchesPlayed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsMathematicallyQualified reports whether the holder of a top-2 position can
// no longer be caught by the first non-qualifying competitor. The chaser's
// ceiling assumes a full victory in every remaining match and ignores set and
// game bonuses.
func IsMathematicallyQualified(s Standing, groupSize int, ranked []Standing, position int, rules scoring.Rules) bool {
	if position < 1 || position > QualifyingPositions {
		return false
	}
	if s.MatchesPlayed == 0 {
		return false
	}

	// Nobody left to chase
	if len(ranked) <= QualifyingPositions {
		return true
	}

	chaser := ranked[QualifyingPositions]
	ceiling := chaser.Points + matchesRemaining(chaser, groupSize)*rules.Victory
	return s.Points > ceiling || matchesRemaining(s, groupSize) == 0
}

// Qualifiers returns the provisional holders of the qualifying positions of a
// ranked group, each flagged with whether the place is already clinched.
func Qualifiers(ranked []Standing, groupSize int, rules scoring.Rules) []Qualifier {
	var out []Qualifier
	for i := 0; i < QualifyingPositions && i < len(ranked); i++ {
		position := i + 1
		out = append(out, Qualifier{
			Position:       position,
			RegistrationID: ranked[i].RegistrationID,
			Clinched:       IsMathematicallyQualified(ranked[i], groupSize, ranked, position, rules),
		})
	}
	return out
}
